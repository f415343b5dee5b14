package main

import (
	"context"
	"errors"
	"fmt"
	"image"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/listening-eye/capture"
	"github.com/maastricht-university/listening-eye/clients"
	cfg "github.com/maastricht-university/listening-eye/config"
	"github.com/maastricht-university/listening-eye/emotion"
	"github.com/maastricht-university/listening-eye/orchestrator"
	"github.com/maastricht-university/listening-eye/render"
	"github.com/maastricht-university/listening-eye/server"
	"github.com/maastricht-university/listening-eye/transition"
	"github.com/maastricht-university/listening-eye/tui"
)

func runCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the eye and start listening",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cfg.Load(configPath)
			if err != nil {
				return err
			}
			if metricsAddr == "" {
				metricsAddr = conf.Metrics.Addr
			}
			log, closer, err := newLogger(conf.Logging, true)
			if err != nil {
				return err
			}
			defer closer.Close()
			entry := logrus.NewEntry(log).WithField("session", conf.Session.Name)

			ctx, stop := signalContext()
			defer stop()
			return runSession(ctx, conf, metricsAddr, entry)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address (default metrics.addr, empty disables)")
	return cmd
}

// runSession runs the session loop, the terminal UI and the optional
// metrics listener until the UI quits or ctx is cancelled.
func runSession(ctx context.Context, conf *cfg.Root, metricsAddr string, log *logrus.Entry) error {
	rec, err := recognizer(conf, log)
	if err != nil {
		return err
	}
	if c, ok := rec.(interface{ Close() error }); ok {
		defer c.Close()
	}

	pres := tui.NewPresenter()
	sess := orchestrator.New(orchestrator.OptionsFrom(conf), orchestrator.Deps{
		Recognizer: rec,
		Classifier: remoteClassifier(conf),
		Presenter:  pres,
		Log:        log,
	})

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	model := tui.New(runCtx, sess, tui.Options{FPS: conf.Render.FPS, DrawnEyes: conf.Render.DrawnEyes})
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(runCtx))
	pres.Bind(prog.Send)

	g.Go(func() error {
		return sess.Run(runCtx)
	})
	g.Go(func() error {
		// quitting the UI ends the session
		defer cancel()
		if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("ui: %w", err)
		}
		return nil
	})
	if metricsAddr != "" {
		g.Go(func() error {
			return server.Serve(runCtx, metricsAddr, promhttp.Handler(), log.WithField("component", "metrics"))
		})
	}
	return g.Wait()
}

// recognizer picks the capture backend. "none" yields a nil Recognizer,
// which the session treats as no speech support.
func recognizer(conf *cfg.Root, log *logrus.Entry) (capture.Recognizer, error) {
	c := conf.Capture
	switch c.Backend {
	case "websocket":
		return capture.NewWebSocketRecognizer(conf.Services.SpeechBridge.URL, c.Language, log), nil
	case "directory":
		asr := conf.Services.ASR
		tr := capture.ASRTranscriber{HTTP: clients.NewHTTP(asr.Timeout), URL: asr.URL, Language: c.Language}
		return capture.NewDirRecognizer(c.WatchDir, c.SettleDelay, tr, log), nil
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("capture: unknown backend %q", c.Backend)
}

// loadAssets reads the optional image sequences. When present their lengths
// replace the configured ones so frame cycling matches the files.
func loadAssets(dir string, opts *orchestrator.Options, log *logrus.Entry) (*render.Assets, error) {
	if dir == "" {
		return nil, nil
	}
	a, err := render.LoadAssets(dir)
	if err != nil {
		return nil, fmt.Errorf("assets %s: %w", dir, err)
	}
	opts.Transition.Sequences = transition.SequencesFrom(a.Lengths())
	log.WithField("sequences", a.Lengths()).Debug("assets loaded")
	return a, nil
}

func renderImage(v orchestrator.View, res *emotion.Result, drawn bool, w, h int, assets *render.Assets) image.Image {
	return render.Image(render.Input{
		Vector:    v.Vector,
		Frame:     v.Frame,
		DrawnEyes: drawn,
		Label:     res.Emotion,
	}, w, h, assets)
}
