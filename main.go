package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/listening-eye/classifier"
	"github.com/maastricht-university/listening-eye/clients"
	cfg "github.com/maastricht-university/listening-eye/config"
	"github.com/maastricht-university/listening-eye/orchestrator"
	"github.com/maastricht-university/listening-eye/server"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "eye",
		Short:         "A speech-reactive eye that changes colour with the emotion in what it hears",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config/$CONFIG_ENV/config.yaml, then eye.yaml)")

	root.AddCommand(runCmd(), serveCmd(), snapshotCmd(), configCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "eye:", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newLogger builds the root logger. With toFile the output goes to
// logging.file so the terminal stays free for the UI.
func newLogger(c cfg.Logging, toFile bool) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging level: %w", err)
	}
	log.SetLevel(lvl)
	if strings.EqualFold(c.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = io.NopCloser(nil)
	if toFile && c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		log.SetOutput(f)
		closer = f
	}
	return log, closer, nil
}

// localClassifier is the chain behind `eye serve`: the LLM when a key is
// configured, keyword rules otherwise and on any LLM failure.
func localClassifier(conf *cfg.Root, log *logrus.Entry) *classifier.Chain {
	chain := &classifier.Chain{Fallback: classifier.Inferential{}, Log: log}
	if conf.Classifier.APIKey != "" {
		chain.Primary = classifier.NewLLM(conf.Classifier.APIKey, conf.Classifier.BaseURL, conf.Classifier.Model, conf.Services.Classifier.Timeout)
	}
	return chain
}

func remoteClassifier(conf *cfg.Root) clients.Remote {
	s := conf.Services.Classifier
	return clients.Remote{HTTP: clients.NewHTTP(s.Timeout), URL: s.URL}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the classification server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cfg.Load(configPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = conf.Server.Addr
			}
			log, closer, err := newLogger(conf.Logging, false)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signalContext()
			defer stop()
			entry := logrus.NewEntry(log)
			cls := localClassifier(conf, entry.WithField("component", "classifier"))
			if cls.Primary == nil {
				entry.Info("no API key configured, classifying with keyword rules only")
			}
			return server.Serve(ctx, addr, server.NewRouter(cls, entry), entry.WithField("component", "server"))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cfg.Load(configPath)
			if err != nil {
				return err
			}
			return conf.Write(cmd.OutOrStdout())
		},
	}
}

func snapshotCmd() *cobra.Command {
	var (
		text   string
		frames int
		out    string
		seed   int64
		width  int
		height int
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Classify text headlessly and write the resulting eye as PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" && len(args) > 0 {
				text = strings.Join(args, " ")
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("snapshot: no text given")
			}
			conf, err := cfg.Load(configPath)
			if err != nil {
				return err
			}
			log, closer, err := newLogger(conf.Logging, false)
			if err != nil {
				return err
			}
			defer closer.Close()
			entry := logrus.NewEntry(log)

			opts := orchestrator.OptionsFrom(conf)
			assets, err := loadAssets(conf.Render.AssetDir, &opts, entry)
			if err != nil {
				return err
			}

			var cls orchestrator.Classifier = localClassifier(conf, entry.WithField("component", "classifier"))
			if remote {
				cls = remoteClassifier(conf)
			}
			ctx, stop := signalContext()
			defer stop()

			view, res, err := orchestrator.Snapshot(ctx, opts, cls, text, frames, conf.Render.FPS, seed)
			if err != nil {
				return fmt.Errorf("snapshot classify: %w", err)
			}
			img := renderImage(view, res, conf.Render.DrawnEyes, width, height, assets)
			dir, err := orchestrator.Persist(out, text, view, res, img)
			if err != nil {
				return err
			}
			entry.WithFields(logrus.Fields{"dir": dir, "emotion": res.Emotion, "intensity": res.Intensity}).Info("snapshot written")
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&text, "text", "", "text to classify (or pass it as arguments)")
	f.IntVar(&frames, "frames", 30, "frames to advance after the result")
	f.StringVar(&out, "out", "outputs", "directory the snapshot folder is created in")
	f.Int64Var(&seed, "seed", 1, "seed for particles and blinking")
	f.IntVar(&width, "width", 640, "image width")
	f.IntVar(&height, "height", 320, "image height")
	f.BoolVar(&remote, "remote", false, "use services.classifier instead of the built-in classifier")
	return cmd
}
