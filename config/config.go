package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Service struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}
type Services struct {
	Classifier   Service `yaml:"classifier" mapstructure:"classifier"`
	ASR          Service `yaml:"asr" mapstructure:"asr"`
	SpeechBridge Service `yaml:"speech_bridge" mapstructure:"speech_bridge"`
}
type Capture struct {
	// Backend is "websocket", "directory" or "none".
	Backend         string        `yaml:"backend" mapstructure:"backend"`
	Language        string        `yaml:"language" mapstructure:"language"`
	WatchDir        string        `yaml:"watch_dir" mapstructure:"watch_dir"`
	SettleDelay     time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	ErrorThreshold  int           `yaml:"error_threshold" mapstructure:"error_threshold"`
	BackoffFloor    time.Duration `yaml:"backoff_floor" mapstructure:"backoff_floor"`
	BackoffMax      time.Duration `yaml:"backoff_max" mapstructure:"backoff_max"`
	BackoffFactor   float64       `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	StartRetryDelay time.Duration `yaml:"start_retry_delay" mapstructure:"start_retry_delay"`
}
type Transition struct {
	Speed         float64        `yaml:"speed" mapstructure:"speed"`
	TimeBased     bool           `yaml:"time_based" mapstructure:"time_based"`
	Duration      time.Duration  `yaml:"duration" mapstructure:"duration"`
	Animate       bool           `yaml:"animate" mapstructure:"animate"`
	FrameInterval time.Duration  `yaml:"frame_interval" mapstructure:"frame_interval"`
	BurstSize     int            `yaml:"burst_size" mapstructure:"burst_size"`
	Decay         float64        `yaml:"decay" mapstructure:"decay"`
	PulseOpenness float64        `yaml:"pulse_openness" mapstructure:"pulse_openness"`
	PulseDuration time.Duration  `yaml:"pulse_duration" mapstructure:"pulse_duration"`
	BlinkOpenness float64        `yaml:"blink_openness" mapstructure:"blink_openness"`
	BlinkDuration time.Duration  `yaml:"blink_duration" mapstructure:"blink_duration"`
	BlinkMin      time.Duration  `yaml:"blink_min" mapstructure:"blink_min"`
	BlinkMax      time.Duration  `yaml:"blink_max" mapstructure:"blink_max"`
	Sequences     map[string]int `yaml:"sequences" mapstructure:"sequences"`
}
type Render struct {
	FPS       int    `yaml:"fps" mapstructure:"fps"`
	DrawnEyes bool   `yaml:"drawn_eyes" mapstructure:"drawn_eyes"`
	AssetDir  string `yaml:"asset_dir" mapstructure:"asset_dir"`
}
type Classifier struct {
	DiscardStale bool   `yaml:"discard_stale" mapstructure:"discard_stale"`
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
	Model        string `yaml:"model" mapstructure:"model"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
}
type Server struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}
type Logging struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}
type Metrics struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}
type Root struct {
	Session struct {
		Name    string `yaml:"name" mapstructure:"name"`
		Version string `yaml:"version" mapstructure:"version"`
	} `yaml:"session" mapstructure:"session"`
	Services   Services   `yaml:"services" mapstructure:"services"`
	Capture    Capture    `yaml:"capture" mapstructure:"capture"`
	Transition Transition `yaml:"transition" mapstructure:"transition"`
	Render     Render     `yaml:"render" mapstructure:"render"`
	Classifier Classifier `yaml:"classifier" mapstructure:"classifier"`
	Server     Server     `yaml:"server" mapstructure:"server"`
	Logging    Logging    `yaml:"logging" mapstructure:"logging"`
	Metrics    Metrics    `yaml:"metrics" mapstructure:"metrics"`
}

// Default carries the constants the eye was tuned with.
func Default() *Root {
	var c Root
	c.Session.Name = "listening-eye"
	c.Session.Version = "dev"
	c.Services = Services{
		Classifier:   Service{URL: "http://localhost:5000", Timeout: 30 * time.Second},
		ASR:          Service{URL: "http://localhost:8001", Timeout: 60 * time.Second},
		SpeechBridge: Service{URL: "ws://localhost:8002/recognize", Timeout: 10 * time.Second},
	}
	c.Capture = Capture{
		Backend:         "websocket",
		Language:        "en-US",
		SettleDelay:     500 * time.Millisecond,
		ErrorThreshold:  3,
		BackoffFloor:    time.Second,
		BackoffMax:      time.Second,
		BackoffFactor:   1,
		StartRetryDelay: time.Second,
	}
	c.Transition = Transition{
		Speed:         0.05,
		Duration:      time.Second,
		Animate:       true,
		FrameInterval: 150 * time.Millisecond,
		BurstSize:     15,
		Decay:         0.95,
		PulseOpenness: 1.5,
		PulseDuration: 300 * time.Millisecond,
		BlinkOpenness: 0.1,
		BlinkDuration: 200 * time.Millisecond,
		BlinkMin:      2 * time.Second,
		BlinkMax:      7 * time.Second,
		Sequences: map[string]int{
			"sad": 6, "neutral": 6, "joy": 1,
			"fear": 9, "anxiety": 9, "excitement": 9, "anger": 9,
		},
	}
	c.Render = Render{FPS: 60, DrawnEyes: true}
	c.Classifier = Classifier{Model: "gpt-4"}
	c.Server = Server{Addr: ":5000"}
	c.Logging = Logging{Level: "info", Format: "text", File: "eye.log"}
	return &c
}

// Guesses are the config files tried in order when no explicit path is given.
func Guesses() []string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return []string{
		filepath.Join("config", env, "config.yaml"),
		"eye.yaml",
	}
}

// Load reads path (or the first existing guess) over the defaults. Every key
// can be overridden with EYE_<SECTION>_<KEY>. A missing file is not an error.
func Load(path string) (*Root, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("EYE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path == "" {
		for _, p := range Guesses() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg := &Root{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that would break the capture or animation invariants.
func (c *Root) Validate() error {
	switch {
	case c.Capture.BackoffFloor <= 0:
		return errors.New("config: capture.backoff_floor must be positive")
	case c.Capture.StartRetryDelay <= 0:
		return errors.New("config: capture.start_retry_delay must be positive")
	case c.Capture.ErrorThreshold < 1:
		return errors.New("config: capture.error_threshold must be at least 1")
	case c.Transition.Speed <= 0 || c.Transition.Speed > 1:
		return errors.New("config: transition.speed must be in (0,1]")
	case c.Transition.Decay <= 0 || c.Transition.Decay >= 1:
		return errors.New("config: transition.decay must be in (0,1)")
	case c.Transition.BlinkMax <= c.Transition.BlinkMin:
		return errors.New("config: transition.blink_max must exceed blink_min")
	case c.Render.FPS <= 0:
		return errors.New("config: render.fps must be positive")
	}
	return nil
}

// Write dumps the effective configuration as YAML.
func (c *Root) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(c)
}

func setDefaults(v *viper.Viper, d *Root) {
	v.SetDefault("session.name", d.Session.Name)
	v.SetDefault("session.version", d.Session.Version)

	for key, s := range map[string]Service{
		"classifier":    d.Services.Classifier,
		"asr":           d.Services.ASR,
		"speech_bridge": d.Services.SpeechBridge,
	} {
		v.SetDefault("services."+key+".url", s.URL)
		v.SetDefault("services."+key+".timeout", s.Timeout)
	}

	v.SetDefault("capture.backend", d.Capture.Backend)
	v.SetDefault("capture.language", d.Capture.Language)
	v.SetDefault("capture.watch_dir", d.Capture.WatchDir)
	v.SetDefault("capture.settle_delay", d.Capture.SettleDelay)
	v.SetDefault("capture.error_threshold", d.Capture.ErrorThreshold)
	v.SetDefault("capture.backoff_floor", d.Capture.BackoffFloor)
	v.SetDefault("capture.backoff_max", d.Capture.BackoffMax)
	v.SetDefault("capture.backoff_factor", d.Capture.BackoffFactor)
	v.SetDefault("capture.start_retry_delay", d.Capture.StartRetryDelay)

	v.SetDefault("transition.speed", d.Transition.Speed)
	v.SetDefault("transition.time_based", d.Transition.TimeBased)
	v.SetDefault("transition.duration", d.Transition.Duration)
	v.SetDefault("transition.animate", d.Transition.Animate)
	v.SetDefault("transition.frame_interval", d.Transition.FrameInterval)
	v.SetDefault("transition.burst_size", d.Transition.BurstSize)
	v.SetDefault("transition.decay", d.Transition.Decay)
	v.SetDefault("transition.pulse_openness", d.Transition.PulseOpenness)
	v.SetDefault("transition.pulse_duration", d.Transition.PulseDuration)
	v.SetDefault("transition.blink_openness", d.Transition.BlinkOpenness)
	v.SetDefault("transition.blink_duration", d.Transition.BlinkDuration)
	v.SetDefault("transition.blink_min", d.Transition.BlinkMin)
	v.SetDefault("transition.blink_max", d.Transition.BlinkMax)
	v.SetDefault("transition.sequences", d.Transition.Sequences)

	v.SetDefault("render.fps", d.Render.FPS)
	v.SetDefault("render.drawn_eyes", d.Render.DrawnEyes)
	v.SetDefault("render.asset_dir", d.Render.AssetDir)

	v.SetDefault("classifier.discard_stale", d.Classifier.DiscardStale)
	v.SetDefault("classifier.api_key", d.Classifier.APIKey)
	v.SetDefault("classifier.model", d.Classifier.Model)
	v.SetDefault("classifier.base_url", d.Classifier.BaseURL)

	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("metrics.addr", d.Metrics.Addr)
}
