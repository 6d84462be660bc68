package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"spamfilter/classifier"
	"spamfilter/corpus"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type config struct {
	Alpha      float64
	Classes    []corpus.Label
	SplitRatio float64
	SplitSeed  int64

	Model        string
	DBPath       string
	RegistryPath string

	LogLevel string
	Addr     string
	Workers  int
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".spamfilter"
	}

	return filepath.Join(home, ".spamfilter")
}

// newViper returns a viper instance with defaults and environment lookup set up.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("alpha", classifier.DefaultAlpha)
	v.SetDefault("classes", []string{string(corpus.Spam), string(corpus.Ham)})
	v.SetDefault("split.ratio", 0.8)
	v.SetDefault("split.seed", 1)
	v.SetDefault("model", "default")
	v.SetDefault("db", filepath.Join(dataDir(), "counts"))
	v.SetDefault("registry", filepath.Join(dataDir(), "models"))
	v.SetDefault("log.level", "info")
	v.SetDefault("addr", "127.0.0.1:8025")
	v.SetDefault("workers", 0)

	v.SetEnvPrefix("spamfilter")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// bindFlags binds flags to config keys. Flag names map to keys unless
// overridden in keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	var err error

	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}

		key, ok := keys[f.Name]
		if !ok {
			return
		}

		err = v.BindPFlag(key, f)
	})

	return errors.Wrap(err, "binding flags")
}

// readConfigFile reads path, or spamfilter.yaml from the data or working
// directory if path is empty. A missing default file is not an error.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("spamfilter")
		v.SetConfigType("yaml")
		v.AddConfigPath(dataDir())
		v.AddConfigPath(".")
	}

	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if path == "" && errors.As(err, &notFound) {
		return nil
	}

	if err != nil {
		return errors.Wrap(err, "reading config file")
	}

	return nil
}

func loadConfig(v *viper.Viper) (config, error) {
	cfg := config{
		Alpha:        v.GetFloat64("alpha"),
		SplitRatio:   v.GetFloat64("split.ratio"),
		SplitSeed:    v.GetInt64("split.seed"),
		Model:        v.GetString("model"),
		DBPath:       v.GetString("db"),
		RegistryPath: v.GetString("registry"),
		LogLevel:     v.GetString("log.level"),
		Addr:         v.GetString("addr"),
		Workers:      v.GetInt("workers"),
	}

	for _, c := range v.GetStringSlice("classes") {
		c = strings.TrimSpace(c)
		if c != "" {
			cfg.Classes = append(cfg.Classes, corpus.Label(c))
		}
	}

	if math.IsNaN(cfg.Alpha) || cfg.Alpha <= 0 {
		return cfg, errors.Errorf("alpha must be positive, got %v", cfg.Alpha)
	}

	if cfg.SplitRatio <= 0 || cfg.SplitRatio > 1 {
		return cfg, errors.Errorf("split.ratio out of (0, 1]: %v", cfg.SplitRatio)
	}

	if len(cfg.Classes) < 2 {
		return cfg, errors.Errorf("need at least two classes, got %v", cfg.Classes)
	}

	if cfg.Model == "" {
		return cfg, errors.New("empty model name")
	}

	return cfg, nil
}
