// Spamfilter is a naive bayes text classifier for short messages.
//
// Training reads a tab-separated corpus (`label<TAB>message` per line), holds
// out part of it for testing, and stores the word counts and the fitted model
// on disk. Classification reads a message from the command line or standard
// input and prints its label.
//
// Diagnostic messages will be written to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"spamfilter/classifier"
	"spamfilter/corpus"
	"spamfilter/counts"
	"spamfilter/logger"
	"spamfilter/registry"
	"spamfilter/tokenize"

	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	v   *viper.Viper
	cfg config
	log *logger.Logger

	configPath string
	profileDir string
	profiler   interface{ Stop() }
}

// train splits c, fits a model on the training part and evaluates it on the
// held out part.
func train(ctx context.Context, c corpus.Corpus, cfg config) (*classifier.Model, classifier.Report, error) {
	p, err := c.Split(cfg.SplitSeed, cfg.SplitRatio)
	if err != nil {
		return nil, classifier.Report{}, errors.Wrap(err, "splitting corpus")
	}

	m, err := classifier.Fit(p.Training, cfg.Classes, cfg.Alpha)
	if err != nil {
		return nil, classifier.Report{}, errors.Wrap(err, "fitting model")
	}

	report, err := classifier.Evaluate(ctx, m, p.Test, cfg.Workers)
	if err != nil {
		return nil, classifier.Report{}, errors.Wrap(err, "evaluating model")
	}

	return m, report, nil
}

// classify reads a message from in and writes its label to out. With
// verbose, per-class probabilities are written as well.
func classify(in io.Reader, m *classifier.Model, out io.Writer, verbose bool) (classifier.ClassificationResult, error) {
	tokens, err := tokenize.Tokens(in)
	if err != nil {
		return classifier.ClassificationResult{}, errors.Wrap(err, "reading message")
	}

	res := m.ClassifyTokens(tokens)

	if verbose {
		_, err = fmt.Fprintln(out, res)
	} else {
		_, err = fmt.Fprintln(out, res.Label)
	}

	if err != nil {
		return res, errors.Wrap(err, "writing verdict")
	}

	return res, nil
}

func writeReport(out io.Writer, r classifier.Report, classes []corpus.Label) error {
	_, err := fmt.Fprintln(out, r)
	if err != nil {
		return errors.Wrap(err, "writing report")
	}

	for _, actual := range classes {
		for _, predicted := range classes {
			_, err = fmt.Fprintf(out, "%s\t%s\t%d\n", actual, predicted, r.Confusion[actual][predicted])
			if err != nil {
				return errors.Wrap(err, "writing confusion")
			}
		}
	}

	return nil
}

// saveModel persists the frequency table of m to the counts store and m
// itself to the registry.
func saveModel(cfg config, m *classifier.Model, saveTable bool) (registry.Record, error) {
	if saveTable {
		s, err := counts.Open(cfg.DBPath, true)
		if err != nil {
			return registry.Record{}, errors.Wrap(err, "opening counts store")
		}

		err = counts.SaveTable(s, m.Table())
		if err != nil {
			s.Close()
			return registry.Record{}, errors.Wrap(err, "saving frequency table")
		}

		err = s.Close()
		if err != nil {
			return registry.Record{}, errors.Wrap(err, "persisting counts store")
		}
	}

	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return registry.Record{}, err
	}
	defer reg.Close()

	return reg.Put(cfg.Model, m)
}

func loadModel(cfg config) (*classifier.Model, registry.Record, error) {
	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return nil, registry.Record{}, err
	}
	defer reg.Close()

	return reg.Get(cfg.Model)
}

func loadTable(cfg config) (*classifier.FrequencyTable, error) {
	s, err := counts.Open(cfg.DBPath, false)
	if err != nil {
		return nil, errors.Wrap(err, "opening counts store")
	}
	defer s.Close()

	return counts.LoadTable(s)
}

// flagKeys maps flag names of all commands to config keys. Flags are bound
// for the command being run only, since several commands share keys.
var flagKeys = map[string]string{
	"db":        "db",
	"registry":  "registry",
	"model":     "model",
	"log-level": "log.level",
	"alpha":     "alpha",
	"classes":   "classes",
	"ratio":     "split.ratio",
	"seed":      "split.seed",
	"workers":   "workers",
	"addr":      "addr",
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	err := bindFlags(a.v, cmd.Flags(), flagKeys)
	if err != nil {
		return err
	}

	err = readConfigFile(a.v, a.configPath)
	if err != nil {
		return err
	}

	a.cfg, err = loadConfig(a.v)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	level, ok := logger.ParseLevel(a.cfg.LogLevel)
	a.log.SetLevel(level)
	if !ok {
		a.log.Warnf("unknown log level %q, using %s", a.cfg.LogLevel, level)
	}

	if a.profileDir != "" {
		a.profiler = profile.Start(profile.ProfilePath(a.profileDir), profile.Quiet)
		a.log.Infof("writing cpu profile to %s", a.profileDir)
	}

	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) {
	if a.profiler != nil {
		a.profiler.Stop()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{
		v:   newViper(),
		log: logger.New(logger.LevelInfo),
	}

	root := &cobra.Command{
		Use:               "spamfilter",
		Short:             "Naive bayes classifier for short text messages",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default spamfilter.yaml in ~/.spamfilter or .)")
	flags.StringVar(&a.profileDir, "profile", "", "write a cpu profile to this directory")
	flags.String("db", "", "path to the word counts store")
	flags.String("registry", "", "path to the model registry")
	flags.StringP("model", "m", "", "model name in the registry")
	flags.String("log-level", "", "one of [debug, info, warning, error]")

	root.AddCommand(
		a.trainCmd(),
		a.refitCmd(),
		a.classifyCmd(),
		a.evaluateCmd(),
		a.dumpCmd(),
		a.modelsCmd(),
		a.serveCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
