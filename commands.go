package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"spamfilter/classifier"
	"spamfilter/corpus"
	"spamfilter/logger"
	"spamfilter/registry"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// openInput returns the file named by args, or stdin.
func openInput(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	fh, err := os.Open(args[0])
	if err != nil {
		return nil, errors.Wrap(err, "opening input")
	}

	return fh, nil
}

func loadCorpus(args []string) (corpus.Corpus, error) {
	in, err := openInput(args)
	if err != nil {
		return corpus.Corpus{}, err
	}
	defer in.Close()

	return corpus.Load(in)
}

func (a *app) trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train [corpus.tsv]",
		Short: "Fit a model on a labelled corpus and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCorpus(args)
			if err != nil {
				return err
			}

			a.log.Infof("loaded %d documents", c.Len())

			m, report, err := train(cmd.Context(), c, a.cfg)
			if err != nil {
				return err
			}

			a.log.Infof("fitted %d words over classes %v", m.Vocabulary().Len(), m.Classes())

			rec, err := saveModel(a.cfg, m, true)
			if err != nil {
				return err
			}

			a.log.Infof("stored model %q (%s)", rec.Name, rec.ID)

			return writeReport(cmd.OutOrStdout(), report, m.Classes())
		},
	}

	flags := cmd.Flags()
	flags.Float64("alpha", 0, "laplace smoothing factor")
	flags.StringSlice("classes", nil, "class labels; on an exact tie the last one wins")
	flags.Float64("ratio", 0, "share of the corpus used for training")
	flags.Int64("seed", 0, "shuffle seed for the training/test split")
	flags.Int("workers", 0, "parallel evaluation workers (0: one per cpu)")

	return cmd
}

func (a *app) refitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refit",
		Short: "Fit a model from the stored word counts with a new smoothing factor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTable(a.cfg)
			if err != nil {
				return err
			}

			m, err := classifier.FitTable(t, a.cfg.Alpha)
			if err != nil {
				return errors.Wrap(err, "fitting model")
			}

			rec, err := saveModel(a.cfg, m, false)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\talpha=%g\n", rec.Name, rec.ID, rec.Alpha)
			return err
		},
	}

	cmd.Flags().Float64("alpha", 0, "laplace smoothing factor")

	return cmd
}

func (a *app) classifyCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify a message given as arguments or on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadModel(a.cfg)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) > 0 {
				in = strings.NewReader(strings.Join(args, " "))
			}

			res, err := classify(in, m, cmd.OutOrStdout(), verbose)
			if err != nil {
				return err
			}

			a.log.Debugf("classified: %s", res)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print class probabilities")

	return cmd
}

func (a *app) evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [corpus.tsv]",
		Short: "Report the accuracy of a stored model on a labelled corpus",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadModel(a.cfg)
			if err != nil {
				return err
			}

			c, err := loadCorpus(args)
			if err != nil {
				return err
			}

			report, err := classifier.Evaluate(cmd.Context(), m, c.Documents(), a.cfg.Workers)
			if err != nil {
				return errors.Wrap(err, "evaluating model")
			}

			return writeReport(cmd.OutOrStdout(), report, m.Classes())
		},
	}

	return cmd
}

// dump writes one line per vocabulary word: the word, its count per class and
// its likelihood per class.
func dump(out io.Writer, m *classifier.Model) error {
	w := tabwriter.NewWriter(out, 0, 8, 1, ' ', 0)

	classes := m.Classes()
	t := m.Table()

	header := []string{"word"}
	for _, c := range classes {
		header = append(header, "n("+string(c)+")")
	}
	for _, c := range classes {
		header = append(header, "p(w|"+string(c)+")")
	}

	_, err := fmt.Fprintln(w, strings.Join(header, "\t"))
	if err != nil {
		return errors.Wrap(err, "writing header")
	}

	for _, word := range m.Vocabulary().Words() {
		fields := []string{word}

		for _, c := range classes {
			fields = append(fields, fmt.Sprint(t.Count(c, word)))
		}

		for _, c := range classes {
			p, _ := m.Likelihood(c, word)
			fields = append(fields, fmt.Sprintf("%.6g", p))
		}

		_, err = fmt.Fprintln(w, strings.Join(fields, "\t"))
		if err != nil {
			return errors.Wrap(err, "writing output line")
		}
	}

	return w.Flush()
}

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Dump stored word counts and likelihoods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTable(a.cfg)
			if err != nil {
				return err
			}

			m, err := classifier.FitTable(t, a.cfg.Alpha)
			if err != nil {
				return errors.Wrap(err, "fitting model")
			}

			return dump(cmd.OutOrStdout(), m)
		},
	}
}

func listModels(out io.Writer, records []registry.Record) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	_, err := fmt.Fprintln(w, "NAME\tID\tCREATED\tALPHA\tWORDS")
	if err != nil {
		return errors.Wrap(err, "writing header")
	}

	for _, r := range records {
		_, err = fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\n", r.Name, r.ID[:8], r.CreatedAt.Format("2006-01-02 15:04:05"), r.Alpha, r.Vocabulary)
		if err != nil {
			return errors.Wrapf(err, "writing model %s", r.Name)
		}
	}

	return errors.Wrap(w.Flush(), "flushing model list")
}

func (a *app) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Open(a.cfg.RegistryPath)
			if err != nil {
				return err
			}
			defer reg.Close()

			records, err := reg.List()
			if err != nil {
				return err
			}

			return listModels(cmd.OutOrStdout(), records)
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve classifications over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, rec, err := loadModel(a.cfg)
			if err != nil {
				return err
			}

			if a.v.ConfigFileUsed() != "" {
				a.v.OnConfigChange(func(e fsnotify.Event) {
					level, ok := logger.ParseLevel(a.v.GetString("log.level"))
					if !ok {
						a.log.Warnf("config %s changed, ignoring unknown log level", e.Name)
						return
					}

					a.log.SetLevel(level)
					a.log.Infof("config %s changed, log level now %s", e.Name, level)
				})
				a.v.WatchConfig()
			}

			s := newServer(m, a.log)

			a.log.Infof("serving model %q (%s) on %s", rec.Name, rec.ID, a.cfg.Addr)

			return http.ListenAndServe(a.cfg.Addr, s.routes())
		},
	}

	cmd.Flags().StringP("addr", "a", "", "listening address")

	return cmd
}
