// Package classifier implements a multinomial naive bayes text classifier
// with Laplace smoothing.
//
// A Model is fit once from labelled documents and is read-only afterwards, so
// a single Model can serve any number of concurrent Predict calls.
package classifier

import (
	"math"

	"spamfilter/corpus"

	"github.com/pkg/errors"
)

const DefaultAlpha = 1.0

var ErrInvalidInput = errors.New("invalid input")

// Model holds class priors and smoothed per-word likelihoods.
type Model struct {
	table *FrequencyTable
	alpha float64

	prior         []float64   // [class]
	logPrior      []float64   // [class]
	likelihood    [][]float64 // [class][word index]
	logLikelihood [][]float64 // [class][word index]
}

func checkAlpha(alpha float64) error {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) || alpha <= 0 {
		return errors.Wrapf(ErrInvalidInput, "smoothing alpha must be positive and finite, got %v", alpha)
	}

	return nil
}

// Fit trains a model on docs. If classes is nil, the distinct document labels
// are used, see DefaultClasses. The order of classes decides exact ties, see
// Classify.
func Fit(docs []corpus.Document, classes []corpus.Label, alpha float64) (*Model, error) {
	err := checkAlpha(alpha)
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "empty training set")
	}

	samples, err := Samples(docs)
	if err != nil {
		return nil, err
	}

	if classes == nil {
		classes = DefaultClasses(docs)
	}

	table, err := BuildFrequencyTable(samples, BuildVocabulary(samples), classes)
	if err != nil {
		return nil, err
	}

	return FitTable(table, alpha)
}

// DefaultClasses returns the distinct labels of docs in sorted order, except
// that corpus.Spam goes first when present. With the usual spam and ham
// labels an exact tie therefore goes to ham.
func DefaultClasses(docs []corpus.Document) []corpus.Label {
	labels := corpus.Labels(docs)

	for i, l := range labels {
		if l != corpus.Spam {
			continue
		}

		copy(labels[1:i+1], labels[:i])
		labels[0] = corpus.Spam

		break
	}

	return labels
}

// FitTable computes priors and likelihoods from an already built frequency table.
func FitTable(t *FrequencyTable, alpha float64) (*Model, error) {
	err := checkAlpha(alpha)
	if err != nil {
		return nil, err
	}

	n := t.documentTotal()
	if n == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "empty training set")
	}

	m := &Model{
		table:         t,
		alpha:         alpha,
		prior:         make([]float64, len(t.classes)),
		logPrior:      make([]float64, len(t.classes)),
		likelihood:    make([][]float64, len(t.classes)),
		logLikelihood: make([][]float64, len(t.classes)),
	}

	vocabSize := float64(t.vocab.Len())

	for c := range t.classes {
		m.prior[c] = float64(t.docs[c]) / float64(n)
		m.logPrior[c] = math.Log(m.prior[c])

		denom := float64(t.totals[c]) + alpha*vocabSize

		m.likelihood[c] = make([]float64, t.vocab.Len())
		m.logLikelihood[c] = make([]float64, t.vocab.Len())

		for w, count := range t.counts[c] {
			p := (float64(count) + alpha) / denom

			m.likelihood[c][w] = p
			m.logLikelihood[c][w] = math.Log(p)
		}
	}

	return m, nil
}

func (m *Model) Alpha() float64 {
	return m.alpha
}

func (m *Model) Classes() []corpus.Label {
	return m.table.Classes()
}

func (m *Model) Vocabulary() *Vocabulary {
	return m.table.vocab
}

func (m *Model) Table() *FrequencyTable {
	return m.table
}

// Prior returns P(class), or 0 for a class the model does not know.
func (m *Model) Prior(class corpus.Label) float64 {
	c, ok := m.table.index(class)
	if !ok {
		return 0
	}

	return m.prior[c]
}

// Likelihood returns the smoothed P(word|class). The second return value is
// false if word is not in the vocabulary or class is unknown.
func (m *Model) Likelihood(class corpus.Label, word string) (float64, bool) {
	c, ok := m.table.index(class)
	if !ok {
		return 0, false
	}

	w, ok := m.table.vocab.Index(word)
	if !ok {
		return 0, false
	}

	return m.likelihood[c][w], true
}
