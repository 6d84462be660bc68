package classifier

import (
	"fmt"
	"math"
	"strings"

	"spamfilter/corpus"
	"spamfilter/tokenize"

	"gonum.org/v1/gonum/floats"
)

type ClassScore struct {
	Label corpus.Label `json:"label"`

	// LogScore is log P(class) plus the log likelihoods of all known tokens.
	// It is -Inf for a class without training documents.
	LogScore float64 `json:"-"`

	// Probability is the posterior P(class|text) among the model's classes.
	Probability float64 `json:"probability"`
}

type ClassificationResult struct {
	Label  corpus.Label `json:"label"`
	Score  float64      `json:"score"` // posterior probability of Label
	Scores []ClassScore `json:"scores"`
	Known  int          `json:"known_tokens"`
	Tokens int          `json:"tokens"`
}

func (r ClassificationResult) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "label=%q, score=%.6f, known=%d/%d", r.Label, r.Score, r.Known, r.Tokens)
	for _, s := range r.Scores {
		fmt.Fprintf(&sb, ", p(%s)=%.6f", s.Label, s.Probability)
	}

	return sb.String()
}

// Predict returns the most likely class for text.
func (m *Model) Predict(text string) corpus.Label {
	return m.ClassifyTokens(tokenize.Tokenize(text)).Label
}

func (m *Model) Classify(text string) ClassificationResult {
	return m.ClassifyTokens(tokenize.Tokenize(text))
}

// ClassifyTokens scores already tokenized text. Tokens outside the vocabulary
// are skipped and favor no class.
//
// Classes are compared in model order and a later class wins when its score
// is greater than or equal to the best so far: on an exact tie, the class
// listed last is chosen.
func (m *Model) ClassifyTokens(tokens []string) ClassificationResult {
	classes := m.table.classes

	logScores := make([]float64, len(classes))
	copy(logScores, m.logPrior)

	known := 0
	for _, tok := range tokens {
		w, ok := m.table.vocab.Index(tok)
		if !ok {
			continue
		}

		known++

		for c := range classes {
			logScores[c] += m.logLikelihood[c][w]
		}
	}

	best := 0
	for c := 1; c < len(classes); c++ {
		if logScores[c] >= logScores[best] {
			best = c
		}
	}

	norm := floats.LogSumExp(logScores)

	result := ClassificationResult{
		Label:  classes[best],
		Scores: make([]ClassScore, len(classes)),
		Known:  known,
		Tokens: len(tokens),
	}

	for c, class := range classes {
		p := math.Exp(logScores[c] - norm)

		result.Scores[c] = ClassScore{
			Label:       class,
			LogScore:    logScores[c],
			Probability: p,
		}
	}

	result.Score = result.Scores[best].Probability

	return result
}
