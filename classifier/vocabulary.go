package classifier

import (
	"sort"

	"spamfilter/corpus"
	"spamfilter/tokenize"

	"github.com/pkg/errors"
)

// Sample is a tokenized training document.
type Sample struct {
	Label  corpus.Label
	Tokens []string
}

// Samples validates and tokenizes docs.
func Samples(docs []corpus.Document) ([]Sample, error) {
	samples := make([]Sample, len(docs))

	for i, d := range docs {
		err := d.Validate()
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidInput, "document %d: %s", i, err)
		}

		samples[i] = Sample{
			Label:  d.Label,
			Tokens: tokenize.Tokenize(d.Text),
		}
	}

	return samples, nil
}

// Vocabulary is the set of tokens known to a model. Each word is interned to
// a dense index; indices follow the sorted order of the words.
type Vocabulary struct {
	words []string
	index map[string]int
}

func newVocabulary(words []string) *Vocabulary {
	sort.Strings(words)

	v := &Vocabulary{
		words: words,
		index: make(map[string]int, len(words)),
	}

	for i, w := range words {
		v.index[w] = i
	}

	return v
}

// BuildVocabulary returns the union of all tokens in samples.
func BuildVocabulary(samples []Sample) *Vocabulary {
	seen := make(map[string]struct{})
	for _, s := range samples {
		for _, tok := range s.Tokens {
			seen[tok] = struct{}{}
		}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}

	return newVocabulary(words)
}

func (v *Vocabulary) Len() int {
	return len(v.words)
}

func (v *Vocabulary) Index(word string) (int, bool) {
	i, ok := v.index[word]
	return i, ok
}

func (v *Vocabulary) Contains(word string) bool {
	_, ok := v.index[word]
	return ok
}

// Words returns the vocabulary in index order.
func (v *Vocabulary) Words() []string {
	words := make([]string, len(v.words))
	copy(words, v.words)

	return words
}
