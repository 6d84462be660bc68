package classifier

import (
	"spamfilter/corpus"

	"github.com/pkg/errors"
)

// FrequencyTable holds, per class, how often each vocabulary word occurred in
// the training documents of that class.
type FrequencyTable struct {
	classes []corpus.Label
	vocab   *Vocabulary

	docs   []int   // documents per class
	totals []int   // tokens per class (n_c)
	counts [][]int // [class][word index]
}

func classIndex(classes []corpus.Label) (map[corpus.Label]int, error) {
	if len(classes) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "no classes")
	}

	idx := make(map[corpus.Label]int, len(classes))
	for i, c := range classes {
		if c == "" {
			return nil, errors.Wrapf(ErrInvalidInput, "empty class at position %d", i)
		}

		if _, dup := idx[c]; dup {
			return nil, errors.Wrapf(ErrInvalidInput, "duplicate class %q", c)
		}

		idx[c] = i
	}

	return idx, nil
}

func newFrequencyTable(classes []corpus.Label, vocab *Vocabulary) *FrequencyTable {
	t := &FrequencyTable{
		classes: append([]corpus.Label(nil), classes...),
		vocab:   vocab,
		docs:    make([]int, len(classes)),
		totals:  make([]int, len(classes)),
		counts:  make([][]int, len(classes)),
	}

	for i := range t.counts {
		t.counts[i] = make([]int, vocab.Len())
	}

	return t
}

// BuildFrequencyTable counts word occurrences of samples per class. Every
// sample label must be one of classes.
func BuildFrequencyTable(samples []Sample, vocab *Vocabulary, classes []corpus.Label) (*FrequencyTable, error) {
	idx, err := classIndex(classes)
	if err != nil {
		return nil, err
	}

	t := newFrequencyTable(classes, vocab)

	for i, s := range samples {
		c, ok := idx[s.Label]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidInput, "sample %d: unknown class %q", i, s.Label)
		}

		t.docs[c]++

		for _, tok := range s.Tokens {
			w, ok := vocab.Index(tok)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidInput, "sample %d: token %q not in vocabulary", i, tok)
			}

			t.counts[c][w]++
			t.totals[c]++
		}
	}

	return t, nil
}

func (t *FrequencyTable) Classes() []corpus.Label {
	return append([]corpus.Label(nil), t.classes...)
}

func (t *FrequencyTable) Vocabulary() *Vocabulary {
	return t.vocab
}

func (t *FrequencyTable) index(class corpus.Label) (int, bool) {
	for i, c := range t.classes {
		if c == class {
			return i, true
		}
	}

	return 0, false
}

// Documents returns the number of training documents labelled class.
func (t *FrequencyTable) Documents(class corpus.Label) int {
	c, ok := t.index(class)
	if !ok {
		return 0
	}

	return t.docs[c]
}

// Total returns n_c, the number of tokens across all documents of class.
func (t *FrequencyTable) Total(class corpus.Label) int {
	c, ok := t.index(class)
	if !ok {
		return 0
	}

	return t.totals[c]
}

// Count returns how often word occurred in documents of class.
func (t *FrequencyTable) Count(class corpus.Label, word string) int {
	c, ok := t.index(class)
	if !ok {
		return 0
	}

	w, ok := t.vocab.Index(word)
	if !ok {
		return 0
	}

	return t.counts[c][w]
}

func (t *FrequencyTable) documentTotal() int {
	n := 0
	for _, d := range t.docs {
		n += d
	}

	return n
}

// Counts is the flat form of a FrequencyTable. Zero counts are omitted.
type Counts struct {
	Documents map[corpus.Label]int            `json:"documents"`
	Words     map[corpus.Label]map[string]int `json:"words"`
}

func (t *FrequencyTable) Counts() Counts {
	cs := Counts{
		Documents: make(map[corpus.Label]int, len(t.classes)),
		Words:     make(map[corpus.Label]map[string]int, len(t.classes)),
	}

	for c, class := range t.classes {
		cs.Documents[class] = t.docs[c]

		words := make(map[string]int)
		for w, n := range t.counts[c] {
			if n > 0 {
				words[t.vocab.words[w]] = n
			}
		}

		cs.Words[class] = words
	}

	return cs
}

// TableFromCounts restores a FrequencyTable. The vocabulary is every word
// with a positive count in some class, and n_c is re-derived from the counts.
func TableFromCounts(classes []corpus.Label, cs Counts) (*FrequencyTable, error) {
	idx, err := classIndex(classes)
	if err != nil {
		return nil, err
	}

	for class := range cs.Documents {
		if _, ok := idx[class]; !ok {
			return nil, errors.Wrapf(ErrInvalidInput, "document count for unknown class %q", class)
		}
	}

	seen := make(map[string]struct{})
	for class, words := range cs.Words {
		if _, ok := idx[class]; !ok {
			return nil, errors.Wrapf(ErrInvalidInput, "word counts for unknown class %q", class)
		}

		for w, n := range words {
			if n < 0 {
				return nil, errors.Wrapf(ErrInvalidInput, "negative count %d for %q in %q", n, w, class)
			}

			if n > 0 {
				seen[w] = struct{}{}
			}
		}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}

	t := newFrequencyTable(classes, newVocabulary(words))

	for class, c := range idx {
		n := cs.Documents[class]
		if n < 0 {
			return nil, errors.Wrapf(ErrInvalidInput, "negative document count %d for %q", n, class)
		}

		t.docs[c] = n

		for w, n := range cs.Words[class] {
			if n == 0 {
				continue
			}

			wi, _ := t.vocab.Index(w)
			t.counts[c][wi] = n
			t.totals[c] += n
		}
	}

	return t, nil
}
