package counts

import (
	"sort"

	"spamfilter/classifier"
	"spamfilter/corpus"

	"github.com/pkg/errors"
)

// Buckets used to persist a frequency table.
const (
	bucketClasses   = "classes"   // class -> 1-based position
	bucketDocuments = "documents" // class -> number of documents
	bucketWords     = "words:"    // prefix, one bucket per class: word -> count
)

var ErrNoTable = errors.New("no frequency table stored")

// SaveTable replaces the contents of s with t.
func SaveTable(s *Store, t *classifier.FrequencyTable) error {
	err := s.Truncate()
	if err != nil {
		return errors.Wrap(err, "truncating store")
	}

	cs := t.Counts()

	for i, class := range t.Classes() {
		err = s.Inc(bucketClasses, string(class), i+1)
		if err != nil {
			return errors.Wrapf(err, "storing class %q", class)
		}

		err = s.Inc(bucketDocuments, string(class), cs.Documents[class])
		if err != nil {
			return errors.Wrapf(err, "storing document count of %q", class)
		}

		for w, n := range cs.Words[class] {
			err = s.Inc(bucketWords+string(class), w, n)
			if err != nil {
				return errors.Wrapf(err, "storing count of %q in %q", w, class)
			}
		}
	}

	return nil
}

// LoadTable restores the frequency table stored in s.
func LoadTable(s *Store) (*classifier.FrequencyTable, error) {
	positions, err := s.Bucket(bucketClasses)
	if err != nil {
		return nil, errors.Wrap(err, "loading classes")
	}

	if len(positions) == 0 {
		return nil, ErrNoTable
	}

	classes := make([]corpus.Label, 0, len(positions))
	for class := range positions {
		classes = append(classes, corpus.Label(class))
	}

	sort.Slice(classes, func(i, j int) bool {
		return positions[string(classes[i])] < positions[string(classes[j])]
	})

	docs, err := s.Bucket(bucketDocuments)
	if err != nil {
		return nil, errors.Wrap(err, "loading document counts")
	}

	cs := classifier.Counts{
		Documents: make(map[corpus.Label]int, len(classes)),
		Words:     make(map[corpus.Label]map[string]int, len(classes)),
	}

	for _, class := range classes {
		cs.Documents[class] = docs[string(class)]

		words, err := s.Bucket(bucketWords + string(class))
		if err != nil {
			return nil, errors.Wrapf(err, "loading word counts of %q", class)
		}

		cs.Words[class] = words
	}

	t, err := classifier.TableFromCounts(classes, cs)
	if err != nil {
		return nil, errors.Wrap(err, "restoring frequency table")
	}

	return t, nil
}
