// Package corpus holds labelled text messages and the deterministic
// training/test split used to fit and evaluate a classifier.
package corpus

import (
	"bufio"
	"io"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var ErrMalformed = errors.New("malformed document")

type Label string

const (
	Spam Label = "spam"
	Ham  Label = "ham"
)

// Document is a single message with its ground-truth label.
type Document struct {
	Label Label
	Text  string
}

func (d Document) Validate() error {
	if d.Label == "" {
		return errors.Wrap(ErrMalformed, "missing label")
	}

	if d.Text == "" {
		return errors.Wrapf(ErrMalformed, "missing text for label %q", d.Label)
	}

	return nil
}

// Corpus is an ordered, immutable sequence of documents.
type Corpus struct {
	docs []Document
}

func New(docs []Document) Corpus {
	c := Corpus{
		docs: make([]Document, len(docs)),
	}
	copy(c.docs, docs)

	return c
}

func (c Corpus) Len() int {
	return len(c.docs)
}

// Documents returns a copy of the documents in c.
func (c Corpus) Documents() []Document {
	docs := make([]Document, len(c.docs))
	copy(docs, c.docs)

	return docs
}

type Partition struct {
	Training []Document
	Test     []Document
}

// Split shuffles a copy of c with a source seeded by seed and cuts it at
// floor(ratio * len). The same seed always produces the same partition.
func (c Corpus) Split(seed int64, ratio float64) (Partition, error) {
	if math.IsNaN(ratio) || ratio <= 0 || ratio > 1 {
		return Partition{}, errors.Errorf("split ratio out of (0, 1]: %f", ratio)
	}

	docs := c.Documents()

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(docs), func(i, j int) {
		docs[i], docs[j] = docs[j], docs[i]
	})

	cut := int(math.Floor(float64(len(docs)) * ratio))

	return Partition{
		Training: docs[:cut:cut],
		Test:     docs[cut:],
	}, nil
}

// Load reads tab-separated `label<TAB>text` lines from r. Blank lines are skipped.
func Load(r io.Reader) (Corpus, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		docs []Document
		line int
	)

	for scanner.Scan() {
		line++

		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		idx := strings.IndexByte(text, '\t')
		if idx < 0 {
			return Corpus{}, errors.Wrapf(ErrMalformed, "line %d: no tab separator", line)
		}

		doc := Document{
			Label: Label(strings.TrimSpace(text[:idx])),
			Text:  text[idx+1:],
		}

		err := doc.Validate()
		if err != nil {
			return Corpus{}, errors.Wrapf(err, "line %d", line)
		}

		docs = append(docs, doc)
	}

	if err := scanner.Err(); err != nil {
		return Corpus{}, errors.Wrap(err, "reading corpus")
	}

	return Corpus{docs: docs}, nil
}

// Labels returns the distinct labels of docs in sorted order.
func Labels(docs []Document) []Label {
	seen := make(map[Label]struct{})
	for _, d := range docs {
		seen[d.Label] = struct{}{}
	}

	labels := make([]Label, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}

	sort.Slice(labels, func(i, j int) bool {
		return labels[i] < labels[j]
	})

	return labels
}
