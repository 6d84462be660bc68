package corpus

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocuments(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		label := Ham
		if i%3 == 0 {
			label = Spam
		}

		docs[i] = Document{
			Label: label,
			Text:  strings.Repeat("x", i+1),
		}
	}

	return docs
}

func TestDocument_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{name: "ok", doc: Document{Label: Spam, Text: "win"}},
		{name: "missing label", doc: Document{Text: "win"}, wantErr: true},
		{name: "missing text", doc: Document{Label: Ham}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.doc.Validate()
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}

			assert.True(t, errors.Is(err, ErrMalformed), "expected ErrMalformed, got %v", err)
		})
	}
}

func TestCorpus_Split(t *testing.T) {
	c := New(testDocuments(11))

	p, err := c.Split(1, 0.8)
	require.NoError(t, err)

	// floor(0.8 * 11) == 8
	assert.Len(t, p.Training, 8)
	assert.Len(t, p.Test, 3)

	again, err := c.Split(1, 0.8)
	require.NoError(t, err)
	assert.Equal(t, p, again, "same seed must give same partition")

	// Every document ends up in exactly one half
	seen := make(map[string]int)
	for _, d := range append(append([]Document{}, p.Training...), p.Test...) {
		seen[d.Text]++
	}
	assert.Len(t, seen, 11)
	for text, n := range seen {
		assert.Equal(t, 1, n, "document %q seen %d times", text, n)
	}

	// The corpus itself is not reordered
	assert.Equal(t, testDocuments(11), c.Documents())
}

func TestCorpus_SplitRatio(t *testing.T) {
	c := New(testDocuments(5))

	for _, ratio := range []float64{0, -0.5, 1.5} {
		_, err := c.Split(1, ratio)
		assert.Error(t, err, "ratio %f", ratio)
	}

	p, err := c.Split(7, 1)
	require.NoError(t, err)
	assert.Len(t, p.Training, 5)
	assert.Empty(t, p.Test)
}

func TestLoad(t *testing.T) {
	in := "ham\tGo until jurong point, crazy..\r\n" +
		"\n" +
		"spam\tFree entry in 2 a wkly comp\twith a tab\n" +
		"ham\tOk lar...\n"

	c, err := Load(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []Document{
		{Label: Ham, Text: "Go until jurong point, crazy.."},
		{Label: Spam, Text: "Free entry in 2 a wkly comp\twith a tab"},
		{Label: Ham, Text: "Ok lar..."},
	}, c.Documents())
}

func TestLoad_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		in   string
	}{
		{name: "no tab", in: "ham\tok\nspam no tab here\n"},
		{name: "empty label", in: "\tsome text\n"},
		{name: "empty text", in: "spam\t\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.in))
			assert.True(t, errors.Is(err, ErrMalformed), "expected ErrMalformed, got %v", err)
		})
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []Label{Ham, Spam}, Labels(testDocuments(4)))
	assert.Empty(t, Labels(nil))
}
