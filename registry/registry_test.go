package registry

import (
	"testing"

	"spamfilter/classifier"
	"spamfilter/corpus"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel(t *testing.T, alpha float64) *classifier.Model {
	t.Helper()

	docs := []corpus.Document{
		{Label: corpus.Spam, Text: "win money now"},
		{Label: corpus.Ham, Text: "call you later"},
		{Label: corpus.Spam, Text: "win free prize"},
		{Label: corpus.Ham, Text: "see you later"},
	}

	m, err := classifier.Fit(docs, []corpus.Label{corpus.Spam, corpus.Ham}, alpha)
	require.NoError(t, err)

	return m
}

func TestRegistry_PutGet(t *testing.T) {
	path := t.TempDir()

	r, err := Open(path)
	require.NoError(t, err)

	m := testModel(t, 1)

	rec, err := r.Put("sms", m)
	require.NoError(t, err)
	assert.Equal(t, "sms", rec.Name)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 9, rec.Vocabulary)

	require.NoError(t, r.Close())

	// Reopen, the model must survive
	r, err = Open(path)
	require.NoError(t, err)
	defer r.Close()

	got, gotRec, err := r.Get("sms")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, gotRec.ID)
	assert.True(t, rec.CreatedAt.Equal(gotRec.CreatedAt))

	for _, text := range []string{"win money", "see you later", "nothing known"} {
		assert.Equal(t, m.Classify(text), got.Classify(text), "text %q", text)
	}
}

func TestRegistry_Replace(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Put("sms", testModel(t, 1))
	require.NoError(t, err)

	second, err := r.Put("sms", testModel(t, 0.5))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	m, rec, err := r.Get("sms")
	require.NoError(t, err)
	assert.Equal(t, second.ID, rec.ID)
	assert.Equal(t, 0.5, m.Alpha())
}

func TestRegistry_ListDelete(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)
	defer r.Close()

	for _, name := range []string{"b", "a", "c"} {
		_, err := r.Put(name, testModel(t, 1))
		require.NoError(t, err)
	}

	records, err := r.List()
	require.NoError(t, err)

	var names []string
	for _, rec := range records {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)

	require.NoError(t, r.Delete("b"))

	_, _, err = r.Get("b")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)

	err = r.Delete("b")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestRegistry_EmptyName(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Put("", testModel(t, 1))
	assert.Error(t, err)
}
