// Package registry keeps fitted models by name in a bitcask key/value store.
package registry

import (
	"sort"
	"time"

	"spamfilter/classifier"

	"github.com/google/uuid"
	jsoniterator "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prologic/bitcask"
)

const maxValueSize = 1 << 28

var (
	ErrNotFound = errors.New("model not found")

	json = jsoniterator.ConfigCompatibleWithStandardLibrary
)

// Record describes a stored model.
type Record struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	Alpha      float64   `json:"alpha"`
	Vocabulary int       `json:"vocabulary"`
}

type entry struct {
	Record
	Model jsoniterator.RawMessage `json:"model"`
}

type Registry struct {
	db *bitcask.Bitcask
}

func Open(path string) (*Registry, error) {
	db, err := bitcask.Open(path, bitcask.WithMaxValueSize(maxValueSize))
	if err != nil {
		return nil, errors.Wrapf(err, "opening registry at %s", path)
	}

	return &Registry{db: db}, nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

// Put stores m under name, replacing any earlier model with that name.
func (r *Registry) Put(name string, m *classifier.Model) (Record, error) {
	if name == "" {
		return Record{}, errors.New("empty model name")
	}

	data, err := m.Encode()
	if err != nil {
		return Record{}, err
	}

	e := entry{
		Record: Record{
			ID:         uuid.New().String(),
			Name:       name,
			CreatedAt:  time.Now().UTC(),
			Alpha:      m.Alpha(),
			Vocabulary: m.Vocabulary().Len(),
		},
		Model: data,
	}

	value, err := json.Marshal(e)
	if err != nil {
		return Record{}, errors.Wrapf(err, "encoding entry %q", name)
	}

	err = r.db.Put([]byte(name), value)
	if err != nil {
		return Record{}, errors.Wrapf(err, "storing model %q", name)
	}

	err = r.db.Sync()
	if err != nil {
		return Record{}, errors.Wrap(err, "syncing registry")
	}

	return e.Record, nil
}

func (r *Registry) get(name string) (entry, error) {
	var e entry

	value, err := r.db.Get([]byte(name))
	if errors.Is(err, bitcask.ErrKeyNotFound) {
		return e, errors.Wrapf(ErrNotFound, "%q", name)
	}
	if err != nil {
		return e, errors.Wrapf(err, "reading model %q", name)
	}

	err = json.Unmarshal(value, &e)
	if err != nil {
		return e, errors.Wrapf(err, "decoding entry %q", name)
	}

	return e, nil
}

// Get returns the model stored under name.
func (r *Registry) Get(name string) (*classifier.Model, Record, error) {
	e, err := r.get(name)
	if err != nil {
		return nil, Record{}, err
	}

	m, err := classifier.DecodeModel(e.Model)
	if err != nil {
		return nil, Record{}, errors.Wrapf(err, "model %q", name)
	}

	return m, e.Record, nil
}

// List returns the records of all stored models, sorted by name.
func (r *Registry) List() ([]Record, error) {
	var names []string
	for k := range r.db.Keys() {
		names = append(names, string(k))
	}

	sort.Strings(names)

	records := make([]Record, 0, len(names))
	for _, name := range names {
		e, err := r.get(name)
		if err != nil {
			return nil, err
		}

		records = append(records, e.Record)
	}

	return records, nil
}

func (r *Registry) Delete(name string) error {
	if !r.db.Has([]byte(name)) {
		return errors.Wrapf(ErrNotFound, "%q", name)
	}

	err := r.db.Delete([]byte(name))
	if err != nil {
		return errors.Wrapf(err, "deleting model %q", name)
	}

	return nil
}
