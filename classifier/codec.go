package classifier

import (
	"spamfilter/corpus"

	jsoniterator "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniterator.ConfigCompatibleWithStandardLibrary

// encodedModel stores the counts a model was fit from, never the derived
// probabilities; decoding fits again.
type encodedModel struct {
	Alpha   float64        `json:"alpha"`
	Classes []corpus.Label `json:"classes"`
	Counts  Counts         `json:"counts"`
}

func (m *Model) Encode() ([]byte, error) {
	data, err := json.Marshal(encodedModel{
		Alpha:   m.alpha,
		Classes: m.table.Classes(),
		Counts:  m.table.Counts(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encoding model")
	}

	return data, nil
}

func DecodeModel(data []byte) (*Model, error) {
	var em encodedModel

	err := json.Unmarshal(data, &em)
	if err != nil {
		return nil, errors.Wrap(err, "decoding model")
	}

	t, err := TableFromCounts(em.Classes, em.Counts)
	if err != nil {
		return nil, errors.Wrap(err, "restoring frequency table")
	}

	m, err := FitTable(t, em.Alpha)
	if err != nil {
		return nil, errors.Wrap(err, "fitting decoded model")
	}

	return m, nil
}
