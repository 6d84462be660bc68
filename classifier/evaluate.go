package classifier

import (
	"context"
	"fmt"
	"runtime"

	"spamfilter/corpus"

	"golang.org/x/sync/errgroup"
)

// Report summarizes predictions over a labelled test set.
type Report struct {
	Total    int
	Correct  int
	Accuracy float64

	// Confusion counts documents by actual, then predicted label.
	Confusion map[corpus.Label]map[corpus.Label]int
}

func (r Report) String() string {
	return fmt.Sprintf("accuracy=%.4f (%d/%d)", r.Accuracy, r.Correct, r.Total)
}

// Evaluate predicts the label of every document in docs using up to workers
// goroutines. A non-positive workers uses GOMAXPROCS.
func Evaluate(ctx context.Context, m *Model, docs []corpus.Document, workers int) (Report, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	predicted := make([]corpus.Label, len(docs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i := range docs {
		i := i

		if egCtx.Err() != nil {
			break
		}

		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			predicted[i] = m.Predict(docs[i].Text)

			return nil
		})
	}

	err := eg.Wait()
	if err != nil {
		return Report{}, err
	}

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	r := Report{
		Total:     len(docs),
		Confusion: make(map[corpus.Label]map[corpus.Label]int),
	}

	for i, d := range docs {
		if r.Confusion[d.Label] == nil {
			r.Confusion[d.Label] = make(map[corpus.Label]int)
		}

		r.Confusion[d.Label][predicted[i]]++

		if predicted[i] == d.Label {
			r.Correct++
		}
	}

	if r.Total > 0 {
		r.Accuracy = float64(r.Correct) / float64(r.Total)
	}

	return r, nil
}
