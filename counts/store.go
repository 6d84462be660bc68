// Package counts implements a small on-disk store of integer counters, grouped
// in buckets. Counters are sharded over a fixed number of files per bucket;
// updates are kept in memory and appended to the shard files as JSON on Close.
//
// A writeable store holds an exclusive lock on its directory, so only one
// process trains at a time. Read-only stores do not lock. It only works on Unix.
package counts

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	jsoniterator "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/sys/unix"
)

const (
	numShards = 32
	lockName  = "lock"
)

var (
	ErrReadonly = errors.New("readonly store")
	ErrClosed   = errors.New("closed store")
)

type counterKey struct {
	bucket string
	key    string
}

type Store struct {
	path string

	writeable bool
	closed    bool

	lockFH *os.File

	sg singleflight.Group

	mu     sync.Mutex
	values map[counterKey]int // values read from disk
	deltas map[counterKey]int // changes since open, appended to disk on close
	loaded map[string]bool    // shard files already merged into values
}

// Open opens the store at path. A writeable store creates path if necessary
// and locks it for exclusive access.
func Open(path string, writeable bool) (s *Store, err error) {
	fullPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "determining absolute path of %s", path)
	}

	s = &Store{
		path:      fullPath,
		writeable: writeable,

		values: make(map[counterKey]int),
		deltas: make(map[counterKey]int),
		loaded: make(map[string]bool),
	}

	if !writeable {
		return s, nil
	}

	err = os.MkdirAll(fullPath, 0750)
	if err != nil {
		return nil, errors.Wrap(err, "creating store path")
	}

	fh, err := os.OpenFile(filepath.Join(fullPath, lockName), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "opening lock file")
	}
	defer func() {
		if err != nil {
			fh.Close()
		}
	}()

	err = unix.Flock(int(fh.Fd()), unix.LOCK_EX)
	if err != nil {
		return nil, errors.Wrap(err, "locking store")
	}

	s.lockFH = fh

	return s, nil
}

func shardOf(key string) int {
	h := fnv.New32()

	_, err := h.Write([]byte(key))
	if err != nil {
		panic(fmt.Errorf("hashing %q: %w", key, err))
	}

	return int(h.Sum32() % numShards)
}

func (s *Store) shardPath(bucket string, shard int) string {
	return filepath.Join(s.path, url.PathEscape(bucket)+"-"+strconv.Itoa(shard))
}

// Close appends all pending updates to disk and releases the lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	defer func() {
		if s.writeable {
			s.lockFH.Close()
		}

		s.closed = true
	}()

	shards := make(map[string]map[string]int)

	for ck, delta := range s.deltas {
		if delta == 0 {
			continue
		}

		p := s.shardPath(ck.bucket, shardOf(ck.key))

		if shards[p] == nil {
			shards[p] = make(map[string]int)
		}

		shards[p][ck.key] = delta
	}

	var eg errgroup.Group

	for p, m := range shards {
		p := p
		m := m

		eg.Go(func() error {
			fh, err := os.OpenFile(p, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0600)
			if err != nil {
				return errors.Wrapf(err, "opening shard %q", p)
			}
			defer fh.Close()

			err = jsoniterator.NewEncoder(fh).Encode(m)
			if err != nil {
				return errors.Wrapf(err, "encoding shard %q", p)
			}

			return nil
		})
	}

	return eg.Wait()
}

// readShard merges all chunks of a shard file. A shard with more than one
// chunk is rewritten as a single chunk.
func (s *Store) readShard(p string) (map[string]int, error) {
	fh, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]int), nil
		}

		return nil, err
	}
	defer fh.Close()

	dec := jsoniterator.NewDecoder(fh)
	res := make(map[string]int)

	chunks := 0
	for dec.More() {
		var m map[string]int

		err = dec.Decode(&m)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding chunk %d of %q", chunks, p)
		}

		for k, v := range m {
			res[k] += v
			if res[k] < 0 {
				res[k] = 0
			}
		}

		chunks++
	}

	for k, v := range res {
		if v == 0 {
			delete(res, k)
		}
	}

	if chunks > 1 && s.writeable {
		tmp, err := os.CreateTemp(s.path, "compact-*")
		if err != nil {
			return nil, errors.Wrap(err, "creating compaction file")
		}
		defer tmp.Close()

		err = jsoniterator.NewEncoder(tmp).Encode(res)
		if err != nil {
			return nil, errors.Wrapf(err, "compacting %q", p)
		}

		err = os.Rename(tmp.Name(), p)
		if err != nil {
			return nil, errors.Wrapf(err, "replacing %q", p)
		}
	}

	return res, nil
}

// load merges a shard into s.values. It must be called with s.mu held.
func (s *Store) load(bucket string, shard int) error {
	p := s.shardPath(bucket, shard)

	if s.loaded[p] {
		return nil
	}

	// we enter here locked, so unlock while doing work
	s.mu.Unlock()

	mVal, err, _ := s.sg.Do(p, func() (interface{}, error) {
		return s.readShard(p)
	})

	s.mu.Lock()

	if err != nil {
		return err
	}

	if s.loaded[p] {
		// Another caller merged it while we were unlocked
		return nil
	}

	s.loaded[p] = true

	for k, v := range mVal.(map[string]int) {
		s.values[counterKey{bucket: bucket, key: k}] = v
	}

	return nil
}

func (s *Store) getLocked(ck counterKey) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	err := s.load(ck.bucket, shardOf(ck.key))
	if err != nil {
		return 0, err
	}

	val := s.values[ck] + s.deltas[ck]
	if val < 0 {
		val = 0
	}

	return val, nil
}

// Inc changes the given counter by delta. Counters are clamped to [0, inf).
func (s *Store) Inc(bucket, key string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if !s.writeable {
		return ErrReadonly
	}

	ck := counterKey{bucket: bucket, key: key}

	cur, err := s.getLocked(ck)
	if err != nil {
		return err
	}

	next := cur + delta
	if next < 0 {
		next = 0
	}

	s.deltas[ck] = next - s.values[ck]

	return nil
}

// Get returns the current value of a counter, 0 if it was never set.
func (s *Store) Get(bucket, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getLocked(counterKey{bucket: bucket, key: key})
}

// Bucket returns all non-zero counters of bucket.
func (s *Store) Bucket(bucket string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	for shard := 0; shard < numShards; shard++ {
		err := s.load(bucket, shard)
		if err != nil {
			return nil, errors.Wrapf(err, "loading shard %d of %q", shard, bucket)
		}
	}

	res := make(map[string]int)

	for ck, v := range s.values {
		if ck.bucket == bucket {
			res[ck.key] = v
		}
	}

	for ck, d := range s.deltas {
		if ck.bucket == bucket {
			res[ck.key] += d
		}
	}

	for k, v := range res {
		if v <= 0 {
			delete(res, k)
		}
	}

	return res, nil
}

// Truncate removes every counter from the store.
func (s *Store) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if !s.writeable {
		return ErrReadonly
	}

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return errors.Wrap(err, "listing store")
	}

	for _, e := range entries {
		if e.Name() == lockName || e.IsDir() {
			continue
		}

		err = os.Remove(filepath.Join(s.path, e.Name()))
		if err != nil {
			return errors.Wrapf(err, "removing %q", e.Name())
		}
	}

	s.values = make(map[counterKey]int)
	s.deltas = make(map[counterKey]int)
	s.loaded = make(map[string]bool)

	return nil
}
