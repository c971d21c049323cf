package samples

import (
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// Store wraps Badger for sample storage.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenStore opens or creates a sample store at path. Samples expire after
// ttl; zero keeps them until Prune.
func OpenStore(path string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one snapshot, keyed by target name and sample time.
func (s *Store) Record(snap types.ProcessSnapshot) error {
	if snap.SampledAt.IsZero() {
		snap.SampledAt = time.Now()
	}
	sample := FromSnapshot(snap)
	value, err := sample.Encode()
	if err != nil {
		return err
	}

	entry := badger.NewEntry(MakeKey(snap.Name, snap.SampledAt), value)
	if s.ttl > 0 {
		entry = entry.WithTTL(s.ttl)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// List returns name's samples taken at or after since, oldest first. A
// limit of 0 or less returns all; otherwise the most recent limit samples
// are returned.
func (s *Store) List(name string, since time.Time, limit int) ([]types.ProcessSnapshot, error) {
	prefix := MakeKeyPrefix(name)
	out := []types.ProcessSnapshot{}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		start := prefix
		if !since.IsZero() {
			start = MakeKey(name, since)
		}
		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			var sample Sample
			if err := it.Item().Value(sample.Decode); err != nil {
				return err
			}
			out = append(out, sample.Snapshot())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Targets returns the distinct target names with stored samples, sorted.
func (s *Store) Targets() ([]string, error) {
	seen := make(map[string]bool)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if name, _, ok := ParseKey(it.Item().Key()); ok {
				seen[name] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Prune deletes samples taken before cutoff and returns how many were removed.
func (s *Store) Prune(cutoff time.Time) (int, error) {
	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			_, at, ok := ParseKey(it.Item().Key())
			if ok && at.Before(cutoff) {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// ErrEmpty is returned by Summarize when there are no samples.
var ErrEmpty = errors.New("no samples")

// Summary aggregates a run of samples.
type Summary struct {
	Count    int           `json:"count" yaml:"count"`
	First    time.Time     `json:"first" yaml:"first"`
	Last     time.Time     `json:"last" yaml:"last"`
	PeakRSS  uint64        `json:"peak_rss" yaml:"peak_rss"`
	AvgRSS   uint64        `json:"avg_rss" yaml:"avg_rss"`
	PeakCPU  float64       `json:"peak_cpu" yaml:"peak_cpu"`
	AvgCPU   float64       `json:"avg_cpu" yaml:"avg_cpu"`
	Downtime int           `json:"downtime" yaml:"downtime"`
	Timespan time.Duration `json:"timespan" yaml:"timespan"`
}

// Summarize aggregates snapshots. Samples where the process was not
// running count towards Downtime only.
func Summarize(snaps []types.ProcessSnapshot) (Summary, error) {
	if len(snaps) == 0 {
		return Summary{}, ErrEmpty
	}

	sum := Summary{Count: len(snaps), First: snaps[0].SampledAt, Last: snaps[len(snaps)-1].SampledAt}
	sum.Timespan = sum.Last.Sub(sum.First)

	var rss uint64
	var cpu float64
	running := 0
	for _, s := range snaps {
		if !s.Running {
			sum.Downtime++
			continue
		}
		running++
		rss += s.MemoryBytes
		cpu += s.CPUPercent
		sum.PeakRSS = max(sum.PeakRSS, s.MemoryBytes)
		sum.PeakCPU = max(sum.PeakCPU, s.CPUPercent)
	}
	if running > 0 {
		sum.AvgRSS = rss / uint64(running)
		sum.AvgCPU = cpu / float64(running)
	}
	return sum, nil
}
