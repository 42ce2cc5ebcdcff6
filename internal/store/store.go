// Package store keeps ranked search results in an embedded badger database.
package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/rs/zerolog"
)

const (
	jobPrefix   = "job:"
	savedPrefix = "saved:"
)

// Record is a ranked job as persisted, with the time it was last saved.
type Record struct {
	models.ScoredJob
	Query   string    `json:"query,omitempty"`
	SavedAt time.Time `json:"savedAt"`
}

// Store persists ranked jobs keyed by job id.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

type badgerLogger struct {
	logger zerolog.Logger
}

var _ badger.Logger = badgerLogger{}

func (l badgerLogger) Errorf(msg string, items ...any)   { l.logger.Error().Msgf(msg, items...) }
func (l badgerLogger) Warningf(msg string, items ...any) { l.logger.Warn().Msgf(msg, items...) }
func (l badgerLogger) Infof(msg string, items ...any)    { l.logger.Debug().Msgf(msg, items...) }
func (l badgerLogger) Debugf(msg string, items ...any)   { l.logger.Trace().Msgf(msg, items...) }

// Open opens the database at path, creating the directory when needed. An
// in-memory database ignores path.
func Open(path string, inMemory bool, logger zerolog.Logger) (*Store, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if path == "" {
			return nil, errors.New("store path is empty")
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", path)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = badgerLogger{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func jobKey(id string) []byte {
	return []byte(jobPrefix + id)
}

// savedKey orders entries by save time; big endian keeps the byte order
// chronological.
func savedKey(at time.Time, id string) []byte {
	buf := make([]byte, 0, len(savedPrefix)+8+len(id))
	buf = append(buf, savedPrefix...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(at.UnixNano()))
	return append(buf, id...)
}

// Save stores the jobs one query produced, replacing earlier copies with the
// same id.
func (s *Store) Save(ctx context.Context, query string, jobs []models.ScoredJob) error {
	if len(jobs) == 0 {
		return nil
	}
	savedAt := s.now().UTC()
	return s.db.Update(func(txn *badger.Txn) error {
		for i, job := range jobs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if job.ID == "" {
				continue
			}
			previous, err := readRecord(txn, job.ID)
			if err != nil {
				return err
			}
			if previous != nil {
				if err := txn.Delete(savedKey(previous.SavedAt, job.ID)); err != nil {
					return err
				}
			}

			// Keep the ranking order inside one batch when listing newest first.
			at := savedAt.Add(time.Duration(len(jobs)-i) * time.Nanosecond)
			payload, err := json.Marshal(Record{ScoredJob: job, Query: query, SavedAt: at})
			if err != nil {
				return fmt.Errorf("encode job %s: %w", job.ID, err)
			}
			if err := txn.Set(jobKey(job.ID), payload); err != nil {
				return err
			}
			if err := txn.Set(savedKey(at, job.ID), []byte(job.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the stored job with id, or nil when it is unknown.
func (s *Store) Get(id string) (*Record, error) {
	var record *Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		record, err = readRecord(txn, id)
		return err
	})
	return record, err
}

// Recent lists up to limit stored jobs, most recently saved first.
func (s *Store) Recent(limit int) ([]Record, error) {
	records := []Record{}
	if limit <= 0 {
		return records, nil
	}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(savedPrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(append([]byte(savedPrefix), 0xff)); iter.Valid() && len(records) < limit; iter.Next() {
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			record, err := readRecord(txn, string(id))
			if err != nil {
				return err
			}
			if record != nil {
				records = append(records, *record)
			}
		}
		return nil
	})
	return records, err
}

func readRecord(txn *badger.Txn, id string) (*Record, error) {
	item, err := txn.Get(jobKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record Record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	}); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &record, nil
}
