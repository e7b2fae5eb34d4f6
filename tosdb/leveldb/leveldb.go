// Package leveldb backs the DAG storage's checkpoint durability barrier
// (spec §4.B checkpoint()) with an on-disk write-ahead record of the last
// checkpointed rank, following the same Database-wrapping-goleveldb shape
// the wider corpus's tosdb/leveldb package uses.
package leveldb

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var checkpointKey = []byte("dag/checkpoint/max-rank")

// Store wraps a goleveldb handle. An empty path opens an in-memory store,
// suitable for tests and for nodes that accept losing the barrier on
// restart.
type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) the checkpoint store at path, or an in-memory
// store if path is empty.
func Open(path string) (*Store, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening checkpoint store at %q", path)
	}
	return &Store{db: db}, nil
}

// WriteCheckpoint durably records maxRank as the last checkpointed rank.
func (s *Store) WriteCheckpoint(maxRank uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], maxRank)
	if err := s.db.Put(checkpointKey, buf[:], nil); err != nil {
		return errors.Wrap(err, "writing checkpoint")
	}
	return nil
}

// LastCheckpoint returns the last durably-recorded rank, or 0 if none.
func (s *Store) LastCheckpoint() (uint64, error) {
	v, err := s.db.Get(checkpointKey, nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "reading checkpoint")
	}
	return binary.BigEndian.Uint64(v), nil
}

// Close releases the underlying goleveldb handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "closing checkpoint store")
	}
	return nil
}
