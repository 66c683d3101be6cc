package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

var (
	// ErrSnapshotNotFound is returned by LoadTable when no snapshot is
	// stored under the key.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrSnapshotCorrupt is returned when a stored blob fails to decompress
	// or its checksum does not match.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

const (
	keyPrefix  = "tt/"
	headerSize = 8 // xxhash64 of the uncompressed snapshot
)

// Store keeps transposition table snapshots in BadgerDB, keyed by the hash
// of the position they were searched from. Values are zstd-compressed and
// prefixed with a checksum of the raw snapshot.
type Store struct {
	db  *badger.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	log zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for save and load events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens (or creates) a store in dir. An empty dir keeps everything in
// memory.
func Open(dir string, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(dir)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts.Logger = nil

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		enc.Close()
		dec.Close()
		return nil, fmt.Errorf("open snapshot db %q: %w", dir, err)
	}

	s := &Store{db: db, enc: enc, dec: dec, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// OpenDefault opens the store in DatabaseDir.
func OpenDefault(opts ...Option) (*Store, error) {
	dir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir, opts...)
}

// Close closes the database.
func (s *Store) Close() error {
	s.dec.Close()
	if err := s.enc.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

func dbKey(key uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte(keyPrefix), key)
}

// SaveTable stores snapshot under key, replacing any earlier one.
func (s *Store) SaveTable(key uint64, snapshot []byte) error {
	blob := make([]byte, headerSize, headerSize+len(snapshot)/4)
	binary.LittleEndian.PutUint64(blob, xxhash.Sum64(snapshot))
	blob = s.enc.EncodeAll(snapshot, blob)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey(key), blob)
	})
	if err != nil {
		return fmt.Errorf("save snapshot %016x: %w", key, err)
	}
	s.log.Debug().
		Uint64("key", key).
		Int("raw", len(snapshot)).
		Int("stored", len(blob)).
		Msg("snapshot saved")
	return nil
}

// LoadTable returns the snapshot stored under key.
func (s *Store) LoadTable(key uint64) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("snapshot %016x: %w", key, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %016x: %w", key, err)
	}

	snapshot, err := s.decode(blob)
	if err != nil {
		return nil, fmt.Errorf("snapshot %016x: %w", key, err)
	}
	s.log.Debug().Uint64("key", key).Int("raw", len(snapshot)).Msg("snapshot loaded")
	return snapshot, nil
}

func (s *Store) decode(blob []byte) ([]byte, error) {
	if len(blob) < headerSize {
		return nil, fmt.Errorf("%d byte blob: %w", len(blob), ErrSnapshotCorrupt)
	}
	sum := binary.LittleEndian.Uint64(blob)
	snapshot, err := s.dec.DecodeAll(blob[headerSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if xxhash.Sum64(snapshot) != sum {
		return nil, fmt.Errorf("checksum mismatch: %w", ErrSnapshotCorrupt)
	}
	return snapshot, nil
}

// DeleteTable removes the snapshot stored under key, if any.
func (s *Store) DeleteTable(key uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dbKey(key))
	})
}

// Keys lists the keys of every stored snapshot in ascending order.
func (s *Store) Keys() ([]uint64, error) {
	var keys []uint64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			if len(k) != len(keyPrefix)+8 {
				continue
			}
			keys = append(keys, binary.BigEndian.Uint64(k[len(keyPrefix):]))
		}
		return nil
	})
	return keys, err
}
