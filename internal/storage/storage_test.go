package storage

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

func openTemp(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(%q): %v", dir, err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTemp(t, "")
	defer s.Close()

	tests := []struct {
		name string
		key  uint64
		data []byte
	}{
		{"empty", 1, []byte{}},
		{"small", 2, []byte("CTT1 not really a table")},
		{"zeros", 3, make([]byte, 1<<16)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.SaveTable(tc.key, tc.data); err != nil {
				t.Fatalf("SaveTable: %v", err)
			}
			got, err := s.LoadTable(tc.key)
			if err != nil {
				t.Fatalf("LoadTable: %v", err)
			}
			if diff := cmp.Diff(tc.data, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	s := openTemp(t, "")
	defer s.Close()

	if _, err := s.LoadTable(42); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("LoadTable of a missing key: %v, want ErrSnapshotNotFound", err)
	}
	if err := s.SaveTable(42, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTable(42); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadTable(42); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("LoadTable after delete: %v, want ErrSnapshotNotFound", err)
	}
}

func TestCorruptBlobs(t *testing.T) {
	s := openTemp(t, "")
	defer s.Close()

	if err := s.SaveTable(7, []byte("a perfectly good snapshot")); err != nil {
		t.Fatal(err)
	}
	var good []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(7))
		if err != nil {
			return err
		}
		good, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	flipped := append([]byte(nil), good...)
	flipped[0] ^= 0xff

	tests := []struct {
		name string
		blob []byte
	}{
		{"short", []byte{1, 2, 3}},
		{"not zstd", append(make([]byte, headerSize), "garbage"...)},
		{"bad checksum", flipped},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key := uint64(100 + i)
			err := s.db.Update(func(txn *badger.Txn) error {
				return txn.Set(dbKey(key), tc.blob)
			})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := s.LoadTable(key); !errors.Is(err, ErrSnapshotCorrupt) {
				t.Errorf("LoadTable: %v, want ErrSnapshotCorrupt", err)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	s := openTemp(t, "")
	defer s.Close()

	for _, k := range []uint64{0xdeadbeef, 3, 1 << 63} {
		if err := s.SaveTable(k, []byte{byte(k)}); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint64{3, 0xdeadbeef, 1 << 63}, keys); diff != "" {
		t.Errorf("Keys (-want +got):\n%s", diff)
	}
}

// TestEngineTablePersists searches a position, saves the table, reopens
// the database and checks that a fresh engine sees the root entry.
func TestEngineTablePersists(t *testing.T) {
	dir := t.TempDir()
	pos := board.NewPosition()

	e, err := engine.NewEngine(engine.WithHashEntries(1<<14), engine.WithMaxDepth(3), engine.WithMoveTime(0))
	if err != nil {
		t.Fatal(err)
	}
	res := e.Search(context.Background(), pos, nil)

	s := openTemp(t, dir)
	if err := e.SaveTable(s, pos.Hash); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s = openTemp(t, dir)
	defer s.Close()
	fresh, err := engine.NewEngine(engine.WithHashEntries(1<<14))
	if err != nil {
		t.Fatal(err)
	}
	if err := fresh.LoadTable(s, pos.Hash); err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	entry, ok := fresh.Table().Probe(pos.Hash)
	if !ok {
		t.Fatal("root entry missing after reload")
	}
	if entry.BestMove != res.BestMove || int(entry.Depth) != res.Depth {
		t.Errorf("root entry %v at depth %d, want %v at depth %d", entry.BestMove, entry.Depth, res.BestMove, res.Depth)
	}

	if err := fresh.LoadTable(s, pos.Hash+1); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("LoadTable of an unknown key: %v", err)
	}
}

func TestDataDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME only applies on Linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	dir, err := DatabaseDir()
	if err != nil {
		t.Fatalf("DatabaseDir: %v", err)
	}
	if want := base + "/chesscore/tt"; dir != want {
		t.Errorf("DatabaseDir = %q, want %q", dir, want)
	}
}
