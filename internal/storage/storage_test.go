package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTestStorage creates a temporary storage for testing.
func newTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	s, err := Open(filepath.Join(dir, "db"), DefaultOptions())
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("failed to open storage: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.RemoveAll(dir)
	}

	return s, cleanup
}

func TestSetAndGet(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	if err := s.Set([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := s.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("Get returned %q, want %q", got, "v2")
	}
}

func TestGetMissing(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	got, err := s.Get([]byte("missing"))
	if err != nil || got != nil {
		t.Errorf("Get = %q, %v; want nil, nil", got, err)
	}
}

func TestDelete(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	s.Set([]byte("k"), []byte("v"))

	if err := s.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if got, _ := s.Get([]byte("k")); got != nil {
		t.Errorf("Get after Delete returned %q", got)
	}
}

func TestApply(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	s.Set([]byte("old"), []byte("x"))

	err := s.Apply([]Op{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("old")},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for key, want := range map[string]string{"a": "1", "b": "2"} {
		if got, _ := s.Get([]byte(key)); string(got) != want {
			t.Errorf("Get(%s) = %q, want %q", key, got, want)
		}
	}

	if got, _ := s.Get([]byte("old")); got != nil {
		t.Errorf("nil value should delete, got %q", got)
	}
}

func TestIteratePrefix(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	for _, k := range []string{"c/2", "c/1", "i/1", "c", "d"} {
		s.Set([]byte(k), []byte(k))
	}

	var keys []string
	err := s.IteratePrefix([]byte("c/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("IteratePrefix failed: %v", err)
	}

	if len(keys) != 2 || keys[0] != "c/1" || keys[1] != "c/2" {
		t.Errorf("got keys %v, want [c/1 c/2]", keys)
	}
}

func TestIteratePrefix_StopsOnError(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	s.Set([]byte("p1"), nil)
	s.Set([]byte("p2"), nil)

	stop := errors.New("stop")
	calls := 0

	err := s.IteratePrefix([]byte("p"), func(key, value []byte) error {
		calls++
		return stop
	})

	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("err = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestPrefixUpperBound(t *testing.T) {
	tests := []struct {
		prefix []byte
		want   []byte
	}{
		{[]byte{0x01}, []byte{0x02}},
		{[]byte{0x01, 0xFF}, []byte{0x02}},
		{[]byte{0xFF, 0xFF}, nil},
		{nil, nil},
	}

	for _, tt := range tests {
		if got := prefixUpperBound(tt.prefix); !bytes.Equal(got, tt.want) {
			t.Errorf("prefixUpperBound(%x) = %x, want %x", tt.prefix, got, tt.want)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir, err := os.MkdirTemp("", "storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "db")

	s, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Set([]byte("k"), []byte("v"))

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path, Options{CacheSize: 1 << 20, MemTableSize: 4 << 20})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if got, _ := s.Get([]byte("k")); string(got) != "v" {
		t.Errorf("after reopen got %q", got)
	}
}
