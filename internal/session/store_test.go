package session

import (
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func waitLoaded(t *testing.T, s *Store, slot string, tick uint64) Document {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		doc, ok, err := s.Load(slot)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if ok && doc.Tick == tick {
			return doc
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("slot %q never reached tick %d", slot, tick)
	return Document{}
}

func TestStoreSaveAndLoad(t *testing.T) {
	s := openStore(t)
	doc := sampleDocument()

	if err := s.Save("default", doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := waitLoaded(t, s, "default", doc.Tick)
	if len(got.Buildings) != 1 || got.Resources["wood"] != 57 {
		t.Fatalf("loaded=%+v", got)
	}
}

func TestStoreLoadMissingSlot(t *testing.T) {
	s := openStore(t)
	_, ok, err := s.Load("absent")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("missing slot reported present")
	}
}

func TestStoreOverwritesSlot(t *testing.T) {
	s := openStore(t)
	doc := sampleDocument()

	doc.Tick = 100
	if err := s.SaveSync("default", doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc.Tick = 200
	doc.Resources = map[string]int{"wood": 99}
	if err := s.SaveSync("default", doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := s.Load("default")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Tick != 200 || got.Resources["wood"] != 99 {
		t.Fatalf("loaded=%+v, want the second save", got)
	}

	slots, err := s.Slots()
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 1 || slots["default"] != 200 {
		t.Fatalf("slots=%v", slots)
	}
}

func TestStoreCorruptBlob(t *testing.T) {
	s := openStore(t)
	if _, err := s.db.Exec(
		`INSERT INTO sessions (slot, tick, saved_at, blob) VALUES (?, ?, ?, ?);`,
		"default", 1, time.Now().UTC().Format(time.RFC3339Nano), []byte("garbage"),
	); err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	_, ok, err := s.Load("default")
	if err == nil {
		t.Fatalf("corrupt blob loaded without error")
	}
	if ok {
		t.Fatalf("corrupt blob reported ok")
	}
	// The row stays for inspection; Delete clears it.
	if err := s.Delete("default"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := s.Load("default"); err != nil || ok {
		t.Fatalf("slot persists after delete: ok=%v err=%v", ok, err)
	}
}

func TestStoreDeleteAndSlots(t *testing.T) {
	s := openStore(t)
	doc := sampleDocument()
	s.SaveSync("alpha", doc)
	doc.Tick = 7
	s.SaveSync("beta", doc)

	if err := s.Delete("alpha"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	slots, err := s.Slots()
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 1 || slots["beta"] != 7 {
		t.Fatalf("slots=%v", slots)
	}
}

func TestStoreCloseFlushesPendingSaves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	doc := sampleDocument()
	doc.Tick = 42
	if err := s.Save("default", doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Load("default")
	if err != nil || !ok {
		t.Fatalf("load after close: ok=%v err=%v", ok, err)
	}
	if got.Tick != 42 {
		t.Fatalf("tick=%d, want the flushed save", got.Tick)
	}
}

func TestSaveAfterCloseIsNoop(t *testing.T) {
	s := openStore(t)
	s.Close()
	if err := s.Save("default", sampleDocument()); err != nil {
		t.Fatalf("save after close returned %v, want silent no-op", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for an empty path")
	}
}
