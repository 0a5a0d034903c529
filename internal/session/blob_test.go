package session

import (
	"testing"
	"time"

	"timberline/core/internal/state"
	"timberline/core/internal/world"
)

func sampleDocument() Document {
	point := state.Vec2{X: 320, Y: 320}
	return Document{
		Version: DocumentVersion,
		SavedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Tick:    4500,
		Buildings: []world.BuildingRecord{
			{Type: "storage", X: 336, Y: 176},
		},
		Workers: []world.WorkerRecord{
			{
				Type:         "lumberjack",
				Position:     state.Vec2{X: 80, Y: 176},
				State:        "idle",
				Inventory:    map[string]int{"wood": 4},
				DepositPoint: &point,
				Stats:        world.WorkerStats{TreesFelled: 3, Harvested: 12, Deposited: 8},
			},
		},
		Resources: map[string]int{"wood": 57},
	}
}

func TestBlobRoundTrip(t *testing.T) {
	doc := sampleDocument()
	blob, err := encodeBlob(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := decodeBlob(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Tick != doc.Tick || !got.SavedAt.Equal(doc.SavedAt) {
		t.Fatalf("header mismatch: %+v", got)
	}
	if len(got.Buildings) != 1 || got.Buildings[0].Type != "storage" {
		t.Fatalf("buildings=%v", got.Buildings)
	}
	if len(got.Workers) != 1 {
		t.Fatalf("workers=%v", got.Workers)
	}
	w := got.Workers[0]
	if w.Inventory["wood"] != 4 || w.Stats.TreesFelled != 3 {
		t.Fatalf("worker=%+v", w)
	}
	if w.DepositPoint == nil || w.DepositPoint.X != 320 {
		t.Fatalf("deposit point=%v", w.DepositPoint)
	}
	if got.Resources["wood"] != 57 {
		t.Fatalf("resources=%v", got.Resources)
	}
}

func TestDecodeBlobRejectsGarbage(t *testing.T) {
	for _, blob := range [][]byte{nil, {}, []byte("not a zstd frame"), {0x28, 0xb5, 0x2f, 0xfd, 0xff}} {
		if _, err := decodeBlob(blob); err == nil {
			t.Fatalf("decode of %q succeeded", blob)
		}
	}
}

func TestDecodeBlobRejectsTruncation(t *testing.T) {
	blob, err := encodeBlob(sampleDocument())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := decodeBlob(blob[:len(blob)/2]); err == nil {
		t.Fatalf("decode of a truncated blob succeeded")
	}
}

func TestDecodeBlobRejectsVersionMismatch(t *testing.T) {
	doc := sampleDocument()
	doc.Version = DocumentVersion + 1
	blob, err := encodeBlob(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := decodeBlob(blob); err == nil {
		t.Fatalf("decode accepted an unsupported version")
	}
}
