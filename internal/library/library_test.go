package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kikiluvv/reelforge/internal/segment"
)

func writeCatalog(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, `segments:
  - id: demo-01
    source: footage/demo.mp4
    in: 0.0
    out: 4.2
    keywords: [product, demo]
  - id: demo-02
    source: footage/office.mp4
    in: 1.0
    out: 6.0
    keywords: [office]
`)

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cat.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(cat.Segments))
	}

	first := cat.Segments[0]
	if first.ID != "demo-01" || first.Source != "footage/demo.mp4" {
		t.Errorf("segment 0 = %+v", first)
	}
	if first.InPoint != 0 || first.OutPoint != 4.2 {
		t.Errorf("segment 0 range = [%v,%v], want [0,4.2]", first.InPoint, first.OutPoint)
	}
	if len(first.Keywords) != 2 || first.Keywords[0] != "product" {
		t.Errorf("segment 0 keywords = %v", first.Keywords)
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeCatalog(t, `segments:
  - id: dup
    source: a.mp4
    in: 0
    out: 2
  - id: dup
    source: b.mp4
    in: 0
    out: 2
`)

	if _, err := Load(path); err == nil {
		t.Error("duplicate ids should be rejected")
	}
}

func TestLoadRejectsInvertedRange(t *testing.T) {
	path := writeCatalog(t, `segments:
  - id: bad
    source: a.mp4
    in: 5
    out: 2
`)

	if _, err := Load(path); err == nil {
		t.Error("inverted range should be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should be an error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cat := &Catalog{Segments: []segment.LibrarySegment{
		{ID: "a", Source: "a.mp4", InPoint: 0, OutPoint: 3, Keywords: []string{"one"}},
	}}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cat.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Segments) != 1 || loaded.Segments[0].ID != "a" {
		t.Errorf("round trip lost data: %+v", loaded.Segments)
	}
}

func TestValidateAllowsEmptyCatalog(t *testing.T) {
	if err := (&Catalog{}).Validate(); err != nil {
		t.Errorf("empty catalog should validate, got %v", err)
	}
}
