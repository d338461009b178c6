package library

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/reelforge/internal/segment"
)

// Catalog is a read-only collection of pre-cut, keyword-tagged footage
// clips. The library's lifetime is external; this core only reads it.
type Catalog struct {
	Segments []segment.LibrarySegment `yaml:"segments"`
}

// Load reads a catalog from a YAML file and validates it.
//
// File shape:
//
//	segments:
//	  - id: demo-01
//	    source: footage/demo.mp4
//	    in: 0.0
//	    out: 4.2
//	    keywords: [product, demo]
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse library catalog: %w", err)
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks every segment and rejects duplicate IDs. An empty
// catalog is not rejected here; emptiness is the caller's no-usable-
// content condition because only it knows whether a build is imminent.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Segments))
	for i, seg := range c.Segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("library catalog entry %d: %w", i, err)
		}
		if seen[seg.ID] {
			return fmt.Errorf("library catalog: duplicate segment id %s", seg.ID)
		}
		seen[seg.ID] = true
	}
	return nil
}

// Save writes the catalog back to a YAML file.
func (c *Catalog) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
