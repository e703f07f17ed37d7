package persistence

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/everforgeworks/galaxyserver/internal/agency"
)

func (s *Store) metaPath() string {
	return filepath.Join(s.Dir, "meta.sa2json")
}

// SaveMeta writes the agency/player meta file (spec.md §4.7), atomically.
// Implements world.ChunkSaver.
func (s *Store) SaveMeta() error {
	snap := s.Agency.Snapshot()
	return atomicWrite(s.metaPath(), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&snap)
	})
}

// LoadMeta reads the meta file, if present, and restores it into
// s.Agency. It must run before any chunk is loaded (chunk load
// re-registers each vessel's agency membership by id).
func (s *Store) LoadMeta() error {
	raw, err := os.ReadFile(s.metaPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("persistence: read meta: %w", err)
	}
	var snap agency.MetaSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("persistence: decode meta: %w", err)
	}
	s.Agency.Restore(snap)
	return nil
}
