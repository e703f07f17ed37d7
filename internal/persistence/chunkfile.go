// Package persistence implements C9: the per-chunk binary snapshot and
// the per-agency/player meta file described in spec.md §4.7. It is the
// one package allowed to know every other domain package's shape, since
// its whole job is flattening and rebuilding that shape across a
// restart.
package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"

	"github.com/everforgeworks/galaxyserver/internal/agency"
	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/obslog"
	"github.com/everforgeworks/galaxyserver/internal/vessel"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// digestLen is the size of the blake3-256 integrity header stamped at
// the front of every chunk file.
const digestLen = 32

// Store is the ChunkSaver world.Manager drives on its autosave cadence,
// and the load-time counterpart the process entry point uses to
// rehydrate the world at boot (spec.md §4.7).
type Store struct {
	Dir     string
	Agency  *agency.Manager
	Catalog *catalog.Catalog
}

// New constructs a Store rooted at dir, creating it if necessary.
func New(dir string, agencyMgr *agency.Manager, cat *catalog.Catalog) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persistence: create root dir: %w", err)
	}
	return &Store{Dir: dir, Agency: agencyMgr, Catalog: cat}, nil
}

func (s *Store) chunkPath(galaxy, system int, kind world.ChunkKind) string {
	return filepath.Join(s.Dir, fmt.Sprintf("chunk_%d_g%d_s%d.sa2bin", kind, galaxy, system))
}

// SaveChunk flattens c's object set into a chunkRecord, gob-encodes it,
// compresses the result with lz4, stamps a blake3 digest header, and
// writes it atomically (write-to-temp, fsync, rename). Implements
// world.ChunkSaver.
func (s *Store) SaveChunk(c *world.Chunk) error {
	rec := chunkRecord{Galaxy: c.Galaxy, System: c.System, Kind: c.Kind, Points: c.Points()}
	for _, o := range c.Objects() {
		switch obj := o.(type) {
		case *world.Sun:
			rec.Suns = append(rec.Suns, bodyToDTO(&obj.Body))
		case *world.Planet:
			rec.Planets = append(rec.Planets, bodyToDTO(&obj.Body))
		case *world.Asteroid:
			rec.Asteroids = append(rec.Asteroids, bodyToDTO(&obj.Body))
		case *world.JettisonedComponent:
			rec.Jettisoned = append(rec.Jettisoned, jettisonedDTO{
				Body: bodyToDTO(&obj.Body), Stage: obj.Stage, LifetimeSec: obj.LifetimeSec,
			})
		case *vessel.Vessel:
			rec.Vessels = append(rec.Vessels, vesselToDTO(obj))
		default:
			obslog.Log.Warn().Str("type", fmt.Sprintf("%T", o)).Msg("persistence: unknown object kind, skipping")
		}
	}

	var gobBuf bytes.Buffer
	if err := gob.NewEncoder(&gobBuf).Encode(&rec); err != nil {
		return fmt.Errorf("persistence: encode chunk %d/%d: %w", c.Galaxy, c.System, err)
	}

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(gobBuf.Bytes()); err != nil {
		return fmt.Errorf("persistence: compress chunk %d/%d: %w", c.Galaxy, c.System, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("persistence: close compressor for chunk %d/%d: %w", c.Galaxy, c.System, err)
	}

	digest := blake3.Sum256(compressed.Bytes())
	return atomicWrite(s.chunkPath(c.Galaxy, c.System, c.Kind), func(w io.Writer) error {
		if _, err := w.Write(digest[:]); err != nil {
			return err
		}
		_, err := w.Write(compressed.Bytes())
		return err
	})
}

// LoadChunk reads and verifies a chunk file, then performs the two-pass
// rebuild spec.md §4.7 calls for: non-vessels are added to the chunk
// first, then vessels, so a vessel's home body is already resolvable by
// id inside its own chunk the moment it lands. A missing file is not an
// error -- it means the chunk has never been saved, so an empty chunk
// is returned for the caller to populate from world genesis data.
func (s *Store) LoadChunk(galaxy, system int, kind world.ChunkKind) (*world.Chunk, error) {
	path := s.chunkPath(galaxy, system, kind)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return world.NewChunk(galaxy, system, path, kind), nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: read chunk %d/%d: %w", galaxy, system, err)
	}
	if len(raw) < digestLen {
		return nil, fmt.Errorf("persistence: chunk %d/%d file truncated (%d bytes)", galaxy, system, len(raw))
	}
	wantDigest, payload := raw[:digestLen], raw[digestLen:]
	gotDigest := blake3.Sum256(payload)
	if !bytes.Equal(wantDigest, gotDigest[:]) {
		return nil, fmt.Errorf("persistence: chunk %d/%d failed integrity check", galaxy, system)
	}

	var gobBuf bytes.Buffer
	zr := lz4.NewReader(bytes.NewReader(payload))
	if _, err := io.Copy(&gobBuf, zr); err != nil {
		return nil, fmt.Errorf("persistence: decompress chunk %d/%d: %w", galaxy, system, err)
	}

	var rec chunkRecord
	if err := gob.NewDecoder(&gobBuf).Decode(&rec); err != nil {
		return nil, fmt.Errorf("persistence: decode chunk %d/%d: %w", galaxy, system, err)
	}

	c := world.NewChunk(rec.Galaxy, rec.System, path, rec.Kind)
	for _, p := range rec.Points {
		c.AddPoint(p)
	}
	for _, dto := range rec.Suns {
		body := dto.toBody()
		c.Add(&world.Sun{Body: body})
	}
	for _, dto := range rec.Planets {
		body := dto.toBody()
		c.Add(&world.Planet{Body: body})
	}
	for _, dto := range rec.Asteroids {
		body := dto.toBody()
		c.Add(&world.Asteroid{Body: body})
	}
	for _, dto := range rec.Jettisoned {
		body := dto.Body.toBody()
		c.Add(&world.JettisonedComponent{Body: body, Stage: dto.Stage, LifetimeSec: dto.LifetimeSec})
	}

	// Second pass: vessels. Their home body already lives in c by id, so
	// nothing beyond HomeBodyID itself needs resolving here; the
	// environment snapshot refresh inside the next tick does the rest.
	for _, dto := range rec.Vessels {
		v := dto.toVessel()
		v.WithCatalog(s.Catalog)
		v.RecomputeStats(s.Catalog)
		v.SetChunkKey(galaxy, system)
		if s.Agency != nil {
			v.Agency = s.Agency
			s.Agency.RegisterVessel(v)
		}
		if v.PayloadKind != "" {
			behavior := vessel.NewPayloadBehavior(v.PayloadKind)
			v.Payload = behavior
			if behavior != nil {
				behavior.OnAttach(v)
			}
		}
		c.Add(v)
	}

	return c, nil
}
