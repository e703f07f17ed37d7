package world

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/everforgeworks/galaxyserver/internal/idgen"
	"github.com/everforgeworks/galaxyserver/internal/obslog"
)

// Scale constants, km per unit (spec.md §4.2).
const (
	ScaleSystem         = 1.0
	ScaleGalaxyStarmap  = 1e6
	ScaleUniverseMap    = 1e9
)

// Migration thresholds, in km at the *origin* scale (spec.md §4.2).
const (
	ExitSystemToStarmapKm    = 2e13
	EnterSystemFromStarmapKm = 1e10
	ExitGalaxyToUniverseKm   = 5e11
	EnterGalaxyFromUniverseKm = 1e11
)

type chunkKey struct {
	galaxy, system int
	kind           ChunkKind
}

// Manager loads/unloads chunks, maps object id to chunk, and runs the
// tick and autosave loops (C4); it runs no keepalive loop. A single reentrant-by-convention
// mutex protects the chunk set and the object index, held for the full
// duration of a tick or a save pass (spec.md §5).
type Manager struct {
	mu sync.Mutex

	chunks      map[chunkKey]*Chunk
	objectChunk map[uint64]chunkKey

	IDs *idgen.Sequence

	tickRateHz   float64
	simSecPerTk  float64
	autosaveSec  float64

	saver ChunkSaver
}

// ChunkSaver persists chunks on the autosave cadence (C9); wired to
// internal/persistence by the process entry point.
type ChunkSaver interface {
	SaveChunk(c *Chunk) error
	SaveMeta() error
}

// NewManager constructs a manager with the given tick parameters.
func NewManager(tickRateHz, simRateSecPerSec, autosaveSec float64, saver ChunkSaver) *Manager {
	return &Manager{
		chunks:      make(map[chunkKey]*Chunk),
		objectChunk: make(map[uint64]chunkKey),
		IDs:         &idgen.Sequence{},
		tickRateHz:  tickRateHz,
		simSecPerTk: simRateSecPerSec / tickRateHz,
		autosaveSec: autosaveSec,
		saver:       saver,
	}
}

// LoadChunk registers an already-constructed chunk (e.g. rehydrated from
// disk) with the manager and indexes its current objects.
func (m *Manager) LoadChunk(c *Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chunkKey{c.Galaxy, c.System, c.Kind}
	m.chunks[key] = c
	for _, o := range c.Objects() {
		m.objectChunk[o.ObjectID()] = key
	}
}

// RegisterObject records that id now lives in the given chunk's index.
func (m *Manager) RegisterObject(id uint64, galaxy, system int, kind ChunkKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objectChunk[id] = chunkKey{galaxy, system, kind}
}

// ChunkFor returns the chunk owning object id, if indexed.
func (m *Manager) ChunkFor(id uint64) (*Chunk, bool) {
	m.mu.Lock()
	key, ok := m.objectChunk[id]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	m.mu.Lock()
	c, ok := m.chunks[key]
	m.mu.Unlock()
	return c, ok
}

// ChunkByCoord returns (and lazily creates) the chunk at (galaxy,
// system) of the given kind.
func (m *Manager) ChunkByCoord(galaxy, system int, kind ChunkKind) *Chunk {
	key := chunkKey{galaxy, system, kind}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chunks[key]
	if !ok {
		c = NewChunk(galaxy, system, fmt.Sprintf("galaxy_%d/system_%d", galaxy, system), kind)
		m.chunks[key] = c
	}
	return c
}

// MoveObject atomically relocates an object between two chunks,
// updating the object index under the manager lock (spec.md §4.2).
func (m *Manager) MoveObject(id uint64, from, to *Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := from.Lookup(id)
	if !ok {
		return
	}
	from.Remove(id)
	to.Add(e)
	m.objectChunk[id] = chunkKey{to.Galaxy, to.System, to.Kind}
}

// Rescale converts a position/velocity between two km-per-unit scales,
// per spec.md §4.2: "rescaled by the ratio of the two scales".
func Rescale(pos, vel Vec2, fromScale, toScale float64) (Vec2, Vec2) {
	ratio := fromScale / toScale
	return pos.Scale(ratio), vel.Scale(ratio)
}

// RunTickLoop drives the 60Hz (by default) physics loop until ctx is
// canceled. The lock is held for the whole tick (spec.md §5): no
// suspension points inside a tick.
func (m *Manager) RunTickLoop(ctx context.Context) {
	period := time.Duration(float64(time.Second) / m.tickRateHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tickOnce()
		}
	}
}

func (m *Manager) tickOnce() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.chunks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					obslog.Log.Error().Interface("panic", r).
						Int("galaxy", c.Galaxy).Int("system", c.System).
						Msg("chunk tick panicked, skipping this tick")
				}
			}()
			c.Tick(m.simSecPerTk)
		}()
	}
}

// RunAutosaveLoop persists every loaded chunk and the meta file on the
// autosave cadence, rate-limited the way a production background loop
// guards its own cadence against drift (golang.org/x/time/rate), rather
// than a bare time.Ticker.
func (m *Manager) RunAutosaveLoop(ctx context.Context) {
	if m.saver == nil {
		return
	}
	limiter := rate.NewLimiter(rate.Every(time.Duration(m.autosaveSec*float64(time.Second))), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		m.autosaveOnce()
	}
}

func (m *Manager) autosaveOnce() {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunks := make([]*Chunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		chunks = append(chunks, c)
	}

	for _, c := range chunks {
		if err := m.saver.SaveChunk(c); err != nil {
			obslog.Log.Error().Err(err).Int("galaxy", c.Galaxy).Int("system", c.System).Msg("autosave: chunk save failed")
		}
	}
	if err := m.saver.SaveMeta(); err != nil {
		obslog.Log.Error().Err(err).Msg("autosave: meta save failed")
	}
}

// SimSecPerTick exposes the manager's effective simulated-seconds-per-
// wall-tick, used by subsystems (e.g. warp's time base) that must agree
// with the tick loop's own rate.
func (m *Manager) SimSecPerTick() float64 { return m.simSecPerTk }

// Chunks returns a snapshot of every loaded chunk, for a final save
// pass at shutdown.
func (m *Manager) Chunks() []*Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Chunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		out = append(out, c)
	}
	return out
}
