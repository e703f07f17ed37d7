package main

import (
	"github.com/everforgeworks/galaxyserver/internal/obslog"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// defaultGalaxy/defaultSystem identify the one system chunk every fresh
// server starts with loaded, alongside the two navigational map chunks.
// A populated galaxy beyond this is reached by players flying there,
// which lazily creates further chunks through world.Manager.ChunkByCoord.
const (
	defaultGalaxy = 0
	defaultSystem = 0
)

// bootstrapWorld loads the default system chunk and the two map chunks
// from disk (empty ones if this is a fresh data directory), indexes
// them with the world manager, and re-seeds the object id watermark
// past whatever was last saved so newly minted ids never collide with
// reloaded ones.
func bootstrapWorld(s *server) {
	kinds := []world.ChunkKind{world.ChunkSystem, world.ChunkGalaxyStarmap, world.ChunkIntergalacticMap}
	var maxID uint64
	for _, kind := range kinds {
		c, err := s.store.LoadChunk(defaultGalaxy, defaultSystem, kind)
		if err != nil {
			obslog.Log.Fatal().Err(err).Int("kind", int(kind)).Msg("failed to load chunk")
		}
		s.world.LoadChunk(c)
		for _, o := range c.Objects() {
			if id := o.ObjectID(); id > maxID {
				maxID = id
			}
		}
	}
	s.world.IDs.Restore(maxID)
}
