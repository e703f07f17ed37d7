// File: main.go
// Description:
//     The process entry point. Orchestration: loads the content catalog,
//     rehydrates the world and agency/player state from the data
//     directory, starts the world tick, autosave, and agency tick
//     background loops,
//     and brings up the two session channels (C8). Lifecycle: a
//     SIGINT/SIGTERM triggers one final save before exit.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/everforgeworks/galaxyserver/internal/agency"
	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/network"
	"github.com/everforgeworks/galaxyserver/internal/obslog"
	"github.com/everforgeworks/galaxyserver/internal/persistence"
	"github.com/everforgeworks/galaxyserver/internal/vessel"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// server bundles every manager the router and the background loops
// touch; cmd/server/main.go is the only place that constructs one.
type server struct {
	catalog   *catalog.Catalog
	world     *world.Manager
	agencyMgr *agency.Manager
	store     *persistence.Store
	hub       *network.Hub
	datagram  *network.DatagramServer
}

func main() {
	catalogPath := flag.String("catalog", "catalog.yaml", "content catalog YAML path")
	dataDir := flag.String("data", "data", "persistence root directory")
	wsAddr := flag.String("ws-addr", ":7777", "ordered-channel websocket bind address")
	udpAddr := flag.String("udp-addr", ":7778", "datagram-channel UDP bind address")
	flag.Parse()

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		obslog.Log.Fatal().Err(err).Msg("failed to load content catalog")
	}

	agencyMgr := agency.NewManager(cat)

	store, err := persistence.New(*dataDir, agencyMgr, cat)
	if err != nil {
		obslog.Log.Fatal().Err(err).Msg("failed to open persistence store")
	}
	wm := world.NewManager(cat.Tuning.TickRateHz, cat.Tuning.SimRateSecPerSec, cat.Tuning.AutosaveIntervalSec, store)

	srv := &server{catalog: cat, world: wm, agencyMgr: agencyMgr, store: store}

	if err := store.LoadMeta(); err != nil {
		obslog.Log.Fatal().Err(err).Msg("failed to load meta file")
	}
	bootstrapWorld(srv)

	rt := &router{srv: srv}
	hub := network.NewHub(rt.Handle)
	srv.hub = hub
	hub.OnDisconnect = srv.onDisconnect

	dg, err := network.ListenDatagram(*udpAddr, hub)
	if err != nil {
		obslog.Log.Fatal().Err(err).Msg("failed to open datagram socket")
	}
	srv.datagram = dg

	ctx, cancel := context.WithCancel(context.Background())
	go wm.RunTickLoop(ctx)
	go wm.RunAutosaveLoop(ctx)
	go agencyMgr.RunTickLoop(ctx, time.Second, srv.planetResourceYield)
	go hub.Run()
	go dg.Serve()
	go srv.runVesselStreamLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWs)
	httpSrv := &http.Server{Addr: *wsAddr, Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.Log.Fatal().Err(err).Msg("ordered-channel listener failed")
		}
	}()

	obslog.Log.Info().Str("ws", *wsAddr).Str("udp", *udpAddr).Msg("server live")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	obslog.Log.Info().Msg("shutting down, running final save")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	dg.Close()

	for _, c := range wm.Chunks() {
		if err := store.SaveChunk(c); err != nil {
			obslog.Log.Error().Err(err).Msg("final chunk save failed")
		}
	}
	if err := store.SaveMeta(); err != nil {
		obslog.Log.Error().Err(err).Msg("final meta save failed")
	}
}

// onDisconnect releases a departed session's controlled vessel and
// chunk-audience registration (spec.md §8: "after a disconnect tick, no
// vessel references the departed id").
func (s *server) onDisconnect(sess *network.Session) {
	playerID, _, galaxy, system := sess.Context()
	if c := s.world.ChunkByCoord(galaxy, system, world.ChunkSystem); c != nil {
		c.RemoveObserver(sessionAudience{srv: s, sess: sess})
	}
	if vid := sess.ControlledVessel(); vid != 0 {
		if v := s.lookupVessel(vid); v != nil && v.ControlledBy == playerID {
			v.ControlledBy = 0
		}
	}
	if p := s.agencyMgr.Player(playerID); p != nil {
		p.ControlledVesselID = 0
	}
}

// attachAudience registers sess as a datagram observer of its current
// chunk, called once the handshake has resolved its (galaxy, system).
func (s *server) attachAudience(sess *network.Session) {
	_, _, galaxy, system := sess.Context()
	c := s.world.ChunkByCoord(galaxy, system, world.ChunkSystem)
	c.AddObserver(sessionAudience{srv: s, sess: sess})
}

// lookupVessel resolves a vessel id through the chunk manager's object
// index, returning nil if it is not currently loaded.
func (s *server) lookupVessel(id uint64) *vessel.Vessel {
	c, ok := s.world.ChunkFor(id)
	if !ok {
		return nil
	}
	obj, ok := c.Lookup(id)
	if !ok {
		return nil
	}
	v, _ := obj.(*vessel.Vessel)
	return v
}

// planetResourceYield implements agency.ResourceYieldFunc: the mining
// rig building effect needs a planet's resource_map, which lives on the
// world-side Planet, not in the agency package (spec.md §4.5).
func (s *server) planetResourceYield(planetID uint64) map[string]float64 {
	c, ok := s.world.ChunkFor(planetID)
	if !ok {
		return nil
	}
	obj, ok := c.Lookup(planetID)
	if !ok {
		return nil
	}
	if p, ok := obj.(*world.Planet); ok {
		return p.ResourceYield
	}
	return nil
}

// sessionAudience adapts a network.Session to world.Audience, so a
// chunk's per-tick object-stream datagram reaches every session
// watching it without internal/world importing internal/network.
type sessionAudience struct {
	srv  *server
	sess *network.Session
}

func (a sessionAudience) SendDatagram(frame []byte) {
	a.srv.datagram.SendTo(a.sess, frame)
}

// runVesselStreamLoop pushes each controlled vessel's vessel-stream
// datagram to its controlling session once per tick (spec.md §6
// "Vessel-stream datagram").
func (s *server) runVesselStreamLoop(ctx context.Context) {
	interval := time.Duration(float64(time.Second) / s.catalog.Tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sess := range s.hub.Sessions() {
				vid := sess.ControlledVessel()
				if vid == 0 {
					continue
				}
				v := s.lookupVessel(vid)
				if v == nil {
					continue
				}
				mult := s.agencyMgr.PlanetIncomeMultiplier(v.AgencyID, v.HomeBodyID)
				s.datagram.SendTo(sess, v.StreamVesselFrame(mult))
			}
		}
	}
}
