package network

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/everforgeworks/galaxyserver/internal/obslog"
)

// Hub tracks every live session and implements the three fan-out
// audiences of spec.md §4.6 (send_to_session, send_to_agency,
// send_to_chunk_audience). Generalized from the teacher's single
// "every client" Hub.Broadcast.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	register   chan *Session
	unregister chan *Session

	handle OrderedHandler

	// OnDisconnect is invoked (outside the hub's lock) once a session
	// is fully torn down, so the process entry point can release
	// controller backrefs and UDP endpoint mappings (spec.md §5
	// "Cancellation").
	OnDisconnect func(s *Session)
}

// NewHub constructs a Hub; handle processes every decoded ordered
// frame that isn't a keepalive.
func NewHub(handle OrderedHandler) *Hub {
	return &Hub{
		sessions:   make(map[uuid.UUID]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		handle:     handle,
	}
}

// Run is the Hub's event loop; run it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s.ID] = s
			h.mu.Unlock()
			obslog.Log.Info().Str("session", s.ID.String()).Msg("session registered")

		case s := <-h.unregister:
			h.mu.Lock()
			_, ok := h.sessions[s.ID]
			if ok {
				delete(h.sessions, s.ID)
				close(s.send)
			}
			h.mu.Unlock()
			if ok && h.OnDisconnect != nil {
				h.OnDisconnect(s)
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades an HTTP request to the ordered websocket channel and
// starts its pump goroutines.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		obslog.Log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s := newSession(h, conn)
	h.register <- s
	go s.writePump()
	go s.readPump(h.handle)
}

// Session looks up a live session by id, for datagram-channel hello
// correlation.
func (h *Hub) Session(id uuid.UUID) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// SendToSession implements spec.md §4.6's send_to_session.
func (h *Hub) SendToSession(id uuid.UUID, op Opcode, payload []byte) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if ok {
		s.SendOrdered(op, payload)
	}
}

// SendToAgency implements send_to_agency: every session whose player
// belongs to agencyID.
func (h *Hub) SendToAgency(agencyID uint64, op Opcode, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.mu.Lock()
		match := s.AgencyID == agencyID
		s.mu.Unlock()
		if match {
			s.SendOrdered(op, payload)
		}
	}
}

// SendToChunkAudience implements send_to_chunk_audience: every session
// whose player's (galaxy, system) matches.
func (h *Hub) SendToChunkAudience(galaxy, system int, op Opcode, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.mu.Lock()
		match := s.Galaxy == galaxy && s.System == system
		s.mu.Unlock()
		if match {
			s.SendOrdered(op, payload)
		}
	}
}

// Sessions returns a snapshot of every live session, for callers that
// need to iterate without holding the hub's lock (e.g. datagram
// fan-out from the physics tick).
func (h *Hub) Sessions() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}
