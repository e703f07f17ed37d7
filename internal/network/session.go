package network

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/everforgeworks/galaxyserver/internal/obslog"
)

// OrderedHandler processes one decoded ordered-channel frame for a
// session. Supplied by the process entry point, since only it knows
// about the world/agency managers a handler needs to mutate.
type OrderedHandler func(s *Session, op Opcode, payload []byte)

// Session is one connected player: the reliable ordered websocket
// connection plus the pinned UDP endpoint for the unreliable datagram
// channel (spec.md §4.6). Mirrors the teacher's Client -- a conn, a
// buffered outbound channel, and a pair of pump goroutines -- widened
// to the two-channel protocol.
type Session struct {
	ID uuid.UUID

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu         sync.Mutex
	udpAddr    *net.UDPAddr
	PlayerID   uint64
	AgencyID   uint64
	Galaxy     int
	System     int
	VesselID   uint64 // currently controlled vessel, 0 if none
	lastSeenAt time.Time
}

func newSession(hub *Hub, conn *websocket.Conn) *Session {
	return &Session{
		ID:         uuid.New(),
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		lastSeenAt: time.Now(),
	}
}

// SetUDPAddr pins the client's source UDP port once learned from its
// first hello datagram (spec.md §4.6).
func (s *Session) SetUDPAddr(addr *net.UDPAddr) {
	s.mu.Lock()
	s.udpAddr = addr
	s.mu.Unlock()
}

// UDPAddr returns the pinned endpoint, or nil if no hello datagram has
// arrived yet.
func (s *Session) UDPAddr() *net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.udpAddr
}

// SetPlayerContext records the handshake's identity and the session's
// current chunk coordinates, both read by the hub's fan-out helpers
// under the same lock.
func (s *Session) SetPlayerContext(playerID, agencyID uint64, galaxy, system int) {
	s.mu.Lock()
	s.PlayerID, s.AgencyID, s.Galaxy, s.System = playerID, agencyID, galaxy, system
	s.mu.Unlock()
}

// Context returns the session's player/agency identity and current
// chunk coordinates, read under the same lock SetPlayerContext/SetChunk
// write through.
func (s *Session) Context() (playerID, agencyID uint64, galaxy, system int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PlayerID, s.AgencyID, s.Galaxy, s.System
}

// SetChunk updates just the session's (galaxy, system), e.g. after its
// controlled vessel migrates between chunks.
func (s *Session) SetChunk(galaxy, system int) {
	s.mu.Lock()
	s.Galaxy, s.System = galaxy, system
	s.mu.Unlock()
}

// SetControlledVessel records which vessel id this session currently
// controls, 0 meaning none.
func (s *Session) SetControlledVessel(vesselID uint64) {
	s.mu.Lock()
	s.VesselID = vesselID
	s.mu.Unlock()
}

// ControlledVessel returns the currently controlled vessel id, 0 if none.
func (s *Session) ControlledVessel() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.VesselID
}

// Disconnect tears the session down, e.g. after an unknown opcode
// (spec.md §7: "Unknown control/opcode ... log and drop session").
func (s *Session) Disconnect() {
	s.hub.unregister <- s
}

// SendOrdered enqueues an ordered-channel frame for delivery; it never
// blocks the caller -- a full send buffer is treated as a dead session.
func (s *Session) SendOrdered(op Opcode, payload []byte) {
	select {
	case s.send <- EncodeFrame(op, payload):
	default:
		go func() { s.hub.unregister <- s }()
	}
}

func (s *Session) readPump(handle OrderedHandler) {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				obslog.Log.Warn().Err(err).Str("session", s.ID.String()).Msg("ordered channel read error")
			}
			return
		}
		op, payload, err := DecodeFrame(data)
		if err != nil {
			obslog.Log.Warn().Err(err).Str("session", s.ID.String()).Msg("malformed frame, dropping session")
			return
		}
		if op == OpKeepalive {
			s.mu.Lock()
			s.lastSeenAt = time.Now()
			s.mu.Unlock()
			continue
		}
		handle(s, op, payload)
	}
}

func (s *Session) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		w, err := s.conn.NextWriter(websocket.BinaryMessage)
		if err != nil {
			return
		}
		w.Write(msg)
		if err := w.Close(); err != nil {
			return
		}
	}
}
