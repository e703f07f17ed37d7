package network

import (
	"net"

	"github.com/google/uuid"

	"github.com/everforgeworks/galaxyserver/internal/obslog"
)

// DatagramServer is the unreliable channel of spec.md §4.6: a single
// shared net.UDPConn carrying object/vessel streams, notifications, and
// instrument updates. No example repo in the retrieval pack models raw
// UDP (every transport example is message-broker or websocket based),
// so this is the one place the project reaches past the pack onto
// net.UDPConn directly -- justified in DESIGN.md.
type DatagramServer struct {
	conn *net.UDPConn
	hub  *Hub
}

// ListenDatagram opens the shared UDP socket at addr (e.g. ":9877").
func ListenDatagram(addr string, hub *Hub) (*DatagramServer, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &DatagramServer{conn: conn, hub: hub}, nil
}

// Close releases the socket.
func (d *DatagramServer) Close() error { return d.conn.Close() }

// Serve reads inbound datagrams until the socket is closed. The only
// opcode a client ever sends is DgHello: a bare 16-byte session uuid,
// used to learn and pin the client's source port (spec.md §4.6).
func (d *DatagramServer) Serve() {
	buf := make([]byte, 2048)
	for {
		n, addr, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if n < 1 {
			continue
		}
		if DatagramOp(buf[0]) != DgHello || n < 17 {
			continue
		}
		id, err := uuid.FromBytes(buf[1:17])
		if err != nil {
			continue
		}
		s, ok := d.hub.Session(id)
		if !ok {
			continue
		}
		s.SetUDPAddr(addr)
		obslog.Log.Debug().Str("session", id.String()).Str("addr", addr.String()).Msg("datagram endpoint pinned")
	}
}

// SendTo delivers a pre-encoded datagram to a single session's pinned
// endpoint; a session with no pinned address yet is silently skipped
// (spec.md §7: "Transient I/O (datagram send) ... log, continue").
func (d *DatagramServer) SendTo(s *Session, data []byte) {
	addr := s.UDPAddr()
	if addr == nil {
		return
	}
	if _, err := d.conn.WriteToUDP(data, addr); err != nil {
		obslog.Log.Debug().Err(err).Str("session", s.ID.String()).Msg("datagram send failed")
	}
}

// SendToAgency implements spec.md §4.6's send_to_agency for datagram
// traffic (e.g. agency-wide notifications).
func (d *DatagramServer) SendToAgency(agencyID uint64, data []byte) {
	for _, s := range d.hub.Sessions() {
		s.mu.Lock()
		match := s.AgencyID == agencyID
		s.mu.Unlock()
		if match {
			d.SendTo(s, data)
		}
	}
}

// SendToChunkAudience implements send_to_chunk_audience for datagram
// traffic: every session whose player's (galaxy, system) matches,
// used for the per-chunk object-stream broadcast every tick.
func (d *DatagramServer) SendToChunkAudience(galaxy, system int, data []byte) {
	for _, s := range d.hub.Sessions() {
		s.mu.Lock()
		match := s.Galaxy == galaxy && s.System == system
		s.mu.Unlock()
		if match {
			d.SendTo(s, data)
		}
	}
}
