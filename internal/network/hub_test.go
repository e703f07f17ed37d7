package network

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(h *Hub) *Session {
	return &Session{ID: uuid.New(), hub: h, send: make(chan []byte, 8)}
}

func TestHub_SendToSessionDeliversOnlyToTarget(t *testing.T) {
	h := NewHub(nil)
	a := newTestSession(h)
	b := newTestSession(h)
	h.sessions = map[uuid.UUID]*Session{a.ID: a, b.ID: b}

	h.SendToSession(a.ID, OpKeepalive, []byte("hi"))

	select {
	case frame := <-a.send:
		assert.NotEmpty(t, frame)
	case <-time.After(time.Second):
		t.Fatal("target session never received a frame")
	}
	assert.Empty(t, b.send, "a non-target session must not receive anything")
}

func TestHub_SendToAgencyFiltersByAgencyID(t *testing.T) {
	h := NewHub(nil)
	a := newTestSession(h)
	a.AgencyID = 1
	b := newTestSession(h)
	b.AgencyID = 2
	h.sessions = map[uuid.UUID]*Session{a.ID: a, b.ID: b}

	h.SendToAgency(1, OpKeepalive, nil)

	assert.Len(t, a.send, 1)
	assert.Empty(t, b.send, "a session of a different agency must not receive the broadcast")
}

func TestHub_SendToChunkAudienceFiltersByCoordinate(t *testing.T) {
	h := NewHub(nil)
	a := newTestSession(h)
	a.Galaxy, a.System = 1, 2
	b := newTestSession(h)
	b.Galaxy, b.System = 1, 3
	h.sessions = map[uuid.UUID]*Session{a.ID: a, b.ID: b}

	h.SendToChunkAudience(1, 2, OpKeepalive, nil)

	assert.Len(t, a.send, 1)
	assert.Empty(t, b.send)
}

func TestHub_SessionLookupByID(t *testing.T) {
	h := NewHub(nil)
	a := newTestSession(h)
	h.sessions = map[uuid.UUID]*Session{a.ID: a}

	found, ok := h.Session(a.ID)
	require.True(t, ok)
	assert.Same(t, a, found)

	_, ok = h.Session(uuid.New())
	assert.False(t, ok)
}

func TestHub_RegisterUnregisterDrivesOnDisconnect(t *testing.T) {
	var disconnected *Session
	done := make(chan struct{})
	h := NewHub(nil)
	h.OnDisconnect = func(s *Session) {
		disconnected = s
		close(done)
	}
	go h.Run()

	s := newTestSession(h)
	h.register <- s

	require.Eventually(t, func() bool {
		_, ok := h.Session(s.ID)
		return ok
	}, time.Second, 10*time.Millisecond)

	h.unregister <- s

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnDisconnect was never invoked")
	}
	assert.Same(t, s, disconnected)
	_, ok := h.Session(s.ID)
	assert.False(t, ok, "the hub must drop the session from its index")
}

func TestSession_ContextRoundTripsPlayerIdentityAndChunk(t *testing.T) {
	s := &Session{}
	s.SetPlayerContext(10, 20, 1, 2)

	playerID, agencyID, galaxy, system := s.Context()
	assert.Equal(t, uint64(10), playerID)
	assert.Equal(t, uint64(20), agencyID)
	assert.Equal(t, 1, galaxy)
	assert.Equal(t, 2, system)

	s.SetChunk(5, 6)
	_, _, galaxy, system = s.Context()
	assert.Equal(t, 5, galaxy)
	assert.Equal(t, 6, system)
}

func TestSession_ControlledVesselDefaultsToZero(t *testing.T) {
	s := &Session{}
	assert.Zero(t, s.ControlledVessel())
	s.SetControlledVessel(42)
	assert.EqualValues(t, 42, s.ControlledVessel())
}

func TestSession_SendOrderedEnqueuesFrame(t *testing.T) {
	h := NewHub(nil)
	s := newTestSession(h)

	s.SendOrdered(OpKeepalive, []byte("x"))

	select {
	case frame := <-s.send:
		assert.NotEmpty(t, frame)
	default:
		t.Fatal("expected a frame to be queued")
	}
}
