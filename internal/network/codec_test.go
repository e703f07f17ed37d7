package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrame_RoundTrips(t *testing.T) {
	frame := EncodeFrame(OpKeepalive, []byte("payload"))

	op, payload, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, OpKeepalive, op)
	assert.Equal(t, []byte("payload"), payload)
}

func TestDecodeFrame_TooShortIsAnError(t *testing.T) {
	_, _, err := DecodeFrame([]byte{0x01})
	assert.Error(t, err)
}

func TestEncodeObjectStream_HeaderAndEntryCount(t *testing.T) {
	entries := []ObjectStreamEntry{
		{ID: 1, XKm: 10, YKm: -20, VXKmS: 1.5, VYKmS: -2.5, RotDeg: 90},
		{ID: 2, XKm: 30, YKm: 40},
	}
	buf := EncodeObjectStream(7, entries)

	assert.Equal(t, byte(DgObjectStream), buf[0])
	assert.Equal(t, 1+2+2+2*36, len(buf), "header plus 36 bytes per entry")
}

func TestEncodeVesselStream_LengthMatchesVariableTail(t *testing.T) {
	f := VesselStreamFields{
		VesselID: 5,
		Systems:  []VesselSystemFlag{{SysType: 1, Active: true}, {SysType: 2}},
		SeatAstronautIDs: []uint32{10, 11, 12},
	}
	buf := EncodeVesselStream(f)

	assert.Equal(t, byte(DgVesselStream), buf[0])
	assert.Equal(t, 114+2*3+3*4, len(buf), "114-byte fixed part plus 3 bytes per system and 4 per seat")
}
