package network

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFrame builds an ordered-channel frame: [opcode:2 LE][payload...]
// (spec.md §4.6).
func EncodeFrame(op Opcode, payload []byte) []byte {
	buf := make([]byte, 2+len(payload))
	binary.LittleEndian.PutUint16(buf, uint16(op))
	copy(buf[2:], payload)
	return buf
}

// DecodeFrame splits an ordered-channel frame into its opcode and
// payload. A frame shorter than the 2-byte header is a protocol error
// (spec.md §7: "Protocol-malformed frame ... drop session").
func DecodeFrame(data []byte) (Opcode, []byte, error) {
	if len(data) < 2 {
		return 0, nil, fmt.Errorf("network: frame too short (%d bytes)", len(data))
	}
	return Opcode(binary.LittleEndian.Uint16(data)), data[2:], nil
}

// ObjectStreamEntry is one object's position/velocity/rotation sample
// (spec.md §6 "Object-stream datagram").
type ObjectStreamEntry struct {
	ID       uint64
	XKm, YKm float64
	VXKmS    float32
	VYKmS    float32
	RotDeg   float32
}

// EncodeObjectStream builds `opcode:1 | seq:2 | count:2 | (id:8, x:8,
// y:8, vx:4, vy:4, rot:4) × count`, all little-endian (spec.md §6). x
// and y are truncated to whole kilometers and written as their
// underlying two's-complement bit pattern reinterpreted unsigned.
func EncodeObjectStream(seq uint16, entries []ObjectStreamEntry) []byte {
	const entryLen = 8 + 8 + 8 + 4 + 4 + 4
	buf := make([]byte, 1+2+2+len(entries)*entryLen)
	buf[0] = byte(DgObjectStream)
	binary.LittleEndian.PutUint16(buf[1:], seq)
	binary.LittleEndian.PutUint16(buf[3:], uint16(len(entries)))
	off := 5
	for _, e := range entries {
		binary.LittleEndian.PutUint64(buf[off:], e.ID)
		binary.LittleEndian.PutUint64(buf[off+8:], uint64(int64(e.XKm)))
		binary.LittleEndian.PutUint64(buf[off+16:], uint64(int64(e.YKm)))
		binary.LittleEndian.PutUint32(buf[off+24:], math.Float32bits(e.VXKmS))
		binary.LittleEndian.PutUint32(buf[off+28:], math.Float32bits(e.VYKmS))
		binary.LittleEndian.PutUint32(buf[off+32:], math.Float32bits(e.RotDeg))
		off += entryLen
	}
	return buf
}

// VesselStreamFields mirrors spec.md §6's "Vessel-stream datagram"
// layout field-for-field.
type VesselStreamFields struct {
	VesselID        uint64
	AgencyID        uint64
	LifetimeRevenue uint64
	Forward         bool
	Reverse         bool
	CCW             bool
	CW              bool
	AltitudeKm      float32
	HomeBodyID      uint64
	AtmosphereKg    float32
	StrongestSrcID  uint64
	StrongestForceN float32
	Landed          bool
	LandingProgress float32
	ZVelocityKmS    float32
	Hull            float32
	Fuel            float32
	FuelCap         float32
	CargoCap        uint16
	Power           float32
	PowerCap        float32
	SolarEff        float32
	ThermalMax      float32
	ThermalCur      float32
	ThermalAmbient  float32
	Stage           uint16
	DeployReady     bool
	PlanetMult      float32
	Systems         []VesselSystemFlag
	SeatAstronautIDs []uint32
}

// VesselSystemFlag is one (sys_type, active) pair in the vessel stream's
// trailing systems table.
type VesselSystemFlag struct {
	SysType uint16
	Active  bool
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func putFloat32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
}

// EncodeVesselStream serializes f per spec.md §6's fixed-then-variable
// layout: every scalar field in declared order, followed by the
// systems table and the onboard-astronaut seat list.
func EncodeVesselStream(f VesselStreamFields) []byte {
	fixedLen := 1 + 8 + 8 + 8 + 1 + 1 + 1 + 1 + 4 + 8 + 4 + 8 + 4 + 1 + 4 + 4 + 4 + 4 + 4 + 2 + 4 + 4 + 4 + 4 + 4 + 4 + 2 + 1 + 4 + 2 + 1
	buf := make([]byte, fixedLen+len(f.Systems)*3+len(f.SeatAstronautIDs)*4)

	off := 0
	buf[off] = byte(DgVesselStream)
	off++
	binary.LittleEndian.PutUint64(buf[off:], f.VesselID)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], f.AgencyID)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], f.LifetimeRevenue)
	off += 8
	buf[off] = boolByte(f.Forward)
	off++
	buf[off] = boolByte(f.Reverse)
	off++
	buf[off] = boolByte(f.CCW)
	off++
	buf[off] = boolByte(f.CW)
	off++
	putFloat32(buf, off, f.AltitudeKm)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], f.HomeBodyID)
	off += 8
	putFloat32(buf, off, f.AtmosphereKg)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], f.StrongestSrcID)
	off += 8
	putFloat32(buf, off, f.StrongestForceN)
	off += 4
	buf[off] = boolByte(f.Landed)
	off++
	putFloat32(buf, off, f.LandingProgress)
	off += 4
	putFloat32(buf, off, f.ZVelocityKmS)
	off += 4
	putFloat32(buf, off, f.Hull)
	off += 4
	putFloat32(buf, off, f.Fuel)
	off += 4
	putFloat32(buf, off, f.FuelCap)
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], f.CargoCap)
	off += 2
	putFloat32(buf, off, f.Power)
	off += 4
	putFloat32(buf, off, f.PowerCap)
	off += 4
	putFloat32(buf, off, f.SolarEff)
	off += 4
	putFloat32(buf, off, f.ThermalMax)
	off += 4
	putFloat32(buf, off, f.ThermalCur)
	off += 4
	putFloat32(buf, off, f.ThermalAmbient)
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], f.Stage)
	off += 2
	buf[off] = boolByte(f.DeployReady)
	off++
	putFloat32(buf, off, f.PlanetMult)
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(f.Systems)))
	off += 2
	for _, sys := range f.Systems {
		binary.LittleEndian.PutUint16(buf[off:], sys.SysType)
		off += 2
		buf[off] = boolByte(sys.Active)
		off++
	}
	buf[off] = byte(len(f.SeatAstronautIDs))
	off++
	for _, id := range f.SeatAstronautIDs {
		binary.LittleEndian.PutUint32(buf[off:], id)
		off += 4
	}
	return buf[:off]
}
