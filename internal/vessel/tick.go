package vessel

import (
	"encoding/binary"
	"math"

	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// auKm is one astronomical unit, used by the solar charging curve.
const auKm = 149_597_870.7

// WithCatalog binds the content catalog a vessel's per-tick update reads
// component/tuning data from. Set once after construction or load.
func (v *Vessel) WithCatalog(cat *catalog.Catalog) { v.cat = cat }

// Tick implements world.Tickable, running the full per-tick update order
// from spec.md §4.3 (steps 1-17, minus the gravity pass already folded
// into ctx.Accel by the owning chunk).
func (v *Vessel) Tick(ctx *world.TickContext) {
	if v.Destroyed {
		return
	}
	cat := v.cat
	if cat == nil {
		return
	}
	dt := ctx.DT
	realDtSec := 1.0 / math.Max(cat.Tuning.TickRateHz, 1e-9)

	v.refreshEnvironmentSnapshots(ctx.View)

	home, haveHome := v.resolveHomeBody(ctx.View)
	if haveHome {
		v.atmosphereKmCached = home.AtmosphereKm
	}

	// Step 3: landing-initiation counter.
	if haveHome {
		v.advanceLandingInitiation(home, dt)
	}

	// Step 4: ion, warp, chemical thrust.
	v.applyIonDrive(cat, dt)
	v.applyWarpDrive(cat, dt)
	v.applyChemicalThrust(cat, func(pos, vel world.Vec2, mass, radius float64, stage int) {
		ctx.View.SpawnJettisoned(pos, vel, mass, radius, stage)
	}, dt)

	// Step 5: unland on forward thrust.
	v.maybeUnland()

	// Step 6: altitude integration + ground glue.
	if haveHome {
		prevLanded := v.Landed
		v.integrateAltitude(home, dt)
		if !prevLanded && v.Landed {
			v.onLandedAt(home)
		}
	}

	// Step 7: rotation.
	v.RotationDeg += v.RotationVelocityDegPerSec * dt
	v.RotationDeg = math.Mod(v.RotationDeg, 360)
	if v.RotationDeg < 0 {
		v.RotationDeg += 360
	}

	// Step 8: airborne position integration by external acceleration.
	if !v.Landed {
		a := ctx.Accel
		if l := a.Len(); l > world.MaxAccelKmPerS2 {
			a = a.Normalized().Scale(world.MaxAccelKmPerS2)
		}
		v.Velocity = v.Velocity.Add(a.Scale(dt))
		v.Position = v.Position.Add(v.Velocity.Scale(dt))
	}

	// Step 9: payload behavior on_tick.
	if v.Payload != nil {
		v.Payload.OnTick(v, realDtSec)
	}

	// Step 10: thermal update + hull damage.
	inAtmo := haveHome && v.Altitude < home.AtmosphereKm
	v.AmbientTempC = v.resolveAmbientTempC(ctx.Ambient, home, inAtmo)
	v.updateThermal(inAtmo, dt)

	// Step 11: deployment readiness is computed on demand (DeploymentReady)
	// rather than cached, since it depends on payload-specific requirements.

	// Step 12: destroy if hull < 0.
	if v.Hull < 0 {
		v.Destroyed = true
		return
	}

	// Step 13: throttled instrument pushes (~1Hz, ~5Hz real time).
	v.instrument1HzAccumSec += realDtSec
	v.instrument5HzAccumSec += realDtSec
	if v.InstrumentPush != nil {
		if v.instrument1HzAccumSec >= 1.0 {
			v.instrument1HzAccumSec = 0
			v.InstrumentPush(v, 1)
		}
		if v.instrument5HzAccumSec >= 0.2 {
			v.instrument5HzAccumSec = 0
			v.InstrumentPush(v, 5)
		}
	}

	// Step 14: solar/nuclear charging.
	v.applyCharging(cat, realDtSec)

	// Step 15: clamp speed to c unless warp-active this tick.
	if !v.warpEngagedLastTick {
		v.Velocity = clampLightspeed(v.Velocity)
	}

	// Step 16: vessel-stream datagram is emitted by the caller (network
	// layer) via StreamVesselFrame, after the chunk's tick pass completes.

	// Step 17: PendingMigration flags the candidate move; no cross-chunk
	// migration is performed from it.
	v.PendingMigration = v.Position.Len() >= world.ExitSystemToStarmapKm
}

// resolveHomeBody looks up the vessel's home body through the chunk view
// and adapts it to the landing/thermal math's narrow homeBody type.
func (v *Vessel) resolveHomeBody(view world.ChunkView) (homeBody, bool) {
	if v.HomeBodyID == 0 {
		return homeBody{}, false
	}
	e, ok := view.Lookup(v.HomeBodyID)
	if !ok {
		return homeBody{}, false
	}
	bi, ok := e.(world.BodyInfo)
	if !ok {
		return homeBody{}, false
	}
	surfaceTempC, hasSurfaceTempC := bi.SurfaceTemperatureC()
	return homeBody{
		Position:        bi.Pos(),
		Velocity:        bi.Vel(),
		RadiusKm:        bi.Radius(),
		AtmosphereKm:    bi.AtmosphereHeightKm(),
		RotDeg:          bi.RotationDeg(),
		SurfaceG:        bi.SurfaceGravityKmS2(),
		SurfaceTempC:    surfaceTempC,
		HasSurfaceTempC: hasSurfaceTempC,
	}, true
}

// resolveAmbientTempC implements spec.md §4.1 step 5: a vessel inside
// its home body's atmosphere blends the body's authored surface
// temperature into the chunk-supplied space temperature, linearly by
// altitude/atmosphere fraction (0 = surface, 1 = atmosphere top). A
// vessel in open space, or a body with no authored surface temperature,
// just reports the space temperature unchanged.
func (v *Vessel) resolveAmbientTempC(spaceTempC float64, home homeBody, inAtmo bool) float64 {
	if !inAtmo || !home.HasSurfaceTempC || home.AtmosphereKm <= 0 {
		return spaceTempC
	}
	frac := v.Altitude / home.AtmosphereKm
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return home.SurfaceTempC + (spaceTempC-home.SurfaceTempC)*frac
}

func (v *Vessel) onLandedAt(home homeBody) {
	prevBody := v.LastLandedBodyID
	v.LastLandedBodyID = v.HomeBodyID
	if v.Payload != nil {
		v.Payload.OnLand(v, v.HomeBodyID, prevBody)
	}
}

// applyCharging implements spec.md §4.3 step 14: solar rate scales as
// (1 AU / distance)^2 capped at 1.0; nuclear adds a flat 0.1x declared
// rate. Both feed the current-stage-and-below charge pools, capped.
func (v *Vessel) applyCharging(cat *catalog.Catalog, realDtSec float64) {
	distKm := v.Position.Len()
	if distKm < 1 {
		distKm = 1
	}
	v.SolarChargeEfficiency = math.Min(1.0, math.Pow(auKm/distKm, 2))

	gain := v.SolarPower*v.SolarChargeEfficiency*realDtSec + v.NuclearPower*0.1*realDtSec
	if gain <= 0 {
		return
	}
	for s := v.CurrentStage; s >= 0 && gain > 0; s-- {
		room := v.StageChargeCap[s] - v.StageCharge[s]
		if room <= 0 {
			continue
		}
		take := math.Min(room, gain)
		v.StageCharge[s] += take
		gain -= take
	}
}

// StreamVesselFrame encodes the vessel-stream datagram body (spec.md §6),
// not including the per-session framing the network layer adds.
func (v *Vessel) StreamVesselFrame(planetMult float64) []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, 0x02) // opcode: vessel stream
	buf = binary.LittleEndian.AppendUint64(buf, v.ID)
	buf = binary.LittleEndian.AppendUint64(buf, v.AgencyID)
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.LifetimeRevenue))
	buf = append(buf, boolByte(v.Control.Forward), boolByte(v.Control.Reverse), boolByte(v.Control.CCW), boolByte(v.Control.CW))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.Altitude)))
	buf = binary.LittleEndian.AppendUint64(buf, v.HomeBodyID)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.atmosphereKmCached)))
	buf = binary.LittleEndian.AppendUint64(buf, v.StrongestSourceID)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.StrongestForce)))
	buf = append(buf, boolByte(v.Landed))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.landingInitCounterSec)))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.VerticalVelocity)))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.Hull)))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.AttachedFuel())))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.fuelCapAttached())))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(v.CargoCapacity))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.chargeAttached())))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.chargeCapAttached())))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.SolarChargeEfficiency)))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.AmbientTempC+v.hullTempOverlimitC())))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.TempC)))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.AmbientTempC)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(v.CurrentStage))
	buf = append(buf, boolByte(v.DeploymentReady(false, v.atmosphereKmCached)))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(planetMult)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(v.Systems)))
	for _, sys := range v.Systems {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(sys.Kind))
		buf = append(buf, boolByte(sys.Active))
	}
	buf = append(buf, byte(len(v.OnboardAstronauts)))
	for _, id := range v.OnboardAstronauts {
		buf = binary.LittleEndian.AppendUint32(buf, id)
	}
	return buf
}

func (v *Vessel) fuelCapAttached() float64 {
	total := 0.0
	for s, c := range v.StageFuelCap {
		if s <= v.CurrentStage {
			total += c
		}
	}
	return total
}

func (v *Vessel) chargeAttached() float64 {
	total := 0.0
	for s := 0; s <= v.CurrentStage; s++ {
		total += v.StageCharge[s]
	}
	return total
}

func (v *Vessel) chargeCapAttached() float64 {
	total := 0.0
	for s := 0; s <= v.CurrentStage; s++ {
		total += v.StageChargeCap[s]
	}
	return total
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
