package persistence

import (
	"github.com/everforgeworks/galaxyserver/internal/vessel"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// bodyDTO is the gob-serializable projection of world.Body, shared by
// every celestial-body kind's on-disk record.
type bodyDTO struct {
	ID             uint64
	Name           string
	Position       world.Vec2
	Velocity       world.Vec2
	MassKg         float64
	RadiusKm       float64
	RotDeg         float64
	SpinDegPerSec  float64
	AtmosphereKm   float64
	SurfaceTempC   *float64
	ResourceYield  map[string]float64
	IsGasGiant     bool
	IsMoon         bool
	VacuumDescentDamperSec float64
	ParentID       uint64
	OrbitRadius    float64
}

func bodyToDTO(b *world.Body) bodyDTO {
	return bodyDTO{
		ID: b.ID, Name: b.Name, Position: b.Position, Velocity: b.Velocity,
		MassKg: b.MassKg, RadiusKm: b.RadiusKm, RotDeg: b.RotDeg,
		SpinDegPerSec: b.SpinDegPerSec, AtmosphereKm: b.AtmosphereKm,
		SurfaceTempC: b.SurfaceTempC, ResourceYield: b.ResourceYield,
		IsGasGiant: b.IsGasGiant, IsMoon: b.IsMoon,
		VacuumDescentDamperSec: b.VacuumDescentDamperSec,
		ParentID:               b.ParentID, OrbitRadius: b.OrbitRadius,
	}
}

func (d bodyDTO) toBody() world.Body {
	return world.Body{
		ID: d.ID, Name: d.Name, Position: d.Position, Velocity: d.Velocity,
		MassKg: d.MassKg, RadiusKm: d.RadiusKm, RotDeg: d.RotDeg,
		SpinDegPerSec: d.SpinDegPerSec, AtmosphereKm: d.AtmosphereKm,
		SurfaceTempC: d.SurfaceTempC, ResourceYield: d.ResourceYield,
		IsGasGiant: d.IsGasGiant, IsMoon: d.IsMoon,
		VacuumDescentDamperSec: d.VacuumDescentDamperSec,
		ParentID:               d.ParentID, OrbitRadius: d.OrbitRadius,
	}
}

type jettisonedDTO struct {
	Body        bodyDTO
	Stage       int
	LifetimeSec float64
}

// vesselDTO is the gob-serializable projection of vessel.Vessel. Per
// spec.md §4.7, the agency view ("shared"), the owning chunk back-
// reference ("home_chunk"), the payload behavior instance, and the
// telescope sight list are all transient: none of them appear here.
// The payload behavior is rebuilt from PayloadKind via
// vessel.NewPayloadBehavior, the chunk back-reference is implicit in
// which chunk file this record was loaded from, and the agency view is
// rebound by the load driver once every manager exists.
type vesselDTO struct {
	ID       uint64
	Name     string
	AgencyID uint64

	Position                  world.Vec2
	Velocity                  world.Vec2
	RotationDeg               float64
	RotationVelocityDegPerSec float64

	Components     []vessel.AttachedComponent
	StageFuel      map[int]float64
	StageFuelCap   map[int]float64
	StageCharge    map[int]float64
	StageChargeCap map[int]float64

	CurrentStage int
	NumStages    int
	DryMass      float64

	Systems []vessel.ElectricalSystem
	Control vessel.ControlState

	PayloadKind      string
	UnlockedUpgrades map[string]map[string]bool

	Landed            bool
	LandingProgress   float64
	HomeBodyID        uint64
	StrongestSourceID uint64
	StrongestForce    float64
	Altitude          float64
	VerticalVelocity  float64
	Hull              float64
	TempC             float64
	AmbientTempC      float64
	LifetimeRevenue   float64
	Region            world.Region
	VisitedPlanets    map[uint64]bool
	Cargo             map[string]int
	OnboardAstronauts []uint32
	LastLandedBodyID  uint64
	TelescopeTargetAngleDeg float64
	SystemActive      bool

	Destroyed bool
}

func vesselToDTO(v *vessel.Vessel) vesselDTO {
	return vesselDTO{
		ID: v.ID, Name: v.Name, AgencyID: v.AgencyID,
		Position: v.Position, Velocity: v.Velocity,
		RotationDeg: v.RotationDeg, RotationVelocityDegPerSec: v.RotationVelocityDegPerSec,
		Components: v.Components, StageFuel: v.StageFuel, StageFuelCap: v.StageFuelCap,
		StageCharge: v.StageCharge, StageChargeCap: v.StageChargeCap,
		CurrentStage: v.CurrentStage, NumStages: v.NumStages, DryMass: v.DryMass,
		Systems: v.Systems, Control: v.Control,
		PayloadKind: v.PayloadKind, UnlockedUpgrades: v.UnlockedUpgrades,
		Landed: v.Landed, LandingProgress: v.LandingProgress, HomeBodyID: v.HomeBodyID,
		StrongestSourceID: v.StrongestSourceID, StrongestForce: v.StrongestForce,
		Altitude: v.Altitude, VerticalVelocity: v.VerticalVelocity, Hull: v.Hull,
		TempC: v.TempC, AmbientTempC: v.AmbientTempC, LifetimeRevenue: v.LifetimeRevenue,
		Region: v.Region, VisitedPlanets: v.VisitedPlanets, Cargo: v.Cargo,
		OnboardAstronauts: v.OnboardAstronauts, LastLandedBodyID: v.LastLandedBodyID,
		TelescopeTargetAngleDeg: v.TelescopeTargetAngleDeg, SystemActive: v.SystemActive,
		Destroyed: v.Destroyed,
	}
}

// toVessel rebuilds a live Vessel from its disk record. The caller must
// still call WithCatalog, RecomputeStats, SetChunkKey, bind an
// AgencyView, and (if PayloadKind is set) OnAttach the rebuilt payload
// behavior -- all of which need state this package does not own.
func (d vesselDTO) toVessel() *vessel.Vessel {
	v := &vessel.Vessel{
		ID: d.ID, Name: d.Name, AgencyID: d.AgencyID,
		Position: d.Position, Velocity: d.Velocity,
		RotationDeg: d.RotationDeg, RotationVelocityDegPerSec: d.RotationVelocityDegPerSec,
		Components: d.Components, StageFuel: d.StageFuel, StageFuelCap: d.StageFuelCap,
		StageCharge: d.StageCharge, StageChargeCap: d.StageChargeCap,
		CurrentStage: d.CurrentStage, NumStages: d.NumStages, DryMass: d.DryMass,
		Systems: d.Systems, Control: d.Control,
		PayloadKind: d.PayloadKind, UnlockedUpgrades: d.UnlockedUpgrades,
		Landed: d.Landed, LandingProgress: d.LandingProgress, HomeBodyID: d.HomeBodyID,
		StrongestSourceID: d.StrongestSourceID, StrongestForce: d.StrongestForce,
		Altitude: d.Altitude, VerticalVelocity: d.VerticalVelocity, Hull: d.Hull,
		TempC: d.TempC, AmbientTempC: d.AmbientTempC, LifetimeRevenue: d.LifetimeRevenue,
		Region: d.Region, VisitedPlanets: d.VisitedPlanets, Cargo: d.Cargo,
		OnboardAstronauts: d.OnboardAstronauts, LastLandedBodyID: d.LastLandedBodyID,
		TelescopeTargetAngleDeg: d.TelescopeTargetAngleDeg, SystemActive: d.SystemActive,
		Destroyed: d.Destroyed,
	}
	if v.UnlockedUpgrades == nil {
		v.UnlockedUpgrades = make(map[string]map[string]bool)
	}
	if v.Cargo == nil {
		v.Cargo = make(map[string]int)
	}
	if v.VisitedPlanets == nil {
		v.VisitedPlanets = make(map[uint64]bool)
	}
	return v
}

// chunkRecord is the complete on-disk body of one chunk's binary file.
type chunkRecord struct {
	Galaxy, System int
	Kind           world.ChunkKind
	Points         []world.MapPoint
	Suns           []bodyDTO
	Planets        []bodyDTO
	Asteroids      []bodyDTO
	Jettisoned     []jettisonedDTO
	Vessels        []vesselDTO
}
