// Package vessel implements the composite physical vessel (C5): staged
// propellant/power pools, thrust/torque integration, thermal regulation,
// payload-behavior plug-ins, and upgrade gating (spec.md §4.3).
package vessel

import (
	"math"

	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// SpeedOfLightKmS is c (spec.md §4.3.3).
const SpeedOfLightKmS = 299792.458

// ControlState is the live control-bit set a session mutates (spec.md §3).
type ControlState struct {
	Forward, Reverse, CW, CCW bool
}

// SystemKind tags one of the four electrical systems (spec.md §3).
type SystemKind int

const (
	SysThermalRegulator SystemKind = iota
	SysMagnetometer
	SysIonDrive
	SysWarpDrive
)

// ElectricalSystem is one of the vessel's {amount, draw, active} systems.
type ElectricalSystem struct {
	Kind   SystemKind
	Amount float64
	Draw   float64
	Active bool
}

// AttachedComponent is one placed component instance (spec.md §3).
type AttachedComponent struct {
	ID            uint64
	ComponentID   string
	LocalPos      world.Vec2
	PaintPrimary  string
	PaintSecondary string
	Stage         int
}

// PayloadBehavior is the narrow strategy interface from spec.md §9's
// redesign notes. Implementations live in internal/payload and register
// themselves via RegisterPayloadFactory at package init, so this package
// never imports internal/payload (avoiding a vessel<->payload cycle).
type PayloadBehavior interface {
	OnAttach(v *Vessel)
	OnDetach(v *Vessel)
	OnTick(v *Vessel, realDtSec float64)
	OnLand(v *Vessel, bodyID, prevBodyID uint64)
	OnUnland(v *Vessel, bodyID uint64)
}

// AgencyView is the narrow slice of the agency subsystem (C7) that
// payload behaviors and income crediting need. It is a live handle set
// on the vessel at construction/load time, not persisted (spec.md §4.7:
// "shared" is transient).
type AgencyView interface {
	CreditIncome(agencyID uint64, amount float64)
	GlobalCashMultiplier() float64
	PlanetIncomeMultiplier(agencyID, planetID uint64) float64
	AddDiscovery(agencyID, planetID uint64) bool
	UpgradeTier(agencyID uint64, system string) int
	FriendlyDeployedPayloads(agencyID uint64, chunkKey [2]int, kind string) []PayloadLocation
	TrainAstronauts(agencyID uint64, ids []uint32, xpPerSec, realDtSec float64)
	AwardXP(agencyID uint64, ids []uint32, xp float64)
	SumAstronautLevels(agencyID uint64, ids []uint32) int
	ConstructBuildingOnLand(agencyID, bodyID uint64, planetName, buildingType string, longitude float64) bool
}

// PayloadLocation is a minimal snapshot used for proximity-based payload
// bonuses (comms relay PING tiers).
type PayloadLocation struct {
	VesselID  uint64
	Pos       world.Vec2
	BaseIncome float64
}

var payloadFactories = map[string]func() PayloadBehavior{}

// RegisterPayloadFactory is called by internal/payload's init functions.
func RegisterPayloadFactory(kind string, f func() PayloadBehavior) {
	payloadFactories[kind] = f
}

// NewPayloadBehavior builds a fresh behavior instance for kind, or nil
// if unregistered.
func NewPayloadBehavior(kind string) PayloadBehavior {
	if f, ok := payloadFactories[kind]; ok {
		return f()
	}
	return nil
}

// Vessel is the composite physical object described in spec.md §3.
type Vessel struct {
	ID       uint64
	Name     string
	AgencyID uint64

	Position world.Vec2
	Velocity world.Vec2
	RotationDeg               float64
	RotationVelocityDegPerSec float64

	Components []AttachedComponent
	StageFuel     map[int]float64
	StageFuelCap  map[int]float64
	StageCharge   map[int]float64
	StageChargeCap map[int]float64

	CurrentStage int
	NumStages    int

	// Cached aggregate stats, recomputed by RecomputeStats whenever the
	// component set or current stage changes.
	ForwardThrustKN float64
	ReverseThrustKN float64
	SolarPower      float64
	NuclearPower    float64
	Armor           float64
	Aerodynamics    float64
	CargoCapacity   int
	SeatCount       int
	MaxWarpTier     int
	DryMass         float64
	ThermalResistanceSec float64

	Systems []ElectricalSystem
	Control ControlState

	ControlledBy uint64

	PayloadKind string
	Payload     PayloadBehavior
	// UnlockedUpgrades is scoped to the current payload kind: swapping
	// payload kind swaps the active set (spec.md §3).
	UnlockedUpgrades map[string]map[string]bool

	// Galaxy, SystemCoord locate the vessel's current chunk for
	// same-chunk proximity queries (comms relay PING tiers); kept in
	// step with the chunk manager's migration bookkeeping via
	// SetChunkKey. Named SystemCoord, not System, since System is
	// already the electrical-system lookup method below.
	Galaxy, SystemCoord int

	Landed          bool
	LandingProgress float64
	HomeBodyID      uint64
	StrongestSourceID uint64
	StrongestForce    float64
	Altitude          float64
	VerticalVelocity  float64
	Hull              float64
	TempC             float64
	AmbientTempC      float64
	LifetimeRevenue   float64
	revenueFractionalCarry float64
	Region            world.Region
	VisitedPlanets    map[uint64]bool
	Cargo             map[string]int
	OnboardAstronauts []uint32
	LastLandedBodyID  uint64
	TelescopeSight    []uint64
	TelescopeTargetAngleDeg float64
	SystemActive      bool

	Agency AgencyView

	// Per-tick environment snapshots, refreshed by refreshEnvironmentSnapshots
	// for payload behaviors to read without touching the chunk directly.
	HomeBodySnapshot        *BodySnapshot
	StrongestSourceSnapshot *BodySnapshot
	NearbyNonMoonPlanets    []BodySnapshot
	NearbyBodies            []BodySnapshot // moon-inclusive; discovery + nearest-planet resolution
	HomeResourceYield       map[string]float64

	lastForwardThrustAccumKN float64
	takeoffGraceSec          float64
	landingInitCounterSec    float64
	warpSavedVelocity        world.Vec2
	warpEngagedLastTick      bool
	warpBonus                world.Vec2

	instrument1HzAccumSec float64
	instrument5HzAccumSec float64

	SolarChargeEfficiency float64
	atmosphereKmCached    float64

	Destroyed bool

	// PendingMigration is set by Tick when the vessel has crossed the
	// system-exit threshold (spec.md §4.2, §4.3 step 17). Nothing reads
	// it: the chunk manager performs no cross-chunk move for it.
	PendingMigration bool

	// InstrumentPush, when set, is invoked at ~1Hz and ~5Hz real-time to
	// push throttled instrument telemetry (upgrade-tree, magnetometer,
	// telescope sight); wired by internal/network per session.
	InstrumentPush func(v *Vessel, hz int)

	// cat is the content catalog, bound once via WithCatalog after
	// construction or load.
	cat *catalog.Catalog
}

func (v *Vessel) ObjectID() uint64    { return v.ID }
func (v *Vessel) Kind() world.Kind    { return world.KindVessel }
func (v *Vessel) Pos() world.Vec2     { return v.Position }
func (v *Vessel) SetPos(p world.Vec2) { v.Position = p }
func (v *Vessel) Vel() world.Vec2     { return v.Velocity }
func (v *Vessel) SetVel(vv world.Vec2) { v.Velocity = vv }
func (v *Vessel) Radius() float64     { return 1.0 }

// Mass implements the invariant mass = dry + attached_fuel (spec.md §3).
func (v *Vessel) Mass() float64 {
	return v.DryMass + v.AttachedFuel()
}

// AttachedFuel sums fuel for every stage s <= current_stage.
func (v *Vessel) AttachedFuel() float64 {
	total := 0.0
	for s, f := range v.StageFuel {
		if s <= v.CurrentStage {
			total += f
		}
	}
	return total
}

func (v *Vessel) SetRegion(r world.Region) { v.Region = r }

// SetChunkKey records the (galaxy, system) of the chunk currently owning
// this vessel, called by the chunk manager on construction and migration.
func (v *Vessel) SetChunkKey(galaxy, system int) { v.Galaxy, v.SystemCoord = galaxy, system }

func (v *Vessel) NoteGravitySource(sourceID uint64, forceKN float64) {
	if forceKN > v.StrongestForce {
		v.StrongestForce = forceKN
		v.StrongestSourceID = sourceID
	}
}

func (v *Vessel) StreamFrame() world.ObjectFrame {
	return world.ObjectFrame{
		ID: v.ID, X: v.Position.X, Y: v.Position.Y,
		VX: float32(v.Velocity.X), VY: float32(v.Velocity.Y),
		Rotation: float32(v.RotationDeg),
	}
}

// System returns a pointer to the named electrical system, or nil.
func (v *Vessel) System(kind SystemKind) *ElectricalSystem {
	for i := range v.Systems {
		if v.Systems[i].Kind == kind {
			return &v.Systems[i]
		}
	}
	return nil
}

// ChargeFraction returns the vessel's current/capacity charge across
// stages <= current stage, used by the ion/warp charge gates (>5%).
func (v *Vessel) ChargeFraction() float64 {
	var cur, cap float64
	for s := 0; s <= v.CurrentStage; s++ {
		cur += v.StageCharge[s]
		cap += v.StageChargeCap[s]
	}
	if cap == 0 {
		return 0
	}
	return cur / cap
}

// DrawCharge pays amount from the stage pool current-stage-downward,
// returning the fraction actually paid (the "throttle"), per spec.md
// §4.3.1.
func (v *Vessel) DrawCharge(amount float64) float64 {
	remaining := amount
	for s := v.CurrentStage; s >= 0 && remaining > 0; s-- {
		avail := v.StageCharge[s]
		take := math.Min(avail, remaining)
		v.StageCharge[s] -= take
		remaining -= take
	}
	paid := amount - remaining
	if amount == 0 {
		return 0
	}
	return paid / amount
}

// DrawFuel pays amount of propellant from the current stage only,
// returning how much was actually drawn (spec.md §4.3.3).
func (v *Vessel) DrawFuel(amount float64) float64 {
	avail := v.StageFuel[v.CurrentStage]
	take := math.Min(avail, amount)
	v.StageFuel[v.CurrentStage] -= take
	return take
}

// CargoTotal sums cargo quantities.
func (v *Vessel) CargoTotal() int {
	total := 0
	for _, q := range v.Cargo {
		total += q
	}
	return total
}

// AddCargo clamps to CargoCapacity, adding only what fits and dropping
// the overflow; it returns the quantity added (spec.md §3 invariant:
// sum cargo <= capacity).
func (v *Vessel) AddCargo(resourceID string, qty int) int {
	room := v.CargoCapacity - v.CargoTotal()
	if room <= 0 {
		return 0
	}
	if qty > room {
		qty = room
	}
	v.Cargo[resourceID] += qty
	return qty
}

// TrimCargoLargestFirst enforces the cargo-capacity invariant after
// staging drops CargoCapacity, trimming the largest stacks first
// (spec.md §3 invariant).
func (v *Vessel) TrimCargoLargestFirst() {
	for v.CargoTotal() > v.CargoCapacity {
		var maxKey string
		maxQty := -1
		for k, q := range v.Cargo {
			if q > maxQty {
				maxQty = q
				maxKey = k
			}
		}
		if maxKey == "" {
			return
		}
		over := v.CargoTotal() - v.CargoCapacity
		cut := over
		if cut > v.Cargo[maxKey] {
			cut = v.Cargo[maxKey]
		}
		v.Cargo[maxKey] -= cut
		if v.Cargo[maxKey] == 0 {
			delete(v.Cargo, maxKey)
		}
	}
}

// CreditIncome implements the whole/fractional income split shared by
// every payload behavior (spec.md §4.4): the fractional remainder
// carries forward tick to tick, whole units flow into lifetime revenue
// and are credited to the owning agency (distributed evenly across its
// members there).
func (v *Vessel) CreditIncome(amount float64) {
	total := v.revenueFractionalCarry + amount
	whole := math.Floor(total)
	v.revenueFractionalCarry = total - whole
	if whole <= 0 {
		return
	}
	v.LifetimeRevenue += whole
	if v.Agency != nil {
		v.Agency.CreditIncome(v.AgencyID, whole)
	}
}

// ComponentBuildOnLand reports the first attached component's
// build-on-land directive, if any (spec.md §4.4 crewed payload).
func (v *Vessel) ComponentBuildOnLand() (planetName, buildingType string, ok bool) {
	if v.cat == nil {
		return "", "", false
	}
	for _, ac := range v.Components {
		c := v.cat.Components[ac.ComponentID]
		if c != nil && c.BuildOnLand[0] != "" {
			return c.BuildOnLand[0], c.BuildOnLand[1], true
		}
	}
	return "", "", false
}

// PayloadBaseIncome returns the attached payload component's authored
// base income attribute, or 0 if none is attached.
func (v *Vessel) PayloadBaseIncome() float64 {
	if v.cat == nil {
		return 0
	}
	for _, ac := range v.Components {
		if ac.Stage != v.CurrentStage {
			continue
		}
		if c := v.cat.Components[ac.ComponentID]; c != nil && c.IsPayload {
			return c.BaseIncome
		}
	}
	return 0
}

// PayloadAttr reports the attached payload component's training-xp-rate
// and rover-km-per-sec attributes, with spec.md §4.4's defaults.
func (v *Vessel) PayloadAttr() (trainingXPRate, roverKmPerSec float64) {
	trainingXPRate, roverKmPerSec = 0.1, 1.0
	if v.cat == nil {
		return
	}
	for _, ac := range v.Components {
		if ac.Stage != v.CurrentStage {
			continue
		}
		if c := v.cat.Components[ac.ComponentID]; c != nil && c.IsPayload {
			if c.TrainingXPRate > 0 {
				trainingXPRate = c.TrainingXPRate
			}
			if c.RoverKmPerSec > 0 {
				roverKmPerSec = c.RoverKmPerSec
			}
			return
		}
	}
	return
}

// HasUpgrade reports whether code is unlocked for the vessel's current
// payload kind (spec.md §3: "scoped to the current payload kind").
func (v *Vessel) HasUpgrade(code string) bool {
	set := v.UnlockedUpgrades[v.PayloadKind]
	return set != nil && set[code]
}

// DeploymentReady reports whether the vessel is in the flight regime
// required to drop the current stage: landed (when the payload requires
// landing) or above the atmosphere (spec.md glossary "Deployment-ready").
func (v *Vessel) DeploymentReady(requiresLanding bool, atmosphereKm float64) bool {
	if requiresLanding {
		return v.Landed
	}
	return v.Altitude >= atmosphereKm
}
