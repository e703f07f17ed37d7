package vessel

import (
	"fmt"

	"github.com/everforgeworks/galaxyserver/internal/apierr"
	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// Ledger is the narrow view of the requester's money and the base's
// inventory a construction request needs (spec.md §4.3). Implemented by
// internal/agency; defined here so vessel never imports agency.
type Ledger interface {
	PlayerMoney(playerID uint64) int
	DeductPlayerMoney(playerID uint64, amount int) bool
	BaseInventory(bodyID uint64) map[string]int
	DeductBaseResources(bodyID uint64, need map[string]int) bool
}

// ConstructionRequest is the full input to Construct (spec.md §4.3).
type ConstructionRequest struct {
	Placements        []Placement
	Connections       []Connection
	BaseBodyID        uint64
	LaunchpadAngleDeg float64
	Name              string
	RequesterPlayerID uint64
	AgencyID          uint64
}

// Construct validates and builds a vessel atomically: it either deducts
// money+resources and returns a new Vessel, or changes nothing and
// returns a *apierr.Rejection (spec.md §4.3, §7, §8 scenario 5).
func Construct(cat *catalog.Catalog, ledger Ledger, ids interface{ Next() uint64 }, req ConstructionRequest, basePos, baseVel world.Vec2) (*Vessel, error) {
	moneyCost := 0
	resourceCost := map[string]int{}
	for _, p := range req.Placements {
		c := cat.Components[p.ComponentID]
		if c == nil {
			return nil, apierr.Reject(apierr.ReasonNotFound, "unknown component %q", p.ComponentID)
		}
		moneyCost += c.MoneyCost
		for rid, qty := range c.ResourceCost {
			resourceCost[rid] += qty
		}
	}

	if ledger.PlayerMoney(req.RequesterPlayerID) < moneyCost {
		return nil, apierr.Reject(apierr.ReasonInsufficientFunds, "need %d credits", moneyCost)
	}
	inv := ledger.BaseInventory(req.BaseBodyID)
	for rid, need := range resourceCost {
		if inv[rid] < need {
			return nil, apierr.Reject(apierr.ReasonInsufficientResource, "need %d of %s", need, rid)
		}
	}

	stages, payloadIdx, err := SolveStaging(cat, req.Placements, req.Connections)
	if err != nil {
		return nil, apierr.Reject(apierr.ReasonNotFound, "%v", err)
	}

	// Atomic: verified above, deduct now, before building the vessel.
	if !ledger.DeductPlayerMoney(req.RequesterPlayerID, moneyCost) {
		return nil, apierr.Reject(apierr.ReasonInsufficientFunds, "concurrent fund change")
	}
	if !ledger.DeductBaseResources(req.BaseBodyID, resourceCost) {
		return nil, apierr.Reject(apierr.ReasonInsufficientResource, "concurrent inventory change")
	}

	v := &Vessel{
		ID:       ids.Next(),
		Name:     req.Name,
		AgencyID: req.AgencyID,
		Position: basePos,
		Velocity: baseVel,
		Altitude: 0,
		Landed:   true,
		Hull:     100,
		StageFuel: map[int]float64{}, StageFuelCap: map[int]float64{},
		StageCharge: map[int]float64{}, StageChargeCap: map[int]float64{},
		Cargo:            map[string]int{},
		VisitedPlanets:   map[uint64]bool{},
		UnlockedUpgrades: map[string]map[string]bool{},
		HomeBodyID:       req.BaseBodyID,
		LastLandedBodyID: req.BaseBodyID,
		RotationDeg:      req.LaunchpadAngleDeg,
	}

	maxStage := 0
	for i, p := range req.Placements {
		c := cat.Components[p.ComponentID]
		ac := AttachedComponent{
			ID: uint64(i + 1), ComponentID: p.ComponentID, LocalPos: p.LocalPos,
			PaintPrimary: p.PaintPrimary, PaintSecondary: p.PaintSecondary,
			Stage: stages[i],
		}
		v.Components = append(v.Components, ac)
		v.StageFuelCap[stages[i]] += c.FuelCapacity
		v.StageFuel[stages[i]] += c.FuelCapacity // launched full
		v.StageChargeCap[stages[i]] += c.ElectricCap
		v.StageCharge[stages[i]] += c.ElectricCap
		v.DryMass += c.Mass
		if stages[i] > maxStage {
			maxStage = stages[i]
		}
		if i == payloadIdx {
			v.PayloadKind = c.PayloadKind
			v.Payload = NewPayloadBehavior(c.PayloadKind)
		}
	}
	v.NumStages = maxStage + 1
	v.CurrentStage = maxStage
	v.WithCatalog(cat)
	v.RecomputeStats(cat)

	if v.Payload != nil {
		v.Payload.OnAttach(v)
	}
	return v, nil
}

// RecomputeStats rebuilds the cached aggregate stats from the currently
// attached components at the current stage (spec.md §3 invariants).
func (v *Vessel) RecomputeStats(cat *catalog.Catalog) {
	v.ForwardThrustKN, v.ReverseThrustKN = 0, 0
	v.SolarPower, v.NuclearPower, v.Armor, v.Aerodynamics = 0, 0, 0, 0
	v.CargoCapacity, v.SeatCount, v.MaxWarpTier = 0, 0, 0
	v.ThermalResistanceSec = 0
	for _, ac := range v.Components {
		c := cat.Components[ac.ComponentID]
		if c == nil || ac.Stage != v.CurrentStage {
			continue
		}
		v.ForwardThrustKN += c.ForwardThrustKN
		v.ReverseThrustKN += c.ReverseThrustKN
		v.SolarPower += c.SolarPower
		v.NuclearPower += c.NuclearPower
		v.Armor += c.Armor
		v.Aerodynamics += c.Aerodynamics
		v.CargoCapacity += c.CargoCapacity
		v.SeatCount += c.SeatCount
		v.ThermalResistanceSec += c.ThermalResistance
		if c.MaxWarpTier > v.MaxWarpTier {
			v.MaxWarpTier = c.MaxWarpTier
		}
	}
	if v.ThermalResistanceSec <= 0 {
		v.ThermalResistanceSec = 120 // default when no component declares one
	}
	v.TrimCargoLargestFirst()
}

// String implements fmt.Stringer for debugging/log fields.
func (v *Vessel) String() string {
	return fmt.Sprintf("vessel#%d(%s stage=%d/%d)", v.ID, v.Name, v.CurrentStage, v.NumStages)
}
