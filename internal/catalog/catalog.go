// Package catalog holds the read-only content definitions (C1):
// components, buildings, resources, and the global tuning block. It is
// loaded once at startup and never mutated afterward, the way the
// teacher loads universe.yaml into a package-level Universe struct
// (internal/game/state.go LoadConfig), generalized from one struct to
// three catalogs plus tuning.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Component is an authored vessel part: engine, tank, fairing, or payload.
type Component struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	MoneyCost    int            `yaml:"money_cost"`
	ResourceCost map[string]int `yaml:"resource_cost"`

	// Staging attributes (spec.md §4.3 staging algorithm). Pointers so
	// "attribute absent" is distinguishable from "attribute is zero".
	StageAdd    *int `yaml:"stage_add,omitempty"`
	StagePreAdd *int `yaml:"stage_pre_add,omitempty"`
	IsPayload   bool `yaml:"is_payload,omitempty"`

	ForwardThrustKN float64 `yaml:"forward_thrust_kn"`
	ReverseThrustKN float64 `yaml:"reverse_thrust_kn"`
	SolarPower      float64 `yaml:"solar_power"`
	NuclearPower    float64 `yaml:"nuclear_power"`
	Armor           float64 `yaml:"armor"`
	Aerodynamics    float64 `yaml:"aerodynamics"`
	CargoCapacity   int     `yaml:"cargo_capacity"`
	SeatCount       int     `yaml:"seat_count"`
	MaxWarpTier     int     `yaml:"max_warp_tier"`

	FuelCapacity   float64 `yaml:"fuel_capacity"`
	ElectricCap    float64 `yaml:"electric_capacity"`
	FuelConsumption float64 `yaml:"fuel_consumption"` // kg/s at full throttle
	Mass            float64 `yaml:"mass"`
	Radius          float64 `yaml:"radius"`

	// ThermalResistance is the passive relaxation time-constant (seconds)
	// this component contributes toward ambient (spec.md §4.3.5).
	ThermalResistance float64 `yaml:"thermal_resistance"`

	// PayloadKind, when set (IsPayload==true), selects the payload
	// behavior factory (internal/payload).
	PayloadKind string  `yaml:"payload_kind,omitempty"`
	BaseIncome  float64 `yaml:"base_income,omitempty"`

	// TrainingXPRate is the crewed-payload astronaut training rate
	// (XP per real second), default 0.1 (spec.md §4.4).
	TrainingXPRate float64 `yaml:"training_xp_rate,omitempty"`
	// RoverKmPerSec drives the rover's landed rotational control speed.
	RoverKmPerSec float64 `yaml:"rover_km_per_sec,omitempty"`

	// BuildOnLand is the crewed-payload "auto place building" directive:
	// [planet name, building type]. Empty when absent.
	BuildOnLand [2]string `yaml:"build_on_land,omitempty"`
}

// UnlockLevel is one tier of a building's upgrade tree: it either adds
// to an agency attribute or raises a tier-gate ceiling (max of all
// active tiers, not a sum), per spec.md §4.5 "Attribute rebuild".
type UnlockLevel struct {
	Level    int                `yaml:"level"`
	Additive map[string]float64 `yaml:"additive,omitempty"`
	TierGate map[string]int     `yaml:"tier_gate,omitempty"`
}

// Building is a per-planet structure definition.
type Building struct {
	Type         string         `yaml:"type"`
	Name         string         `yaml:"name"`
	MoneyCost    int            `yaml:"money_cost"`
	ResourceCost map[string]int `yaml:"resource_cost"`
	BaseIncome   float64        `yaml:"base_income"`
	Unlocks      []UnlockLevel  `yaml:"unlocks"`

	// BuildTimeSec is how long a freshly placed building spends at level
	// 0 (paid for, not yet earning) before it completes construction and
	// becomes level 1. Zero means it completes on the next agency tick.
	BuildTimeSec float64 `yaml:"build_time_sec,omitempty"`
}

// Resource is a sellable/mineable good.
type Resource struct {
	ID   string  `yaml:"id"`
	Name string  `yaml:"name"`
	Rate float64 `yaml:"sale_rate"` // credits per unit
}

// Tuning carries global physics/economy constants.
type Tuning struct {
	TickRateHz           float64 `yaml:"tick_rate_hz"`
	SimRateSecPerSec     float64 `yaml:"sim_rate_sec_per_sec"`
	AutosaveIntervalSec  float64 `yaml:"autosave_interval_sec"`
	GlobalThrustMult     float64 `yaml:"global_thrust_multiplier"`
	GlobalCashMultiplier float64 `yaml:"global_cash_multiplier"`
	ServerIncomeMult     float64 `yaml:"server_income_multiplier"`
}

// Catalog is the immutable set of content definitions plus tuning.
type Catalog struct {
	Tuning     Tuning                `yaml:"tuning"`
	Components map[string]*Component `yaml:"-"`
	Buildings  map[string]*Building  `yaml:"-"`
	Resources  map[string]*Resource  `yaml:"-"`

	ComponentsList []*Component `yaml:"components"`
	BuildingsList  []*Building  `yaml:"buildings"`
	ResourcesList  []*Resource  `yaml:"resources"`
}

// Load reads a catalog YAML file from disk and indexes it by id.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	c.reindex()
	return &c, nil
}

func (c *Catalog) reindex() {
	c.Components = make(map[string]*Component, len(c.ComponentsList))
	for _, comp := range c.ComponentsList {
		c.Components[comp.ID] = comp
	}
	c.Buildings = make(map[string]*Building, len(c.BuildingsList))
	for _, b := range c.BuildingsList {
		c.Buildings[b.Type] = b
	}
	c.Resources = make(map[string]*Resource, len(c.ResourcesList))
	for _, r := range c.ResourcesList {
		c.Resources[r.ID] = r
	}
	if c.Tuning.TickRateHz == 0 {
		c.Tuning.TickRateHz = 60
	}
	if c.Tuning.SimRateSecPerSec == 0 {
		c.Tuning.SimRateSecPerSec = 1
	}
	if c.Tuning.AutosaveIntervalSec == 0 {
		c.Tuning.AutosaveIntervalSec = 60
	}
	if c.Tuning.GlobalThrustMult == 0 {
		c.Tuning.GlobalThrustMult = 1
	}
	if c.Tuning.GlobalCashMultiplier == 0 {
		c.Tuning.GlobalCashMultiplier = 1
	}
	if c.Tuning.ServerIncomeMult == 0 {
		c.Tuning.ServerIncomeMult = 1
	}
}

// SimSecPerTick is "simulated seconds advanced per wall tick" from
// spec.md §4.2: simrate / tickrate.
func (t Tuning) SimSecPerTick() float64 {
	return t.SimRateSecPerSec / t.TickRateHz
}
