package vessel

import "math"

// updateThermal implements spec.md §4.3.5: passive exponential
// relaxation toward ambient (quartered time-constant in atmosphere),
// plus an active thermal-regulator relaxation toward 20°C gated by a
// ±3°C deadband and available power.
func (v *Vessel) updateThermal(inAtmosphere bool, dt float64) {
	tau := v.ThermalResistanceSec
	if inAtmosphere {
		tau /= 4
	}
	if tau > 0 {
		v.TempC += (v.AmbientTempC - v.TempC) * (1 - math.Exp(-dt/math.Max(tau, 1e-9)))
	}

	if sys := v.System(SysThermalRegulator); sys != nil && sys.Active {
		const targetTempC = 20.0
		const deadbandC = 3.0
		errC := targetTempC - v.TempC
		if math.Abs(errC) > deadbandC {
			regTau := 60.0 / math.Max(sys.Amount, 1e-9)
			drawAmount := math.Abs(errC) * 0.001 * dt
			effort := v.DrawCharge(drawAmount)
			v.TempC += errC * effort * (1 - math.Exp(-dt/math.Max(regTau, 1e-9)))
		}
	}

	if v.TempC-v.AmbientTempC > v.hullTempOverlimitC() || v.AmbientTempC-v.TempC > v.hullTempOverlimitC() {
		over := math.Abs(v.TempC - v.AmbientTempC) - v.hullTempOverlimitC()
		v.Hull -= 0.01 * over * dt
	}
}

// hullTempOverlimitC is the Δ°C a vessel tolerates before hull damage
// accrues (spec.md §4.3 step 10: "hull damage from temperature over-limit
// at 0.01·Δ°C per sec"). Fixed at 80°C pending a per-component thermal
// tolerance attribute in the catalog.
func (v *Vessel) hullTempOverlimitC() float64 { return 80.0 }
