package model

// ChargeProgress maps the elapsed fraction x of a charge duration to eased
// charging progress. The cubic f(x) = x - 0.2*x^3 fast-charges early and
// tapers near the target. It is monotonic increasing on [0,1] with f(0)=0 and
// f(1)=0.8: the curve never reaches 1.0 on its own, completion is forced
// explicitly when the charge duration elapses.
func ChargeProgress(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x > 1 {
		x = 1
	}
	return x - 0.2*x*x*x
}

// LevelAt returns the battery level in percent after progressing the given
// elapsed fraction from start towards target.
func LevelAt(start, target, x float64) float64 {
	return start + (target-start)*ChargeProgress(x)
}

// EnergyAt returns the energy in kWh delivered to a battery of the given
// capacity after progressing the elapsed fraction x from start towards target.
func EnergyAt(capacityKWh, start, target, x float64) float64 {
	return capacityKWh * (target - start) / 100 * ChargeProgress(x)
}
