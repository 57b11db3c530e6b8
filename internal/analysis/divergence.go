package analysis

import (
	"math"

	"github.com/san-kum/rigidsim/internal/sim"
)

// Separation is the distance between the two runs' states at each shared
// frame, summed over bodies in position and velocity space.
func Separation(a, b []sim.Frame) []float64 {
	n := min(len(a), len(b))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		m := min(len(a[i].Bodies), len(b[i].Bodies))
		for j := 0; j < m; j++ {
			dp := a[i].Bodies[j].Position.Sub(b[i].Bodies[j].Position)
			dv := a[i].Bodies[j].Velocity.Sub(b[i].Bodies[j].Velocity)
			sum += dp.Dot(dp) + dv.Dot(dv)
		}
		out[i] = math.Sqrt(sum)
	}
	return out
}

// DivergenceRate estimates the exponential growth rate of the separation
// between two runs started a small perturbation apart,
// λ ≈ mean over t of ln(d(t)/d(0)) / t.
// A positive rate means contact chains amplify small changes. It returns 0
// when the runs start identical.
func DivergenceRate(a, b []sim.Frame) float64 {
	sep := Separation(a, b)
	if len(sep) < 2 || sep[0] <= 0 {
		return 0
	}
	d0, t0 := sep[0], a[0].Time

	sumLog := 0.0
	count := 0
	for i := 1; i < len(sep); i++ {
		t := a[i].Time - t0
		if sep[i] <= 0 || t <= 0 {
			continue
		}
		sumLog += math.Log(sep[i]/d0) / t
		count++
	}
	if count == 0 {
		return 0
	}
	return sumLog / float64(count)
}
