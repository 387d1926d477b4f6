package nn

import "math"

// SigmoidSlope is the steepness of the modified logistic function used by
// every non-input node.
const SigmoidSlope = 4.9

// Sigmoid is the steepened logistic activation 1 / (1 + exp(-4.9x)).
// Sigmoid(0) is exactly 0.5.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-SigmoidSlope*x))
}
