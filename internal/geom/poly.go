package geom

// EvalPolynomial evaluates a finite power series at delta: coefficient i
// multiplies delta^i. A zero-degree vector is a constant; an empty vector
// evaluates to 0.
func EvalPolynomial(coeffs []float64, delta float64) float64 {
	sum := 0.0
	pow := 1.0
	for _, c := range coeffs {
		sum += c * pow
		pow *= delta
	}
	return sum
}
