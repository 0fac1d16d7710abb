package formulas

import (
	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// NormalQuantile returns the standard-normal quantile for probability p,
// e.g. NormalQuantile(0.95) ≈ 1.645, NormalQuantile(0.99) ≈ 2.326.
func NormalQuantile(p float64) float64 {
	if p <= 0 {
		p = 1e-9
	}
	if p >= 1 {
		p = 1 - 1e-9
	}
	return stdNormal.Quantile(p)
}

// CornishFisher adjusts a standard-normal quantile z for the skewness and
// excess kurtosis of the target distribution. The expansion bends the normal
// tail to account for asymmetry and fat tails:
//
//	z_cf = z + (z²−1)s/6 + (z³−3z)k/24 − (2z³−5z)s²/36
//
// where s is skewness and k is excess kurtosis.
func CornishFisher(z, skewness, excessKurtosis float64) float64 {
	z2 := z * z
	z3 := z2 * z
	return z +
		(z2-1)*skewness/6 +
		(z3-3*z)*excessKurtosis/24 -
		(2*z3-5*z)*skewness*skewness/36
}
