package rrblup

import (
	"math"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gblup/pkg/errors"
)

// REML search bounds on log(δ), δ = σ²e/σ²g, and the derivative-sign grid
// resolution used to bracket interior optima.
const (
	logDeltaMin = -10.0
	logDeltaMax = 10.0
	deltaGrid   = 100
)

// VarianceComponents holds the REML point estimates of the mixed model
// y = Xβ + u + e with u ~ N(0, G·σ²g) and e ~ N(0, I·σ²e).
//
// When the heritability was fixed by the caller instead of estimated,
// Genetic and Residual are on a relative scale (Genetic = 1).
type VarianceComponents struct {
	Genetic      float64 // σ²g
	Residual     float64 // σ²e
	Heritability float64 // h² = σ²g/(σ²g+σ²e) = 1/(1+δ)
	Delta        float64 // δ = σ²e/σ²g
	LogLik       float64 // restricted log-likelihood at the optimum
	Converged    bool
	Iterations   int
}

// VarianceComponentEstimator fits the variance components by restricted
// maximum likelihood on the variance ratio δ.
//
// The estimator follows the spectral route: project out the fixed effects
// with S = I − X(X'X)⁻¹X', eigendecompose S(G + offset·I)S, and maximize
// the restricted log-likelihood of the rotated data over log δ with a
// derivative-sign grid scan plus safeguarded Newton refinement.
type VarianceComponentEstimator struct {
	MaxIterations int     // Newton iteration bound per bracket
	Tolerance     float64 // derivative and step tolerance
}

// NewVarianceComponentEstimator returns an estimator with the default
// iteration bound (100) and tolerance (1e-8).
func NewVarianceComponentEstimator() *VarianceComponentEstimator {
	return &VarianceComponentEstimator{
		MaxIterations: 100,
		Tolerance:     1e-8,
	}
}

// Estimate fits σ²g and σ²e for phenotypes y under fixed-effect design X and
// relationship matrix G.
//
// Non-convergence (a boundary optimum, or Newton exhaustion) still returns the
// best iterate, with Converged=false and a ConvergenceWarning routed through
// the warning handler. Zero projected phenotypic variance returns a zero
// genetic variance with the same warning path, never a division by zero.
func (e *VarianceComponentEstimator) Estimate(X mat.Matrix, G *RelationshipMatrix, y []float64) (vc *VarianceComponents, err error) {
	defer errors.Recover(&err, "VarianceComponentEstimator.Estimate")

	n := len(y)
	if n == 0 {
		return nil, errors.NewModelError("VarianceComponentEstimator.Estimate", "empty data", errors.ErrEmptyData)
	}
	xr, p := X.Dims()
	if xr != n {
		return nil, errors.NewDimensionError("VarianceComponentEstimator.Estimate", n, xr, 0)
	}
	if G.Dim() != n {
		return nil, errors.NewDimensionError("VarianceComponentEstimator.Estimate", n, G.Dim(), 0)
	}
	if err := errors.CheckNumericalStability("VarianceComponentEstimator.Estimate", y, 0); err != nil {
		return nil, err
	}

	q := n - p
	if q < 1 {
		return nil, errors.NewDegenerateInputError("VarianceComponentEstimator.Estimate",
			"fixed effects leave no residual degrees of freedom")
	}

	theta, eta, err := e.spectrum(X, G, y, n, p, q)
	if err != nil {
		return nil, err
	}

	// A constant phenotype projects to zero variance; the likelihood is flat
	// and flagged rather than optimized.
	sumEta2 := vek.Dot(eta, eta)
	if sumEta2 <= 1e-12*math.Max(1, vek.Dot(y, y)) {
		errors.Warn(errors.NewConvergenceWarning("REML", 0,
			"projected phenotypic variance is zero; genetic variance set to 0"))
		return &VarianceComponents{
			Genetic:      0,
			Residual:     0,
			Heritability: 0,
			Delta:        0,
			LogLik:       0,
			Converged:    false,
			Iterations:   0,
		}, nil
	}

	return e.maximize(theta, eta, q)
}

// spectrum computes the eigenvalue offsets θ and the rotated data η for the
// restricted likelihood.
func (e *VarianceComponentEstimator) spectrum(X mat.Matrix, G *RelationshipMatrix, y []float64, n, p, q int) ([]float64, []float64, error) {
	// S = I − X(X'X)⁻¹X'
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, nil, errors.NewNumericalInstabilityError("fixed-effect projection", nil, 0)
	}

	var xInv mat.Dense
	xInv.Mul(X, &xtxInv)
	var hat mat.Dense
	hat.Mul(&xInv, X.T())

	S := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -hat.At(i, j)
			if i == j {
				v++
			}
			S.Set(i, j, v)
		}
	}

	// The sqrt(n) offset keeps S(G+offset·I)S comfortably positive for the
	// retained spectrum; it is subtracted from the eigenvalues afterwards.
	offset := math.Sqrt(float64(n))
	H := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := G.G.At(i, j)
			if i == j {
				v += offset
			}
			H.SetSym(i, j, v)
		}
	}

	var sh mat.Dense
	sh.Mul(S, H)
	var shs mat.Dense
	shs.Mul(&sh, S)

	// Fold floating-point asymmetry before the symmetric eigendecomposition.
	A := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			A.SetSym(i, j, 0.5*(shs.At(i, j)+shs.At(j, i)))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(A, true); !ok {
		return nil, nil, errors.NewNumericalInstabilityError("eigendecomposition", nil, 0)
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back ascending; the n−p leading pairs are the last q
	// columns. Rounding can push a retained eigenvalue fractionally below the
	// offset, so the subtracted values are clamped at zero.
	theta := make([]float64, q)
	eta := make([]float64, q)
	col := make([]float64, n)
	for k := 0; k < q; k++ {
		j := n - q + k
		th := vals[j] - offset
		if th < 0 {
			th = 0
		}
		theta[k] = th
		mat.Col(col, j, &vecs)
		eta[k] = vek.Dot(col, y)
	}

	return theta, eta, nil
}

// maximize scans the restricted log-likelihood derivative over the log δ grid,
// polishes each bracketed root with safeguarded Newton steps, and returns the
// components at the global optimum.
func (e *VarianceComponentEstimator) maximize(theta, eta []float64, q int) (*VarianceComponents, error) {
	fq := float64(q)

	loglik := func(delta float64) float64 {
		var s1, logSum float64
		for i := range theta {
			d := theta[i] + delta
			s1 += eta[i] * eta[i] / d
			logSum += math.Log(d)
		}
		return 0.5 * (fq*math.Log(fq/(2*math.Pi)) - fq - fq*math.Log(s1) - logSum)
	}

	// dLL/dδ = 0.5·(q·s2/s1 − t1) with s_k = Ση²/(θ+δ)^k, t1 = Σ1/(θ+δ).
	deriv := func(delta float64) float64 {
		var s1, s2, t1 float64
		for i := range theta {
			d := theta[i] + delta
			e2 := eta[i] * eta[i]
			s1 += e2 / d
			s2 += e2 / (d * d)
			t1 += 1 / d
		}
		return 0.5 * (fq*s2/s1 - t1)
	}

	deriv2 := func(delta float64) float64 {
		var s1, s2, s3, t2 float64
		for i := range theta {
			d := theta[i] + delta
			e2 := eta[i] * eta[i]
			s1 += e2 / d
			s2 += e2 / (d * d)
			s3 += e2 / (d * d * d)
			t2 += 1 / (d * d)
		}
		return 0.5 * (fq*(s2*s2/(s1*s1)-2*s3/s1) + t2)
	}

	// Derivative signs on the grid bracket every interior optimum.
	deltas := make([]float64, deltaGrid)
	derivs := make([]float64, deltaGrid)
	for i := range deltas {
		logd := logDeltaMin + (logDeltaMax-logDeltaMin)*float64(i)/float64(deltaGrid-1)
		deltas[i] = math.Exp(logd)
		derivs[i] = deriv(deltas[i])
	}

	type candidate struct {
		delta      float64
		boundary   bool
		iterations int
		polished   bool
	}
	candidates := []candidate{
		{delta: deltas[0], boundary: true, polished: true},
		{delta: deltas[deltaGrid-1], boundary: true, polished: true},
	}
	for i := 0; i+1 < deltaGrid; i++ {
		if derivs[i] > 0 && derivs[i+1] <= 0 {
			root, iters, ok := e.newton(deriv, deriv2, deltas[i], deltas[i+1])
			candidates = append(candidates, candidate{
				delta:      root,
				iterations: iters,
				polished:   ok,
			})
		}
	}

	best := candidates[0]
	bestLL := loglik(best.delta)
	for _, c := range candidates[1:] {
		if ll := loglik(c.delta); ll > bestLL {
			best = c
			bestLL = ll
		}
	}

	delta := best.delta
	var s1 float64
	for i := range theta {
		s1 += eta[i] * eta[i] / (theta[i] + delta)
	}
	genetic := s1 / fq
	residual := delta * genetic
	hsq := 1 / (1 + delta)

	vc := &VarianceComponents{
		Genetic:      genetic,
		Residual:     residual,
		Heritability: hsq,
		Delta:        delta,
		LogLik:       bestLL,
		Converged:    best.polished && !best.boundary,
		Iterations:   best.iterations,
	}

	if err := errors.CheckNumericalStability("VarianceComponentEstimator.Estimate",
		[]float64{genetic, residual, hsq, bestLL}, best.iterations); err != nil {
		return nil, err
	}

	switch {
	case best.boundary:
		errors.Warn(errors.NewConvergenceWarning("REML", best.iterations,
			"restricted likelihood is maximized at the search boundary; the variance ratio estimate is unreliable"))
		if delta <= deltas[0] {
			errors.Warn(errors.NewHeritabilityWarning(hsq, "upper"))
		} else {
			errors.Warn(errors.NewHeritabilityWarning(hsq, "lower"))
		}
	case !best.polished:
		errors.Warn(errors.NewConvergenceWarning("REML", best.iterations,
			"Newton refinement did not reach tolerance within the iteration bound"))
	}

	return vc, nil
}

// newton polishes one bracketed root of the likelihood derivative. The bracket
// [lo, hi] has deriv(lo) > 0 and deriv(hi) ≤ 0; steps that leave the bracket,
// or land where the likelihood is not locally concave, fall back to bisection.
func (e *VarianceComponentEstimator) newton(deriv, deriv2 func(float64) float64, lo, hi float64) (root float64, iters int, ok bool) {
	x := 0.5 * (lo + hi)
	for iters = 1; iters <= e.MaxIterations; iters++ {
		g := deriv(x)
		if math.Abs(g) < e.Tolerance {
			return x, iters, true
		}
		if g > 0 {
			lo = x
		} else {
			hi = x
		}

		next := lo - 1 // sentinel outside the bracket
		if gp := deriv2(x); gp < 0 {
			next = x - g/gp
		}
		if next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		if math.Abs(next-x) < e.Tolerance*(1+x) {
			return next, iters, true
		}
		x = next
	}
	return x, e.MaxIterations, false
}
