package rrblup

import (
	"github.com/viterin/vek"

	"github.com/YuminosukeSato/gblup/pkg/errors"
)

// ShrinkageMode selects how ridge penalties are assigned to markers.
type ShrinkageMode int

const (
	// ShrinkageHomogeneous applies one penalty λ = m·(1/h²−1) to every marker,
	// treating all markers as contributing equally to the genetic variance.
	ShrinkageHomogeneous ShrinkageMode = iota

	// ShrinkageHeterogeneous assigns each marker its own penalty from its
	// single-marker ANOVA contribution, shrinking uninformative markers harder.
	ShrinkageHeterogeneous
)

// String returns the configuration-file name of the mode.
func (m ShrinkageMode) String() string {
	switch m {
	case ShrinkageHomogeneous:
		return "homogeneous"
	case ShrinkageHeterogeneous:
		return "heterogeneous"
	default:
		return "unknown"
	}
}

// ParseShrinkageMode converts a configuration string into a ShrinkageMode.
// The empty string selects the homogeneous default.
func ParseShrinkageMode(s string) (ShrinkageMode, error) {
	switch s {
	case "", "homogeneous":
		return ShrinkageHomogeneous, nil
	case "heterogeneous":
		return ShrinkageHeterogeneous, nil
	default:
		return ShrinkageHomogeneous, errors.NewValidationError("shrinkage_mode",
			"must be \"homogeneous\" or \"heterogeneous\"", s)
	}
}

// ShrinkageSpec carries the ridge penalties handed to the effect estimator.
// Homogeneous specs set Lambda; heterogeneous specs set one entry of Lambdas
// per marker.
type ShrinkageSpec struct {
	Mode    ShrinkageMode
	Lambda  float64
	Lambdas []float64
}

// At returns the penalty for marker j under either mode.
func (s *ShrinkageSpec) At(j int) float64 {
	if s.Mode == ShrinkageHeterogeneous {
		return s.Lambdas[j]
	}
	return s.Lambda
}

// HomogeneousShrinkage computes the single ridge penalty λ = m·(1/h²−1)
// implied by m markers and heritability hsq.
//
// The penalty comes from equating the marker-effect variance σ²g/m with the
// ridge prior: λ = σ²e/(σ²g/m) = m·(1/h²−1) on the variance-ratio scale.
func HomogeneousShrinkage(m int, hsq float64) (*ShrinkageSpec, error) {
	if m < 1 {
		return nil, errors.NewDimensionError("HomogeneousShrinkage", 1, m, 1)
	}
	if hsq <= 0 || hsq >= 1 {
		return nil, errors.NewInvalidParameterError("hsq",
			"heritability must lie strictly between 0 and 1", hsq)
	}
	return &ShrinkageSpec{
		Mode:   ShrinkageHomogeneous,
		Lambda: float64(m) * (1/hsq - 1),
	}, nil
}

// HeterogeneousShrinkage partitions the total genetic variance σ²g·m across
// markers in proportion to their ANOVA contributions and converts each share
// into a per-marker penalty λ_j = σ²e/var_j.
//
// Markers with a zero contribution receive no genetic variance; when residual
// variance remains, no finite penalty reproduces that prior and the input is
// rejected as degenerate. When both are zero the penalty degenerates to 0.
func HeterogeneousShrinkage(vc *VarianceComponents, contributions []float64) (*ShrinkageSpec, error) {
	if vc == nil {
		return nil, errors.NewModelError("HeterogeneousShrinkage", "missing variance components", errors.ErrEmptyData)
	}
	m := len(contributions)
	if m == 0 {
		return nil, errors.NewValueError("HeterogeneousShrinkage", "no marker contributions supplied")
	}
	for _, c := range contributions {
		if c < 0 {
			return nil, errors.NewInvalidParameterError("contributions",
				"marker variance contributions must be non-negative", c)
		}
	}

	total := vek.Sum(contributions)
	if total <= 0 {
		return nil, errors.NewDegenerateInputError("HeterogeneousShrinkage",
			"all marker variance contributions are zero; the genetic variance cannot be partitioned")
	}

	genomeVar := vc.Genetic * float64(m)
	lambdas := make([]float64, m)
	for j, c := range contributions {
		varJ := genomeVar * c / total
		switch {
		case varJ > 0:
			lambdas[j] = vc.Residual / varJ
		case vc.Residual > 0:
			return nil, errors.NewDegenerateInputError("HeterogeneousShrinkage",
				"a marker with zero variance share cannot carry residual variance")
		default:
			lambdas[j] = 0
		}
	}

	return &ShrinkageSpec{
		Mode:    ShrinkageHeterogeneous,
		Lambdas: lambdas,
	}, nil
}
