package rrblup

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gblup/genotype"
	"github.com/YuminosukeSato/gblup/pkg/errors"
)

// Normalization selects how the genomic relationship matrix G is scaled.
type Normalization int

const (
	// NormalizationNone uses the raw cross product G = Z*Z'.
	NormalizationNone Normalization = iota
	// NormalizationMarkerCount scales by the marker count: G = Z*Z'/m.
	NormalizationMarkerCount
	// NormalizationVanRaden centers marker codes by allele frequency and
	// scales by 2*Σp(1−p) (VanRaden 2008). Assumes −1/0/1 coding.
	NormalizationVanRaden
)

// String returns the configuration name of the policy.
func (p Normalization) String() string {
	switch p {
	case NormalizationMarkerCount:
		return "marker_count"
	case NormalizationVanRaden:
		return "vanraden"
	default:
		return "none"
	}
}

// ParseNormalization maps a configuration string to a Normalization policy.
func ParseNormalization(s string) (Normalization, error) {
	switch s {
	case "", "none":
		return NormalizationNone, nil
	case "marker_count":
		return NormalizationMarkerCount, nil
	case "vanraden":
		return NormalizationVanRaden, nil
	default:
		return NormalizationNone, errors.NewValidationError("normalization",
			"must be one of none, marker_count, vanraden", s)
	}
}

// RelationshipMatrix is the n×n genomic relationship matrix between the
// training individuals, tagged with the normalization policy that built it.
type RelationshipMatrix struct {
	G      *mat.SymDense
	Policy Normalization
}

// Dim returns the number of individuals the matrix spans.
func (r *RelationshipMatrix) Dim() int {
	if r == nil || r.G == nil {
		return 0
	}
	return r.G.SymmetricDim()
}

// BuildDesign builds the fixed-effect design matrix X and the genomic
// relationship matrix G for a training genotype matrix.
//
// X has the intercept as its first column; covariate columns, when supplied,
// are appended after it and must have one row per individual. G is the
// symmetric cross product of the marker codes under the requested
// normalization policy.
func BuildDesign(g *genotype.Matrix, covariates *mat.Dense, policy Normalization) (*mat.Dense, *RelationshipMatrix, error) {
	if g == nil {
		return nil, nil, errors.NewModelError("rrblup.BuildDesign", "empty data", errors.ErrEmptyData)
	}

	n := g.NumIndividuals()
	m := g.NumMarkers()
	if n == 0 {
		return nil, nil, errors.NewDimensionError("rrblup.BuildDesign", 1, n, 0)
	}
	if m == 0 {
		return nil, nil, errors.NewDimensionError("rrblup.BuildDesign", 1, m, 1)
	}

	// X = [1 | covariates]
	k := 1
	var cCols int
	if covariates != nil {
		cr, cc := covariates.Dims()
		if cr != n {
			return nil, nil, errors.NewDimensionError("rrblup.BuildDesign", n, cr, 0)
		}
		if err := errors.CheckMatrix("rrblup.BuildDesign covariates", covariates, cr, cc, 0); err != nil {
			return nil, nil, err
		}
		cCols = cc
		k += cc
	}

	X := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1.0)
		for j := 0; j < cCols; j++ {
			X.Set(i, j+1, covariates.At(i, j))
		}
	}

	G, err := buildRelationship(g, policy)
	if err != nil {
		return nil, nil, err
	}

	return X, G, nil
}

// buildRelationship computes G under the given policy.
func buildRelationship(g *genotype.Matrix, policy Normalization) (*RelationshipMatrix, error) {
	n := g.NumIndividuals()
	m := g.NumMarkers()
	Z := g.Codes()

	var G mat.SymDense

	switch policy {
	case NormalizationNone:
		G.SymOuterK(1.0, Z)

	case NormalizationMarkerCount:
		G.SymOuterK(1.0/float64(m), Z)

	case NormalizationVanRaden:
		// Column means give the allele frequencies: p_j = (mean_j + 1)/2
		// for −1/0/1 codes. Centering by the mean removes 2p−1.
		colMean := make([]float64, m)
		for j := 0; j < m; j++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += Z.At(i, j)
			}
			colMean[j] = sum / float64(n)
		}

		var denom float64
		for j := 0; j < m; j++ {
			p := (colMean[j] + 1) / 2
			denom += 2 * p * (1 - p)
		}
		if denom <= 0 {
			return nil, errors.NewDegenerateInputError("rrblup.BuildDesign",
				"VanRaden normalization is undefined: all markers are monomorphic")
		}

		W := mat.NewDense(n, m, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				W.Set(i, j, Z.At(i, j)-colMean[j])
			}
		}
		G.SymOuterK(1.0/denom, W)

	default:
		return nil, errors.NewValidationError("normalization",
			"unknown normalization policy", int(policy))
	}

	if err := errors.CheckMatrix("rrblup.BuildDesign relationship", &G, n, n, 0); err != nil {
		return nil, err
	}

	return &RelationshipMatrix{G: &G, Policy: policy}, nil
}
