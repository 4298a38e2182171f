package rrblup

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gblup/genotype"
	gblupErrors "github.com/YuminosukeSato/gblup/pkg/errors"
)

// TestEstimateEffectsOLSEquivalence: with zero penalty the marker system is
// plain least squares. The fixture normal equations (Z'Z)a = Z'r with
// Z'r = (5, 7, 5) solve to a = (1, 1, 1) exactly.
func TestEstimateEffectsOLSEquivalence(t *testing.T) {
	g := fixtureMatrix(t)
	y := []float64{10, 12, 8, 14}
	X, _, err := BuildDesign(g, nil, NormalizationNone)
	require.NoError(t, err)

	me, err := EstimateEffects(X, g, y, &ShrinkageSpec{Mode: ShrinkageHomogeneous, Lambda: 0})
	require.NoError(t, err)

	require.Len(t, me.FixedCoefficients, 1)
	assert.InDelta(t, 11.0, me.FixedCoefficients[0], 1e-9)
	require.Len(t, me.Effects, 3)
	for j := range me.Effects {
		assert.InDelta(t, 1.0, me.Effects[j], 1e-9)
	}
	assert.Equal(t, []string{"snp1", "snp2", "snp3"}, me.Markers)
}

// TestEstimateEffectsRidgeFixture: with lambda = 1/3 the fixture system
// (Z'Z + I/3)a = (5, 7, 5) solves to a = (6/7, 15/14, 6/7).
func TestEstimateEffectsRidgeFixture(t *testing.T) {
	g := fixtureMatrix(t)
	y := []float64{10, 12, 8, 14}
	X, _, err := BuildDesign(g, nil, NormalizationNone)
	require.NoError(t, err)

	me, err := EstimateEffects(X, g, y, &ShrinkageSpec{Mode: ShrinkageHomogeneous, Lambda: 1.0 / 3.0})
	require.NoError(t, err)

	assert.InDelta(t, 11.0, me.FixedCoefficients[0], 1e-9)
	assert.InDelta(t, 6.0/7.0, me.Effects[0], 1e-9)
	assert.InDelta(t, 15.0/14.0, me.Effects[1], 1e-9)
	assert.InDelta(t, 6.0/7.0, me.Effects[2], 1e-9)
}

// TestEstimateEffectsHeterogeneousMatchesHomogeneous: a constant penalty
// vector must reproduce the homogeneous solution.
func TestEstimateEffectsHeterogeneousMatchesHomogeneous(t *testing.T) {
	g := fixtureMatrix(t)
	y := []float64{10, 12, 8, 14}
	X, _, err := BuildDesign(g, nil, NormalizationNone)
	require.NoError(t, err)

	homo, err := EstimateEffects(X, g, y, &ShrinkageSpec{Mode: ShrinkageHomogeneous, Lambda: 1.0 / 3.0})
	require.NoError(t, err)
	hetero, err := EstimateEffects(X, g, y, &ShrinkageSpec{
		Mode:    ShrinkageHeterogeneous,
		Lambdas: []float64{1.0 / 3.0, 1.0 / 3.0, 1.0 / 3.0},
	})
	require.NoError(t, err)

	for j := range homo.Effects {
		assert.InDelta(t, homo.Effects[j], hetero.Effects[j], 1e-12)
	}
}

// TestEstimateEffectsDuplicateMarkers: two markers with identical codes make
// Z'Z singular. With zero penalty the augmented fallback is rank deficient
// too and the system is reported singular; a positive penalty restores
// definiteness and splits the effect evenly between the twins.
func TestEstimateEffectsDuplicateMarkers(t *testing.T) {
	g, err := genotype.NewMatrix(
		[]string{"a", "b", "c", "d"},
		[]string{"twin1", "twin2"},
		mat.NewDense(4, 2, []float64{
			1, 1,
			0, 0,
			-1, -1,
			1, 1,
		}),
	)
	require.NoError(t, err)
	y := []float64{2, 0, -2, 2}
	X, _, err := BuildDesign(g, nil, NormalizationNone)
	require.NoError(t, err)

	t.Run("zero penalty is singular", func(t *testing.T) {
		_, err := EstimateEffects(X, g, y, &ShrinkageSpec{Mode: ShrinkageHomogeneous, Lambda: 0})
		var singular *gblupErrors.SingularSystemError
		assert.True(t, gblupErrors.As(err, &singular))
	})

	t.Run("positive penalty splits the effect", func(t *testing.T) {
		me, err := EstimateEffects(X, g, y, &ShrinkageSpec{Mode: ShrinkageHomogeneous, Lambda: 0.5})
		require.NoError(t, err)
		// (Z'Z + 0.5I)a = Z'r gives 6.5*a = 5.5 for each twin.
		assert.InDelta(t, 5.5/6.5, me.Effects[0], 1e-9)
		assert.InDelta(t, me.Effects[0], me.Effects[1], 1e-12)
	})
}

func TestEstimateEffectsInvalidInputs(t *testing.T) {
	g := fixtureMatrix(t)
	y := []float64{10, 12, 8, 14}
	X, _, err := BuildDesign(g, nil, NormalizationNone)
	require.NoError(t, err)
	spec := &ShrinkageSpec{Mode: ShrinkageHomogeneous, Lambda: 1}

	t.Run("nil matrix", func(t *testing.T) {
		_, err := EstimateEffects(X, nil, y, spec)
		var modelErr *gblupErrors.ModelError
		assert.True(t, gblupErrors.As(err, &modelErr))
	})

	t.Run("nil spec", func(t *testing.T) {
		_, err := EstimateEffects(X, g, y, nil)
		var modelErr *gblupErrors.ModelError
		assert.True(t, gblupErrors.As(err, &modelErr))
	})

	t.Run("phenotype length mismatch", func(t *testing.T) {
		_, err := EstimateEffects(X, g, []float64{1, 2}, spec)
		var dimErr *gblupErrors.DimensionError
		assert.True(t, gblupErrors.As(err, &dimErr))
	})

	t.Run("design row mismatch", func(t *testing.T) {
		short := mat.NewDense(3, 1, []float64{1, 1, 1})
		_, err := EstimateEffects(short, g, y, spec)
		var dimErr *gblupErrors.DimensionError
		assert.True(t, gblupErrors.As(err, &dimErr))
	})

	t.Run("penalty vector length", func(t *testing.T) {
		bad := &ShrinkageSpec{Mode: ShrinkageHeterogeneous, Lambdas: []float64{1, 2}}
		_, err := EstimateEffects(X, g, y, bad)
		var dimErr *gblupErrors.DimensionError
		assert.True(t, gblupErrors.As(err, &dimErr))
	})

	t.Run("negative penalty", func(t *testing.T) {
		bad := &ShrinkageSpec{Mode: ShrinkageHomogeneous, Lambda: -1}
		_, err := EstimateEffects(X, g, y, bad)
		var paramErr *gblupErrors.InvalidParameterError
		assert.True(t, gblupErrors.As(err, &paramErr))
	})

	t.Run("negative penalty entry", func(t *testing.T) {
		bad := &ShrinkageSpec{Mode: ShrinkageHeterogeneous, Lambdas: []float64{1, -0.5, 1}}
		_, err := EstimateEffects(X, g, y, bad)
		var paramErr *gblupErrors.InvalidParameterError
		assert.True(t, gblupErrors.As(err, &paramErr))
	})

	t.Run("non-finite penalty", func(t *testing.T) {
		bad := &ShrinkageSpec{Mode: ShrinkageHomogeneous, Lambda: math.Inf(1)}
		_, err := EstimateEffects(X, g, y, bad)
		var instability *gblupErrors.NumericalInstabilityError
		assert.True(t, gblupErrors.As(err, &instability))
	})

	t.Run("unknown mode", func(t *testing.T) {
		bad := &ShrinkageSpec{Mode: ShrinkageMode(7)}
		_, err := EstimateEffects(X, g, y, bad)
		var validationErr *gblupErrors.ValidationError
		assert.True(t, gblupErrors.As(err, &validationErr))
	})
}
