package rrblup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gblup/genotype"
	gblupErrors "github.com/YuminosukeSato/gblup/pkg/errors"
)

// TestValidateHoldout fits on an explicit partition and checks the returned
// record. The same partition must reproduce the same correlation.
func TestValidateHoldout(t *testing.T) {
	g, pheno := simulatedData(t, 40, 12, 0.9, 13)
	ids := g.IDs()
	trainIDs := ids[:30]
	testIDs := ids[30:]

	run, err := ValidateHoldout(g, pheno, trainIDs, testIDs,
		WithNormalization(NormalizationMarkerCount))
	require.NoError(t, err)

	assert.Equal(t, trainIDs, run.TrainIDs)
	assert.Equal(t, testIDs, run.TestIDs)
	require.NotNil(t, run.Effects)
	assert.Len(t, run.Effects.Effects, 12)
	require.NotNil(t, run.Components)
	assert.Greater(t, run.Components.Genetic, 0.0)
	assert.Len(t, run.Predicted, 10)
	assert.Len(t, run.Observed, 10)
	assert.GreaterOrEqual(t, run.Correlation, -1.0)
	assert.LessOrEqual(t, run.Correlation, 1.0)
	assert.False(t, run.Failed())

	again, err := ValidateHoldout(g, pheno, trainIDs, testIDs,
		WithNormalization(NormalizationMarkerCount))
	require.NoError(t, err)
	assert.Equal(t, run.Correlation, again.Correlation)
	assert.Equal(t, run.Effects.Effects, again.Effects.Effects)
}

// TestValidateHoldoutSingleTestIndividual: one held-out individual leaves the
// correlation undefined; the metric's fallback value is recorded.
func TestValidateHoldoutSingleTestIndividual(t *testing.T) {
	g := fixtureMatrix(t)
	pheno := fixturePhenotype(t)

	run, err := ValidateHoldout(g, pheno,
		[]string{"ind1", "ind2", "ind3"}, []string{"ind4"},
		WithHeritability(0.9))
	require.NoError(t, err)
	assert.Equal(t, 0.0, run.Correlation)
	assert.Len(t, run.Predicted, 1)
}

func TestValidateHoldoutValidation(t *testing.T) {
	g := fixtureMatrix(t)
	pheno := fixturePhenotype(t)
	train := []string{"ind1", "ind2", "ind3"}
	test := []string{"ind4"}

	t.Run("nil genotypes", func(t *testing.T) {
		_, err := ValidateHoldout(nil, pheno, train, test)
		var modelErr *gblupErrors.ModelError
		assert.True(t, gblupErrors.As(err, &modelErr))
	})

	t.Run("nil phenotypes", func(t *testing.T) {
		_, err := ValidateHoldout(g, nil, train, test)
		var modelErr *gblupErrors.ModelError
		assert.True(t, gblupErrors.As(err, &modelErr))
	})

	t.Run("empty training partition", func(t *testing.T) {
		_, err := ValidateHoldout(g, pheno, nil, test)
		var validationErr *gblupErrors.ValidationError
		assert.True(t, gblupErrors.As(err, &validationErr))
	})

	t.Run("empty test partition", func(t *testing.T) {
		_, err := ValidateHoldout(g, pheno, train, nil)
		var validationErr *gblupErrors.ValidationError
		assert.True(t, gblupErrors.As(err, &validationErr))
	})

	t.Run("overlapping partitions", func(t *testing.T) {
		_, err := ValidateHoldout(g, pheno, train, []string{"ind3"})
		var validationErr *gblupErrors.ValidationError
		assert.True(t, gblupErrors.As(err, &validationErr))
	})

	t.Run("unknown individual", func(t *testing.T) {
		_, err := ValidateHoldout(g, pheno, train, []string{"ghost"})
		var validationErr *gblupErrors.ValidationError
		assert.True(t, gblupErrors.As(err, &validationErr))
	})
}

// TestValidateHoldoutSurfacesFitErrors: unlike CrossValidator, a holdout run
// does not swallow estimation failures. A constant training phenotype breaks
// the shrinkage and the error reaches the caller.
func TestValidateHoldoutSurfacesFitErrors(t *testing.T) {
	g := fixtureMatrix(t)
	pheno, err := genotype.NewPhenotype(
		[]string{"ind1", "ind2", "ind3", "ind4"},
		[]float64{5, 5, 5, 9},
	)
	require.NoError(t, err)

	_, err = ValidateHoldout(g, pheno, []string{"ind1", "ind2", "ind3"}, []string{"ind4"})
	var paramErr *gblupErrors.InvalidParameterError
	assert.True(t, gblupErrors.As(err, &paramErr))
}
