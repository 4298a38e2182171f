package rrblup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/YuminosukeSato/gblup/genotype"
	gblupErrors "github.com/YuminosukeSato/gblup/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestCrossValidatorSingleHoldout: with one held-out individual per repetition
// the correlation is undefined and the metric's fallback keeps the run alive,
// so a tiny data set still yields one record per repetition.
func TestCrossValidatorSingleHoldout(t *testing.T) {
	g := fixtureMatrix(t)
	pheno := fixturePhenotype(t)

	cv := NewCrossValidator(
		WithRepetitions(10),
		WithTestSize(1),
		WithSeed(1),
		WithWorkers(2),
		WithModelOptions(WithHeritability(0.9)),
	)
	res, err := cv.Run(g, pheno)
	require.NoError(t, err)

	assert.NotEmpty(t, res.AnalysisID)
	assert.Equal(t, uint64(1), res.Seed)
	require.Len(t, res.Runs, 10)
	assert.Equal(t, 10, res.Successes)
	assert.Equal(t, 0, res.Failures)
	for i, run := range res.Runs {
		assert.Equal(t, i, run.Repetition)
		assert.Len(t, run.TestIDs, 1)
		assert.Len(t, run.TrainIDs, 3)
		assert.False(t, run.Failed())
		assert.Equal(t, 0.0, run.Correlation)
	}
	assert.Equal(t, 0.0, res.MeanCorrelation)
	assert.Equal(t, 0.0, res.MedianCorrelation)
}

// TestCrossValidatorReproducible: the same seed reproduces every partition and
// every correlation; a different seed draws different partitions.
func TestCrossValidatorReproducible(t *testing.T) {
	g, pheno := simulatedData(t, 20, 10, 0.8, 5)

	run := func(seed uint64) *CVResult {
		cv := NewCrossValidator(
			WithRepetitions(4),
			WithTestSize(5),
			WithSeed(seed),
			WithModelOptions(WithHeritability(0.8)),
		)
		res, err := cv.Run(g, pheno)
		require.NoError(t, err)
		return res
	}

	first := run(99)
	second := run(99)
	other := run(100)

	var firstTests, otherTests []string
	for i := range first.Runs {
		assert.Equal(t, first.Runs[i].TrainIDs, second.Runs[i].TrainIDs)
		assert.Equal(t, first.Runs[i].TestIDs, second.Runs[i].TestIDs)
		assert.Equal(t, first.Runs[i].Correlation, second.Runs[i].Correlation)
		firstTests = append(firstTests, first.Runs[i].TestIDs...)
		otherTests = append(otherTests, other.Runs[i].TestIDs...)
	}
	assert.NotEqual(t, firstTests, otherTests)
}

// TestCrossValidatorSummary exercises the full REML chain per repetition and
// checks the aggregate over a strongly heritable simulated trait.
func TestCrossValidatorSummary(t *testing.T) {
	g, pheno := simulatedData(t, 60, 20, 0.9, 21)

	cv := NewCrossValidator(
		WithRepetitions(5),
		WithTestSize(10),
		WithSeed(7),
		WithModelOptions(WithNormalization(NormalizationMarkerCount)),
	)
	res, err := cv.Run(g, pheno)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Successes+res.Failures)
	assert.Equal(t, 5, res.Successes)
	for _, run := range res.Runs {
		require.NotNil(t, run.Effects)
		assert.Len(t, run.Effects.Effects, 20)
		require.NotNil(t, run.Components)
		assert.Greater(t, run.Components.Genetic, 0.0)
		assert.Len(t, run.Predicted, 10)
		assert.Len(t, run.Observed, 10)
	}
	// A trait this heritable must show clear out-of-sample signal.
	assert.Greater(t, res.MeanCorrelation, 0.2)
	assert.LessOrEqual(t, res.MedianCorrelation, 1.0)
	assert.GreaterOrEqual(t, res.VarCorrelation, 0.0)
	assert.GreaterOrEqual(t, res.StdDevCorrelation, 0.0)
}

func TestCrossValidatorValidation(t *testing.T) {
	g := fixtureMatrix(t)
	pheno := fixturePhenotype(t)

	t.Run("nil genotypes", func(t *testing.T) {
		_, err := NewCrossValidator().Run(nil, pheno)
		var modelErr *gblupErrors.ModelError
		assert.True(t, gblupErrors.As(err, &modelErr))
	})

	t.Run("nil phenotypes", func(t *testing.T) {
		_, err := NewCrossValidator().Run(g, nil)
		var modelErr *gblupErrors.ModelError
		assert.True(t, gblupErrors.As(err, &modelErr))
	})

	t.Run("zero repetitions", func(t *testing.T) {
		_, err := NewCrossValidator(WithRepetitions(0), WithTestSize(1)).Run(g, pheno)
		var paramErr *gblupErrors.InvalidParameterError
		assert.True(t, gblupErrors.As(err, &paramErr))
	})

	t.Run("zero test size", func(t *testing.T) {
		_, err := NewCrossValidator(WithRepetitions(1), WithTestSize(0)).Run(g, pheno)
		var paramErr *gblupErrors.InvalidParameterError
		assert.True(t, gblupErrors.As(err, &paramErr))
	})

	t.Run("test size swallows data", func(t *testing.T) {
		_, err := NewCrossValidator(WithRepetitions(1), WithTestSize(4)).Run(g, pheno)
		var paramErr *gblupErrors.InvalidParameterError
		assert.True(t, gblupErrors.As(err, &paramErr))
	})

	t.Run("missing phenotype", func(t *testing.T) {
		short, err := genotype.NewPhenotype([]string{"ind1", "ind2", "ind3"}, []float64{10, 12, 8})
		require.NoError(t, err)
		_, err = NewCrossValidator(WithRepetitions(1), WithTestSize(1)).Run(g, short)
		var validationErr *gblupErrors.ValidationError
		assert.True(t, gblupErrors.As(err, &validationErr))
	})
}

// TestCrossValidatorAllRepetitionsFail: a constant phenotype breaks variance
// component estimation in every repetition, which is a batch-level failure.
func TestCrossValidatorAllRepetitionsFail(t *testing.T) {
	g := fixtureMatrix(t)
	pheno, err := genotype.NewPhenotype(
		[]string{"ind1", "ind2", "ind3", "ind4"},
		[]float64{5, 5, 5, 5},
	)
	require.NoError(t, err)

	cv := NewCrossValidator(WithRepetitions(3), WithTestSize(1), WithSeed(2))
	_, err = cv.Run(g, pheno)
	var degenerate *gblupErrors.DegenerateInputError
	assert.True(t, gblupErrors.As(err, &degenerate))
}

// TestCrossValidatorRecordsNumericalFailures: a repetition that cannot fit
// stays in the result as a failed record without aborting the batch. With a
// constant phenotype everywhere but one individual, repetitions that hold out
// that individual train on constant values and fail; repetitions that keep it
// succeed.
func TestCrossValidatorRecordsNumericalFailures(t *testing.T) {
	g := fixtureMatrix(t)
	pheno, err := genotype.NewPhenotype(
		[]string{"ind1", "ind2", "ind3", "ind4"},
		[]float64{5, 5, 5, 9},
	)
	require.NoError(t, err)

	cv := NewCrossValidator(WithRepetitions(100), WithTestSize(1), WithSeed(3))
	res, err := cv.Run(g, pheno)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Successes+res.Failures)
	assert.Greater(t, res.Successes, 0)
	assert.Greater(t, res.Failures, 0)
	assert.Len(t, res.FailureReasons, res.Failures)
	for _, run := range res.Runs {
		if run.Failed() {
			assert.NotEmpty(t, run.FailureReason)
			assert.Nil(t, run.Effects)
		}
	}
}
