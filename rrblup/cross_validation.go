package rrblup

import (
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/YuminosukeSato/gblup/core/parallel"
	"github.com/YuminosukeSato/gblup/genotype"
	"github.com/YuminosukeSato/gblup/metrics"
	gblupErrors "github.com/YuminosukeSato/gblup/pkg/errors"
	"github.com/YuminosukeSato/gblup/pkg/log"
)

// CVRun records one cross-validation repetition: the ID partition, the model
// fitted on the training side and its accuracy on the held-out side.
// FailureReason is empty for successful repetitions.
type CVRun struct {
	Repetition    int
	TrainIDs      []string
	TestIDs       []string
	Effects       *MarkerEffects
	Components    *VarianceComponents
	Predicted     []float64
	Observed      []float64
	Correlation   float64
	FailureReason string
}

// Failed reports whether the repetition was recorded as a failure.
func (r *CVRun) Failed() bool { return r.FailureReason != "" }

// CVResult aggregates all repetitions of one cross-validation, in repetition
// order, with summary statistics computed over the successful runs only.
type CVResult struct {
	AnalysisID        string
	Seed              uint64
	Runs              []CVRun
	Successes         int
	Failures          int
	FailureReasons    []string
	MeanCorrelation   float64
	VarCorrelation    float64
	MedianCorrelation float64
	StdDevCorrelation float64
}

// CVOption is a function that configures CrossValidator
type CVOption func(*CrossValidator)

// WithRepetitions sets the number of random subsampling repetitions
func WithRepetitions(r int) CVOption {
	return func(cv *CrossValidator) {
		cv.repetitions = r
	}
}

// WithTestSize sets the number of individuals held out per repetition
func WithTestSize(k int) CVOption {
	return func(cv *CrossValidator) {
		cv.testSize = k
	}
}

// WithSeed sets the random seed that drives every partition
func WithSeed(seed uint64) CVOption {
	return func(cv *CrossValidator) {
		cv.seed = seed
	}
}

// WithWorkers caps the number of concurrent repetitions
func WithWorkers(n int) CVOption {
	return func(cv *CrossValidator) {
		cv.workers = n
	}
}

// WithModelOptions forwards regressor options to every repetition's model
func WithModelOptions(opts ...Option) CVOption {
	return func(cv *CrossValidator) {
		cv.modelOpts = opts
	}
}

// CrossValidator estimates predictive ability by repeated random subsampling:
// each repetition holds out a random test set, refits the whole chain on the
// remaining individuals and correlates predicted with observed values.
//
// Repetition r draws its partition from its own PCG stream seeded with
// (seed, r), so results are reproducible regardless of scheduling.
type CrossValidator struct {
	repetitions int
	testSize    int
	seed        uint64
	workers     int
	modelOpts   []Option
}

// NewCrossValidator creates a cross-validator with default parameters:
// 50 repetitions, 200 held-out individuals, seed 42.
func NewCrossValidator(opts ...CVOption) *CrossValidator {
	cv := &CrossValidator{
		repetitions: 50,
		testSize:    200,
		seed:        42,
	}
	for _, opt := range opts {
		opt(cv)
	}
	return cv
}

// Run executes all repetitions concurrently and aggregates their results.
//
// A numerical failure inside one repetition is recorded on its CVRun and the
// batch continues; structural errors (dimension or marker mismatch, unknown
// IDs) abort the whole batch. Run fails when no repetition succeeds.
func (cv *CrossValidator) Run(g *genotype.Matrix, pheno *genotype.Phenotype) (res *CVResult, err error) {
	defer gblupErrors.Recover(&err, "CrossValidator.Run")
	const op = "CrossValidator.Run"

	if g == nil || pheno == nil {
		return nil, gblupErrors.NewModelError(op, "empty data", gblupErrors.ErrEmptyData)
	}
	n := g.NumIndividuals()
	if cv.repetitions < 1 {
		return nil, gblupErrors.NewInvalidParameterError("cv_repetitions",
			"must be at least 1", float64(cv.repetitions))
	}
	if cv.testSize < 1 || cv.testSize >= n {
		return nil, gblupErrors.NewInvalidParameterError("cv_test_size",
			"must be at least 1 and smaller than the number of individuals", float64(cv.testSize))
	}
	// Every individual needs a phenotype before any partition is drawn.
	if _, err := pheno.AlignTo(g.IDs()); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := log.GetLoggerWithName("rrblup.cv")
	logger.Info("running cross-validation",
		"analysis_id", id,
		"repetitions", cv.repetitions,
		"test_size", cv.testSize,
		"individuals", n,
		"seed", cv.seed)

	runs := make([]CVRun, cv.repetitions)
	aborts := make([]error, cv.repetitions)
	parallel.ParallelizeIndexed(cv.repetitions, cv.workers, func(rep int) {
		runs[rep], aborts[rep] = cv.runOnce(g, pheno, rep)
	})
	for _, abort := range aborts {
		if abort != nil {
			return nil, abort
		}
	}

	correlations := make([]float64, 0, cv.repetitions)
	var reasons []string
	for i := range runs {
		if runs[i].Failed() {
			reasons = append(reasons, runs[i].FailureReason)
		} else {
			correlations = append(correlations, runs[i].Correlation)
		}
	}
	if len(correlations) == 0 {
		return nil, gblupErrors.NewDegenerateInputError(op, "no cross-validation repetition succeeded")
	}

	mean, _ := stats.Mean(correlations)
	variance, _ := stats.SampleVariance(correlations)
	median, _ := stats.Median(correlations)
	stddev, _ := stats.StandardDeviationSample(correlations)

	result := &CVResult{
		AnalysisID:        id,
		Seed:              cv.seed,
		Runs:              runs,
		Successes:         len(correlations),
		Failures:          len(reasons),
		FailureReasons:    reasons,
		MeanCorrelation:   mean,
		VarCorrelation:    variance,
		MedianCorrelation: median,
		StdDevCorrelation: stddev,
	}

	logger.Info("cross-validation finished",
		"analysis_id", id,
		"successes", result.Successes,
		"failures", result.Failures,
		"mean_correlation", result.MeanCorrelation)
	return result, nil
}

// runOnce executes repetition rep. The second return value carries structural
// errors that must abort the batch; numerical problems are recorded on the run.
func (cv *CrossValidator) runOnce(g *genotype.Matrix, pheno *genotype.Phenotype, rep int) (CVRun, error) {
	rng := rand.New(rand.NewPCG(cv.seed, uint64(rep)))
	perm := rng.Perm(g.NumIndividuals())
	testIdx := perm[:cv.testSize]
	trainIdx := perm[cv.testSize:]
	sort.Ints(testIdx)
	sort.Ints(trainIdx)

	gTrain, err := g.Subset(trainIdx)
	if err != nil {
		return CVRun{}, err
	}
	gTest, err := g.Subset(testIdx)
	if err != nil {
		return CVRun{}, err
	}
	observed, err := pheno.AlignTo(gTest.IDs())
	if err != nil {
		return CVRun{}, err
	}

	run := CVRun{
		Repetition: rep,
		TrainIDs:   gTrain.IDs(),
		TestIDs:    gTest.IDs(),
	}

	reg := NewGBLUPRegressor(cv.modelOpts...)
	if err := reg.Fit(gTrain, pheno); err != nil {
		return cv.recordFailure(run, err)
	}
	pred, err := reg.Predict(gTest)
	if err != nil {
		return cv.recordFailure(run, err)
	}

	run.Effects = reg.FittedEffects()
	run.Components = reg.VarianceComponents()
	run.Predicted = pred.Values
	run.Observed = observed

	corr, err := metrics.PearsonCorrelation(observed, pred.Values)
	if err != nil {
		// An ill-defined correlation (tiny or constant test sets) keeps the
		// repetition with the metric's fallback value, as the metric warns.
		var undef *gblupErrors.UndefinedMetricWarning
		if gblupErrors.As(err, &undef) {
			gblupErrors.Warn(undef)
			run.Correlation = undef.Result
			return run, nil
		}
		return cv.recordFailure(run, err)
	}
	run.Correlation = corr
	return run, nil
}

// recordFailure classifies err: structural errors propagate to abort the
// batch, numerical ones mark this repetition as failed.
func (cv *CrossValidator) recordFailure(run CVRun, err error) (CVRun, error) {
	if structuralFailure(err) {
		return CVRun{}, err
	}
	run.FailureReason = err.Error()
	return run, nil
}

func structuralFailure(err error) bool {
	var dim *gblupErrors.DimensionError
	var mismatch *gblupErrors.MarkerMismatchError
	var validation *gblupErrors.ValidationError
	var model *gblupErrors.ModelError
	return gblupErrors.As(err, &dim) ||
		gblupErrors.As(err, &mismatch) ||
		gblupErrors.As(err, &validation) ||
		gblupErrors.As(err, &model)
}
