// Package log defines standard attribute keys for genomic prediction operations.
//
// This file contains predefined attribute keys that provide consistency across
// all logging operations in gblup. Using these standard keys enables better
// log analysis, monitoring, and debugging of prediction workflows.
//
// The attributes are organized into categories:
//   - Model and Operation Context
//   - Data Shape and Characteristics
//   - Variance Components
//   - Performance Metrics
//   - Cross-Validation Context
//   - Error Context
//
// These keys follow a hierarchical naming convention (e.g., "model.name",
// "data.markers") to enable structured log analysis and filtering.

package log

// Model and Operation Context
// These attributes identify the model type, analysis instance, and operation being performed.
const (
	// ModelNameKey identifies the type of prediction model.
	// Examples: "GBLUPRegressor", "RidgeSolver", "MarkerImputer"
	ModelNameKey = "model.name"

	// AnalysisIDKey provides a unique identifier for a specific fitted analysis.
	// This is useful for correlating training, prediction, and validation logs
	// that belong to the same model instance. Typically a UUID string.
	AnalysisIDKey = "analysis.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "cross_validate"
	OperationKey = "gs.operation"

	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "rrblup", "genotype", "metrics"
	ComponentKey = "gs.component"

	// PhaseKey indicates the phase of the analysis lifecycle.
	// Examples: "training", "inference", "validation", "preprocessing"
	PhaseKey = "gs.phase"
)

// Data Shape and Characteristics
// These attributes describe the structure and properties of data being processed.
const (
	// IndividualsKey indicates the number of individuals (rows) in the dataset.
	// This is crucial for understanding the scale of data being processed.
	IndividualsKey = "data.individuals"

	// MarkersKey indicates the number of markers (columns) in the genotype matrix.
	// Important for dimensionality tracking and debugging shape mismatches.
	MarkersKey = "data.markers"

	// CovariatesKey indicates the number of fixed-effect covariates beyond the intercept.
	CovariatesKey = "data.covariates"

	// TraitKey identifies the phenotypic trait being analyzed.
	// Examples: "yield", "plant_height", "days_to_flowering"
	TraitKey = "data.trait"

	// MissingRateKey records the fraction of missing genotype calls in a matrix.
	// Range [0.0, 1.0]; relevant for imputation decisions.
	MissingRateKey = "data.missing_rate"
)

// Variance Components
// These attributes capture the outputs of restricted maximum likelihood estimation.
const (
	// HeritabilityKey records the estimated narrow-sense heritability.
	// Range (0.0, 1.0) for usable estimates; boundary values trigger warnings.
	HeritabilityKey = "varcomp.heritability"

	// GeneticVarianceKey records the estimated genetic variance component.
	GeneticVarianceKey = "varcomp.genetic_variance"

	// ResidualVarianceKey records the estimated residual variance component.
	ResidualVarianceKey = "varcomp.residual_variance"

	// DeltaKey records the variance ratio (residual / genetic) at the optimum.
	DeltaKey = "varcomp.delta"

	// ConvergedKey indicates whether the likelihood maximization converged
	// in the interior of the search range.
	ConvergedKey = "varcomp.converged"
)

// Performance Metrics
// These attributes capture timing, accuracy, and iteration information.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	// This is essential for performance monitoring and optimization.
	DurationMsKey = "perf.duration_ms"

	// DurationSecondsKey records the execution time in seconds for longer operations.
	// Useful for cross-validation runs that take minutes.
	DurationSecondsKey = "perf.duration_seconds"

	// CorrelationKey records the Pearson correlation between predicted and
	// observed phenotypes, the standard accuracy measure in genomic prediction.
	CorrelationKey = "metrics.correlation"

	// R2ScoreKey records R² coefficient of determination for regression.
	// Range typically [-∞, 1.0], with 1.0 being perfect prediction.
	R2ScoreKey = "metrics.r2_score"

	// MSEKey records mean squared error for evaluation operations.
	MSEKey = "metrics.mse"

	// IterationKey records the current iteration number during iterative processes.
	// Useful for tracking convergence of the likelihood maximization.
	IterationKey = "reml.iteration"
)

// Cross-Validation Context
// These attributes describe repeated random subsampling runs and their scheduling.
const (
	// RepetitionKey records the zero-based index of a single cross-validation run.
	RepetitionKey = "cv.repetition"

	// RepetitionsKey records the total number of requested repetitions.
	RepetitionsKey = "cv.repetitions"

	// TestSizeKey records the number of individuals held out per repetition.
	TestSizeKey = "cv.test_size"

	// WorkersKey records the number of goroutines used to fan out repetitions.
	WorkersKey = "cv.workers"

	// FailuresKey records how many repetitions failed within a repeated run.
	FailuresKey = "cv.failures"
)

// Prediction and Output Context
// These attributes describe prediction operations and their results.
const (
	// PredsKey indicates the number of predictions made.
	// Useful for throughput monitoring.
	PredsKey = "preds.count"
)

// Error and Warning Context
// These attributes provide additional context for error and warning messages.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Examples: "DIMENSION_MISMATCH", "NOT_FITTED", "CONVERGENCE_FAILURE"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "ValidationError", "SingularSystemError", "DegenerateInputError"
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Automatically populated by the error logging functions.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides helpful suggestions for resolving issues.
	// Examples: "Check genotype coding", "Increase max_iterations"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
// These attributes capture analysis configuration for reproducibility.
const (
	// HeritabilityPriorKey records a user-supplied heritability used for
	// homogeneous shrinkage instead of an estimated one.
	HeritabilityPriorKey = "config.hsq"

	// ShrinkageModeKey records the shrinkage derivation strategy.
	// Values: "homogeneous", "heterogeneous"
	ShrinkageModeKey = "config.shrinkage_mode"

	// NormalizationKey records the relationship matrix normalization policy.
	// Values: "none", "marker_count", "vanraden"
	NormalizationKey = "config.normalization"

	// MaxIterationsKey records the iteration cap for the likelihood maximization.
	MaxIterationsKey = "config.max_iterations"

	// RandomSeedKey records the random seed for reproducibility.
	// Essential for debugging and ensuring reproducible subsampling.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute value constants for common operations.
// Using these constants ensures consistency across the codebase.
const (
	// Standard operations
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationTransform     = "transform"
	OperationScore         = "score"
	OperationCrossValidate = "cross_validate"
	OperationHoldout       = "holdout"

	// Standard phases
	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	// Standard error codes
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
	ErrorMarkerMismatch    = "MARKER_MISMATCH"
	ErrorDegenerateInput   = "DEGENERATE_INPUT"
)
