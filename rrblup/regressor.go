package rrblup

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gblup/core/model"
	"github.com/YuminosukeSato/gblup/genotype"
	"github.com/YuminosukeSato/gblup/metrics"
	gblupErrors "github.com/YuminosukeSato/gblup/pkg/errors"
	"github.com/YuminosukeSato/gblup/pkg/log"
)

// GBLUPRegressor implements genomic prediction by ridge-regression BLUP with
// a scikit-learn style Fit/Predict API
type GBLUPRegressor struct {
	model.BaseEstimator

	// Hyperparameters
	maxIterations int           // REML Newton iteration bound
	tolerance     float64       // REML convergence tolerance
	shrinkage     ShrinkageMode // homogeneous or heterogeneous penalties
	heritability  float64       // fixed h² in (0,1); 0 estimates by REML
	normalization Normalization // relationship matrix scaling
	covariates    *mat.Dense    // fixed-effect covariates, one row per individual

	// Fitted state
	analysisID string
	effects    *MarkerEffects
	varcomp    *VarianceComponents
	predictor  *Predictor
	nMarkers   int
}

// NewGBLUPRegressor creates a regressor with default parameters: REML-estimated
// heritability, homogeneous shrinkage and an unnormalized relationship matrix.
func NewGBLUPRegressor(opts ...Option) *GBLUPRegressor {
	r := &GBLUPRegressor{
		maxIterations: 100,
		tolerance:     1e-8,
		shrinkage:     ShrinkageHomogeneous,
		heritability:  0,
		normalization: NormalizationNone,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit estimates variance components, shrinkage penalties and marker effects
// from aligned genotype and phenotype data.
//
// Phenotype values are matched to genotype rows by individual ID; every
// genotyped individual must have a phenotype. With WithHeritability the REML
// step is skipped and the penalties are derived from the fixed variance ratio.
func (r *GBLUPRegressor) Fit(g *genotype.Matrix, pheno *genotype.Phenotype) (err error) {
	defer gblupErrors.Recover(&err, "GBLUPRegressor.Fit")

	if g == nil || pheno == nil {
		return gblupErrors.NewModelError("GBLUPRegressor.Fit", "empty data", gblupErrors.ErrEmptyData)
	}
	if r.maxIterations < 1 {
		return gblupErrors.NewInvalidParameterError("max_iterations",
			"must be at least 1", float64(r.maxIterations))
	}
	if r.tolerance <= 0 {
		return gblupErrors.NewInvalidParameterError("tolerance",
			"must be positive", r.tolerance)
	}
	if r.heritability != 0 && (r.heritability <= 0 || r.heritability >= 1) {
		return gblupErrors.NewInvalidParameterError("heritability",
			"a fixed heritability must lie strictly between 0 and 1", r.heritability)
	}

	y, err := pheno.AlignTo(g.IDs())
	if err != nil {
		return err
	}

	n := g.NumIndividuals()
	m := g.NumMarkers()
	id := uuid.NewString()

	logger := log.GetLoggerWithName("rrblup.regressor")
	logger.Info("fitting GBLUP model",
		"analysis_id", id,
		"individuals", n,
		"markers", m,
		"shrinkage", r.shrinkage.String(),
		"normalization", r.normalization.String())

	X, G, err := BuildDesign(g, r.covariates, r.normalization)
	if err != nil {
		return err
	}

	vc, err := r.varianceComponents(X, G, y, n)
	if err != nil {
		return err
	}
	logger.Info("variance components ready",
		"analysis_id", id,
		"genetic", vc.Genetic,
		"residual", vc.Residual,
		"heritability", vc.Heritability,
		"delta", vc.Delta,
		"converged", vc.Converged)

	spec, err := r.shrinkageSpec(g, y, m, vc)
	if err != nil {
		return err
	}

	effects, err := EstimateEffects(X, g, y, spec)
	if err != nil {
		return err
	}
	predictor, err := NewPredictor(effects)
	if err != nil {
		return err
	}

	r.analysisID = id
	r.effects = effects
	r.varcomp = vc
	r.predictor = predictor
	r.nMarkers = m
	r.SetFitted()

	logger.Info("GBLUP model fitted",
		"analysis_id", id,
		"markers", m,
		"heritability", vc.Heritability)
	return nil
}

// varianceComponents runs REML, or converts a fixed heritability into the
// variance ratio. The fixed path works on a relative scale (Genetic = 1):
// the scale cancels in every penalty derived from it.
func (r *GBLUPRegressor) varianceComponents(X mat.Matrix, G *RelationshipMatrix, y []float64, n int) (*VarianceComponents, error) {
	if r.heritability != 0 {
		delta := 1/r.heritability - 1
		return &VarianceComponents{
			Genetic:      1,
			Residual:     delta,
			Heritability: r.heritability,
			Delta:        delta,
			Converged:    true,
		}, nil
	}
	est := &VarianceComponentEstimator{
		MaxIterations: r.maxIterations,
		Tolerance:     r.tolerance,
	}
	return est.Estimate(X, G, y)
}

// shrinkageSpec derives the ridge penalties for the configured mode.
func (r *GBLUPRegressor) shrinkageSpec(g *genotype.Matrix, y []float64, m int, vc *VarianceComponents) (*ShrinkageSpec, error) {
	switch r.shrinkage {
	case ShrinkageHeterogeneous:
		mv, err := SingleMarkerVariances(g, y)
		if err != nil {
			return nil, err
		}
		return HeterogeneousShrinkage(vc, mv.Contributions)
	default:
		return HomogeneousShrinkage(m, vc.Heritability)
	}
}

// Predict returns predicted trait values for the individuals in g. The marker
// set must match the training markers by label and order.
func (r *GBLUPRegressor) Predict(g *genotype.Matrix) (*Prediction, error) {
	if !r.IsFitted() {
		return nil, gblupErrors.NewNotFittedError("GBLUPRegressor", "Predict")
	}
	return r.predictor.Predict(g)
}

// PredictWithCovariates returns predicted trait values using covariate values
// for the new individuals, in the training covariate order.
func (r *GBLUPRegressor) PredictWithCovariates(g *genotype.Matrix, covariates *mat.Dense) (*Prediction, error) {
	if !r.IsFitted() {
		return nil, gblupErrors.NewNotFittedError("GBLUPRegressor", "PredictWithCovariates")
	}
	return r.predictor.PredictWithCovariates(g, covariates)
}

// Score returns the Pearson correlation between observed and predicted values
// for the individuals in g, the standard predictive-ability measure.
func (r *GBLUPRegressor) Score(g *genotype.Matrix, pheno *genotype.Phenotype) (float64, error) {
	if !r.IsFitted() {
		return 0, gblupErrors.NewNotFittedError("GBLUPRegressor", "Score")
	}
	if g == nil || pheno == nil {
		return 0, gblupErrors.NewModelError("GBLUPRegressor.Score", "empty data", gblupErrors.ErrEmptyData)
	}
	pred, err := r.Predict(g)
	if err != nil {
		return 0, err
	}
	y, err := pheno.AlignTo(g.IDs())
	if err != nil {
		return 0, err
	}
	return metrics.PearsonCorrelation(y, pred.Values)
}

// MarkerEffects returns a copy of the fitted per-marker additive effects, or
// nil before Fit.
func (r *GBLUPRegressor) MarkerEffects() []float64 {
	if !r.IsFitted() {
		return nil
	}
	out := make([]float64, len(r.effects.Effects))
	copy(out, r.effects.Effects)
	return out
}

// FixedEffects returns a copy of the fitted fixed-effect coefficients with the
// intercept first, or nil before Fit.
func (r *GBLUPRegressor) FixedEffects() []float64 {
	if !r.IsFitted() {
		return nil
	}
	out := make([]float64, len(r.effects.FixedCoefficients))
	copy(out, r.effects.FixedCoefficients)
	return out
}

// FittedEffects returns the full fitted marker-effect set with marker names
// and the shrinkage specification, or nil before Fit.
func (r *GBLUPRegressor) FittedEffects() *MarkerEffects {
	if !r.IsFitted() {
		return nil
	}
	return r.effects
}

// VarianceComponents returns the fitted variance components, or nil before Fit.
func (r *GBLUPRegressor) VarianceComponents() *VarianceComponents {
	if !r.IsFitted() {
		return nil
	}
	vc := *r.varcomp
	return &vc
}

// AnalysisID returns the identifier assigned to the last successful Fit.
func (r *GBLUPRegressor) AnalysisID() string {
	return r.analysisID
}

// GetParams returns the hyperparameters of the regressor
func (r *GBLUPRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_iterations": r.maxIterations,
		"tolerance":      r.tolerance,
		"shrinkage_mode": r.shrinkage.String(),
		"heritability":   r.heritability,
		"normalization":  r.normalization.String(),
	}
}
