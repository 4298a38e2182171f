// Package rrblup implements genomic prediction by ridge-regression BLUP.
//
// The pipeline estimates genome-wide marker effects from genotype and phenotype
// measurements and predicts unobserved trait values for new individuals:
//   - BuildDesign: fixed-effect design X and the genomic relationship matrix G
//   - VarianceComponentEstimator: REML on the variance ratio via eigendecomposition
//   - HomogeneousShrinkage / HeterogeneousShrinkage: ridge penalties, one for all
//     markers or per marker from the SingleMarkerVariances ANOVA screen
//   - EstimateEffects: regularized least-squares marker effects
//   - Predictor: marker-label-checked prediction for new individuals
//   - CrossValidator: repeated random-subsampling accuracy estimation
//
// # Basic Usage
//
// Fit a model and predict new individuals:
//
//	reg := rrblup.NewGBLUPRegressor()
//	if err := reg.Fit(genoTrain, pheno); err != nil {
//	    log.Fatal(err)
//	}
//	pred, _ := reg.Predict(genoNew)
//
// # Cross-Validation
//
// Estimate predictive ability by repeated random subsampling:
//
//	cv := rrblup.NewCrossValidator(
//	    rrblup.WithRepetitions(50),
//	    rrblup.WithTestSize(200),
//	    rrblup.WithSeed(42),
//	)
//	result, _ := cv.Run(geno, pheno)
//	fmt.Printf("mean accuracy: %.3f\n", result.MeanCorrelation)
//
// # Heterogeneous Shrinkage
//
// Per-marker penalties derived from single-marker ANOVA:
//
//	reg := rrblup.NewGBLUPRegressor(
//	    rrblup.WithShrinkageMode(rrblup.ShrinkageHeterogeneous),
//	)
//
// GBLUPRegressor follows the shared estimator conventions: BaseEstimator state
// tracking, NotFittedError before Fit, structured errors from pkg/errors and
// structured logging through pkg/log.
package rrblup
