// Package gblup provides genomic prediction for Go: ridge-regression BLUP
// with REML variance component estimation, built on gonum.
//
// The library estimates marker effects from genotyped and phenotyped training
// individuals and predicts trait values for selection candidates from their
// genotypes alone, the standard workflow of genomic selection programs.
//
// # Features
//
//   - REML variance components by spectral decomposition with a safeguarded
//     Newton search (no per-iteration matrix inversion)
//   - Homogeneous and heterogeneous (per-marker) ridge shrinkage
//   - VanRaden and marker-count relationship matrix normalization
//   - Repeated random subsampling cross-validation with reproducible,
//     concurrent repetitions
//   - CSV and plot reporting of effects and accuracy
//
// # Quick Start
//
// Fit a model on simulated data and predict new individuals:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//	    "math/rand/v2"
//
//	    "github.com/YuminosukeSato/gblup/genotype"
//	    "github.com/YuminosukeSato/gblup/rrblup"
//	)
//
//	func main() {
//	    src := rand.NewPCG(42, 0)
//	    g, err := genotype.SimulateMatrix(200, 500, 0.3, src)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    effects := make([]float64, 500)
//	    for j := 0; j < 500; j += 3 {
//	        effects[j] = 0.5
//	    }
//	    pheno, err := genotype.SimulatePhenotype(g, effects, 0.6, src)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    reg := rrblup.NewGBLUPRegressor(
//	        rrblup.WithNormalization(rrblup.NormalizationVanRaden),
//	    )
//	    if err := reg.Fit(g, pheno); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    vc := reg.VarianceComponents()
//	    fmt.Printf("h² = %.3f\n", vc.Heritability)
//
//	    pred, err := reg.Predict(g)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("First prediction:", pred.Values[0])
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - genotype: genotype matrices, phenotypes, ID alignment, simulation
//   - rrblup: the estimation pipeline (design, REML, shrinkage, ridge solve,
//     prediction, cross-validation, configuration)
//   - metrics: regression metrics and Pearson correlation
//   - preprocessing: missing genotype call imputation
//   - report: CSV tables and accuracy plots
//   - pkg/errors, pkg/log: structured errors and logging
//   - core/model, core/parallel: estimator base types and worker fan-out
//
// # Error Handling
//
// Every failure carries a typed error (DimensionError, MarkerMismatchError,
// NumericalInstabilityError, ...) that can be matched with errors.As;
// non-fatal conditions are routed as warnings instead of being silently
// converted to defaults.
package gblup
