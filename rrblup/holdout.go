package rrblup

import (
	"github.com/YuminosukeSato/gblup/genotype"
	"github.com/YuminosukeSato/gblup/metrics"
	gblupErrors "github.com/YuminosukeSato/gblup/pkg/errors"
)

// ValidateHoldout fits the model on an explicit training partition and scores
// the held-out individuals, returning one CVRun-shaped record. Unlike
// CrossValidator, a holdout run surfaces every error directly.
//
// The two partitions must be disjoint and every ID must exist in g.
func ValidateHoldout(g *genotype.Matrix, pheno *genotype.Phenotype, trainIDs, testIDs []string, opts ...Option) (*CVRun, error) {
	const op = "ValidateHoldout"

	if g == nil || pheno == nil {
		return nil, gblupErrors.NewModelError(op, "empty data", gblupErrors.ErrEmptyData)
	}
	if len(trainIDs) == 0 {
		return nil, gblupErrors.NewValidationError("train_ids", "training partition is empty", 0)
	}
	if len(testIDs) == 0 {
		return nil, gblupErrors.NewValidationError("test_ids", "test partition is empty", 0)
	}
	inTrain := make(map[string]struct{}, len(trainIDs))
	for _, id := range trainIDs {
		inTrain[id] = struct{}{}
	}
	for _, id := range testIDs {
		if _, overlap := inTrain[id]; overlap {
			return nil, gblupErrors.NewValidationError("test_ids",
				"individual appears in both partitions", id)
		}
	}

	gTrain, err := g.SubsetByIDs(trainIDs)
	if err != nil {
		return nil, err
	}
	gTest, err := g.SubsetByIDs(testIDs)
	if err != nil {
		return nil, err
	}
	observed, err := pheno.AlignTo(gTest.IDs())
	if err != nil {
		return nil, err
	}

	reg := NewGBLUPRegressor(opts...)
	if err := reg.Fit(gTrain, pheno); err != nil {
		return nil, err
	}
	pred, err := reg.Predict(gTest)
	if err != nil {
		return nil, err
	}

	corr, err := metrics.PearsonCorrelation(observed, pred.Values)
	if err != nil {
		var undef *gblupErrors.UndefinedMetricWarning
		if !gblupErrors.As(err, &undef) {
			return nil, err
		}
		gblupErrors.Warn(undef)
		corr = undef.Result
	}

	return &CVRun{
		TrainIDs:    gTrain.IDs(),
		TestIDs:     gTest.IDs(),
		Effects:     reg.FittedEffects(),
		Components:  reg.VarianceComponents(),
		Predicted:   pred.Values,
		Observed:    observed,
		Correlation: corr,
	}, nil
}
