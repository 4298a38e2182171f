// Package report writes analysis results to files: CSV tables for marker
// effects and cross-validation runs, and accuracy plots. It consumes the
// structures the estimation packages produce and computes nothing itself.
package report

import (
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/YuminosukeSato/gblup/pkg/errors"
	"github.com/YuminosukeSato/gblup/rrblup"
)

// EffectRecord is one row of the effect table: a fixed coefficient or a
// marker effect, identified by kind.
type EffectRecord struct {
	Kind  string  `csv:"kind"`
	Name  string  `csv:"name"`
	Value float64 `csv:"value"`
}

// CVRunRecord is one row of the cross-validation table.
type CVRunRecord struct {
	Repetition       int     `csv:"repetition"`
	TrainSize        int     `csv:"train_size"`
	TestSize         int     `csv:"test_size"`
	Correlation      float64 `csv:"correlation"`
	Heritability     float64 `csv:"heritability"`
	GeneticVariance  float64 `csv:"genetic_variance"`
	ResidualVariance float64 `csv:"residual_variance"`
	Converged        bool    `csv:"converged"`
	FailureReason    string  `csv:"failure_reason"`
}

const (
	kindFixed  = "fixed"
	kindMarker = "marker"
)

// WriteMarkerEffects writes the fitted effects as a kind/name/value table,
// fixed coefficients first (intercept, then covariates in design order),
// then one row per marker. The table round-trips through ReadMarkerEffects.
func WriteMarkerEffects(path string, me *rrblup.MarkerEffects) error {
	const op = "report.WriteMarkerEffects"
	if me == nil {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if len(me.Effects) != len(me.Markers) {
		return errors.NewDimensionError(op, len(me.Markers), len(me.Effects), 1)
	}

	records := make([]*EffectRecord, 0, len(me.FixedCoefficients)+len(me.Effects))
	for k, v := range me.FixedCoefficients {
		records = append(records, &EffectRecord{Kind: kindFixed, Name: fixedName(k), Value: v})
	}
	for j, v := range me.Effects {
		records = append(records, &EffectRecord{Kind: kindMarker, Name: me.Markers[j], Value: v})
	}

	return writeCSV(path, &records)
}

// ReadMarkerEffects reads a table written by WriteMarkerEffects back into
// marker effects, preserving row order within each kind.
func ReadMarkerEffects(path string) (*rrblup.MarkerEffects, error) {
	const op = "report.ReadMarkerEffects"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading effect table")
	}
	var records []*EffectRecord
	if err := gocsv.UnmarshalBytes(data, &records); err != nil {
		return nil, errors.Wrap(err, "parsing effect table")
	}

	me := &rrblup.MarkerEffects{}
	for _, rec := range records {
		switch rec.Kind {
		case kindFixed:
			me.FixedCoefficients = append(me.FixedCoefficients, rec.Value)
		case kindMarker:
			me.Markers = append(me.Markers, rec.Name)
			me.Effects = append(me.Effects, rec.Value)
		default:
			return nil, errors.NewValidationError("kind", "unknown effect kind", rec.Kind)
		}
	}
	if len(me.Markers) == 0 {
		return nil, errors.NewValueError(op, "effect table contains no marker rows")
	}
	return me, nil
}

// WriteCVRuns writes one row per cross-validation repetition. Failed
// repetitions keep their failure reason and zero-valued estimates.
func WriteCVRuns(path string, res *rrblup.CVResult) error {
	const op = "report.WriteCVRuns"
	if res == nil {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	records := make([]*CVRunRecord, 0, len(res.Runs))
	for i := range res.Runs {
		run := &res.Runs[i]
		rec := &CVRunRecord{
			Repetition:    run.Repetition,
			TrainSize:     len(run.TrainIDs),
			TestSize:      len(run.TestIDs),
			Correlation:   run.Correlation,
			FailureReason: run.FailureReason,
		}
		if run.Components != nil {
			rec.Heritability = run.Components.Heritability
			rec.GeneticVariance = run.Components.Genetic
			rec.ResidualVariance = run.Components.Residual
			rec.Converged = run.Components.Converged
		}
		records = append(records, rec)
	}

	return writeCSV(path, &records)
}

func fixedName(k int) string {
	if k == 0 {
		return "intercept"
	}
	return "covariate_" + strconv.Itoa(k)
}

func writeCSV(path string, records interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	defer f.Close()
	if err := gocsv.MarshalFile(records, f); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	return nil
}
