package genotype

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gblup/pkg/errors"
)

func asDimensionError(err error) bool {
	var target *errors.DimensionError
	return errors.As(err, &target)
}

func asValidationError(err error) bool {
	var target *errors.ValidationError
	return errors.As(err, &target)
}

func asValueError(err error) bool {
	var target *errors.ValueError
	return errors.As(err, &target)
}

func asInvalidParameterError(err error) bool {
	var target *errors.InvalidParameterError
	return errors.As(err, &target)
}

func TestNewMatrix(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		markers []string
		codes   *mat.Dense
		opts    []MatrixOption
		wantErr bool
		errType func(error) bool
	}{
		{
			name:    "valid 2x3 matrix",
			ids:     []string{"ind_1", "ind_2"},
			markers: []string{"snp_1", "snp_2", "snp_3"},
			codes: mat.NewDense(2, 3, []float64{
				1, 0, -1,
				0, 1, 1,
			}),
			wantErr: false,
		},
		{
			name:    "nil codes",
			ids:     []string{"ind_1"},
			markers: []string{"snp_1"},
			codes:   nil,
			wantErr: true,
		},
		{
			name:    "id count mismatch",
			ids:     []string{"ind_1"},
			markers: []string{"snp_1", "snp_2"},
			codes: mat.NewDense(2, 2, []float64{
				1, 0,
				0, 1,
			}),
			wantErr: true,
			errType: asDimensionError,
		},
		{
			name:    "marker count mismatch",
			ids:     []string{"ind_1", "ind_2"},
			markers: []string{"snp_1"},
			codes: mat.NewDense(2, 2, []float64{
				1, 0,
				0, 1,
			}),
			wantErr: true,
			errType: asDimensionError,
		},
		{
			name:    "duplicate individual id",
			ids:     []string{"ind_1", "ind_1"},
			markers: []string{"snp_1"},
			codes: mat.NewDense(2, 1, []float64{
				1,
				0,
			}),
			wantErr: true,
			errType: asValidationError,
		},
		{
			name:    "duplicate marker name",
			ids:     []string{"ind_1", "ind_2"},
			markers: []string{"snp_1", "snp_1"},
			codes: mat.NewDense(2, 2, []float64{
				1, 0,
				0, 1,
			}),
			wantErr: true,
			errType: asValidationError,
		},
		{
			name:    "infinite code",
			ids:     []string{"ind_1", "ind_2"},
			markers: []string{"snp_1"},
			codes: mat.NewDense(2, 1, []float64{
				1,
				math.Inf(1),
			}),
			wantErr: true,
			errType: asValueError,
		},
		{
			name:    "missing call rejected by default",
			ids:     []string{"ind_1", "ind_2"},
			markers: []string{"snp_1"},
			codes: mat.NewDense(2, 1, []float64{
				1,
				math.NaN(),
			}),
			wantErr: true,
			errType: asValueError,
		},
		{
			name:    "invalid max missing rate",
			ids:     []string{"ind_1"},
			markers: []string{"snp_1"},
			codes:   mat.NewDense(1, 1, []float64{1}),
			opts:    []MatrixOption{WithMaxMissingRate(1.5)},
			wantErr: true,
			errType: asInvalidParameterError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewMatrix(tt.ids, tt.markers, tt.codes, tt.opts...)

			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMatrix() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if tt.errType != nil && !tt.errType(err) {
					t.Errorf("NewMatrix() error = %v, want a different error type", err)
				}
				return
			}

			if g.NumIndividuals() != len(tt.ids) {
				t.Errorf("NumIndividuals() = %d, want %d", g.NumIndividuals(), len(tt.ids))
			}
			if g.NumMarkers() != len(tt.markers) {
				t.Errorf("NumMarkers() = %d, want %d", g.NumMarkers(), len(tt.markers))
			}
		})
	}
}

// 平均補完ポリシーでは欠測セルだけが列平均に置き換わる
func TestNewMatrixMeanImpute(t *testing.T) {
	codes := mat.NewDense(3, 2, []float64{
		1, math.NaN(),
		0, 1,
		-1, 0,
	})
	g, err := NewMatrix(
		[]string{"a", "b", "c"},
		[]string{"snp_1", "snp_2"},
		codes,
		WithMissingPolicy(MissingMeanImpute),
	)
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}

	// snp_2 の観測値は 1 と 0 なので平均は 0.5
	if got := g.At(0, 1); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("imputed cell = %v, want 0.5", got)
	}
	// 観測済みセルはそのまま
	if got := g.At(1, 1); got != 1 {
		t.Errorf("observed cell = %v, want 1", got)
	}

	// 元のDenseを書き換えても行列は影響を受けない
	codes.Set(1, 0, 99)
	if got := g.At(1, 0); got != 0 {
		t.Errorf("matrix shares backing storage with caller: got %v, want 0", got)
	}
}

func TestNewMatrixMaxMissingRate(t *testing.T) {
	codes := mat.NewDense(2, 2, []float64{
		math.NaN(), math.NaN(),
		0, 1,
	})
	_, err := NewMatrix(
		[]string{"a", "b"},
		[]string{"snp_1", "snp_2"},
		codes,
		WithMissingPolicy(MissingMeanImpute),
		WithMaxMissingRate(0.5),
	)
	if err == nil {
		t.Fatal("NewMatrix() expected error for individual above missing-rate limit")
	}
	var degenerate *errors.DegenerateInputError
	if !errors.As(err, &degenerate) {
		t.Errorf("NewMatrix() error = %v, want DegenerateInputError", err)
	}
}

func TestMatrixAccessorsReturnCopies(t *testing.T) {
	g, err := NewMatrix(
		[]string{"ind_1", "ind_2"},
		[]string{"snp_1", "snp_2"},
		mat.NewDense(2, 2, []float64{1, 0, 0, -1}),
	)
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}

	ids := g.IDs()
	ids[0] = "mutated"
	if g.IDs()[0] != "ind_1" {
		t.Error("IDs() does not return a copy")
	}

	names := g.MarkerNames()
	names[1] = "mutated"
	if g.MarkerNames()[1] != "snp_2" {
		t.Error("MarkerNames() does not return a copy")
	}

	row := g.Row(0)
	row[0] = 42
	if g.At(0, 0) != 1 {
		t.Error("Row() does not return a copy")
	}
}

func TestMatrixRowIndex(t *testing.T) {
	g, err := NewMatrix(
		[]string{"ind_1", "ind_2", "ind_3"},
		[]string{"snp_1"},
		mat.NewDense(3, 1, []float64{1, 0, -1}),
	)
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}

	if idx, ok := g.RowIndex("ind_2"); !ok || idx != 1 {
		t.Errorf("RowIndex(ind_2) = %d, %v; want 1, true", idx, ok)
	}
	if _, ok := g.RowIndex("unknown"); ok {
		t.Error("RowIndex(unknown) = true, want false")
	}
}

func TestMatrixSubset(t *testing.T) {
	g, err := NewMatrix(
		[]string{"a", "b", "c", "d"},
		[]string{"snp_1", "snp_2"},
		mat.NewDense(4, 2, []float64{
			1, 0,
			0, 1,
			-1, -1,
			1, 1,
		}),
	)
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}

	t.Run("valid subset preserves order and content", func(t *testing.T) {
		sub, err := g.Subset([]int{3, 0})
		if err != nil {
			t.Fatalf("Subset() error = %v", err)
		}
		if sub.NumIndividuals() != 2 || sub.NumMarkers() != 2 {
			t.Fatalf("Subset() shape = %dx%d, want 2x2", sub.NumIndividuals(), sub.NumMarkers())
		}
		if got := sub.IDs(); got[0] != "d" || got[1] != "a" {
			t.Errorf("Subset() ids = %v, want [d a]", got)
		}
		if sub.At(0, 0) != 1 || sub.At(0, 1) != 1 {
			t.Errorf("Subset() row 0 = [%v %v], want [1 1]", sub.At(0, 0), sub.At(0, 1))
		}
		if idx, ok := sub.RowIndex("a"); !ok || idx != 1 {
			t.Errorf("Subset() RowIndex(a) = %d, %v; want 1, true", idx, ok)
		}
	})

	t.Run("out of range row", func(t *testing.T) {
		if _, err := g.Subset([]int{0, 4}); err == nil {
			t.Error("Subset() expected error for out-of-range row")
		}
	})

	t.Run("duplicate row", func(t *testing.T) {
		if _, err := g.Subset([]int{1, 1}); err == nil {
			t.Error("Subset() expected error for duplicate row")
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		if _, err := g.Subset(nil); err == nil {
			t.Error("Subset() expected error for empty selection")
		}
	})
}

func TestMatrixSubsetByIDs(t *testing.T) {
	g, err := NewMatrix(
		[]string{"a", "b", "c"},
		[]string{"snp_1"},
		mat.NewDense(3, 1, []float64{1, 0, -1}),
	)
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}

	sub, err := g.SubsetByIDs([]string{"c", "a"})
	if err != nil {
		t.Fatalf("SubsetByIDs() error = %v", err)
	}
	if got := sub.IDs(); got[0] != "c" || got[1] != "a" {
		t.Errorf("SubsetByIDs() ids = %v, want [c a]", got)
	}
	if sub.At(0, 0) != -1 {
		t.Errorf("SubsetByIDs() At(0,0) = %v, want -1", sub.At(0, 0))
	}

	if _, err := g.SubsetByIDs([]string{"a", "zzz"}); err == nil {
		t.Error("SubsetByIDs() expected error for unknown id")
	}
}

func TestMissingPolicyString(t *testing.T) {
	if MissingReject.String() != "reject" {
		t.Errorf("MissingReject.String() = %q, want %q", MissingReject.String(), "reject")
	}
	if MissingMeanImpute.String() != "mean_impute" {
		t.Errorf("MissingMeanImpute.String() = %q, want %q", MissingMeanImpute.String(), "mean_impute")
	}
}
