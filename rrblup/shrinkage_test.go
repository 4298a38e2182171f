package rrblup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gblupErrors "github.com/YuminosukeSato/gblup/pkg/errors"
)

func TestHomogeneousShrinkage(t *testing.T) {
	tests := []struct {
		name    string
		m       int
		hsq     float64
		want    float64
		wantErr bool
	}{
		{name: "three markers h2 0.9", m: 3, hsq: 0.9, want: 1.0 / 3.0},
		{name: "hundred markers h2 0.5", m: 100, hsq: 0.5, want: 100},
		{name: "single marker h2 0.25", m: 1, hsq: 0.25, want: 3},
		{name: "heritability zero", m: 10, hsq: 0, wantErr: true},
		{name: "heritability one", m: 10, hsq: 1, wantErr: true},
		{name: "heritability above one", m: 10, hsq: 1.2, wantErr: true},
		{name: "heritability negative", m: 10, hsq: -0.1, wantErr: true},
		{name: "no markers", m: 0, hsq: 0.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := HomogeneousShrinkage(tt.m, tt.hsq)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ShrinkageHomogeneous, spec.Mode)
			assert.InDelta(t, tt.want, spec.Lambda, 1e-12)
			assert.InDelta(t, tt.want, spec.At(0), 1e-12)
		})
	}
}

// TestHomogeneousShrinkageLimits: the penalty grows without bound as h²
// approaches 0 and vanishes as h² approaches 1.
func TestHomogeneousShrinkageLimits(t *testing.T) {
	low, err := HomogeneousShrinkage(10, 1e-6)
	require.NoError(t, err)
	high, err := HomogeneousShrinkage(10, 1-1e-6)
	require.NoError(t, err)

	assert.Greater(t, low.Lambda, 1e6)
	assert.Less(t, high.Lambda, 1e-4)
}

// TestHeterogeneousShrinkagePartition checks the exact apportionment:
// the per-marker variances must sum to σ²g·m.
func TestHeterogeneousShrinkagePartition(t *testing.T) {
	vc := &VarianceComponents{Genetic: 2, Residual: 1, Heritability: 2.0 / 3.0, Delta: 0.5}
	contributions := []float64{3, 1, 4}

	spec, err := HeterogeneousShrinkage(vc, contributions)
	require.NoError(t, err)
	assert.Equal(t, ShrinkageHeterogeneous, spec.Mode)
	require.Len(t, spec.Lambdas, 3)

	// genomeVar = 2·3 = 6; shares 3/8, 1/8, 4/8 → var_j = 2.25, 0.75, 3.
	assert.InDelta(t, 1.0/2.25, spec.Lambdas[0], 1e-12)
	assert.InDelta(t, 1.0/0.75, spec.Lambdas[1], 1e-12)
	assert.InDelta(t, 1.0/3.0, spec.Lambdas[2], 1e-12)

	var total float64
	for j, l := range spec.Lambdas {
		total += vc.Residual / l
		assert.Equal(t, spec.Lambdas[j], spec.At(j))
	}
	assert.InDelta(t, vc.Genetic*3, total, 1e-9)
}

func TestHeterogeneousShrinkageDegenerate(t *testing.T) {
	vc := &VarianceComponents{Genetic: 2, Residual: 1}

	t.Run("all contributions zero", func(t *testing.T) {
		_, err := HeterogeneousShrinkage(vc, []float64{0, 0, 0})
		var degenerate *gblupErrors.DegenerateInputError
		assert.True(t, gblupErrors.As(err, &degenerate))
	})

	t.Run("zero share with residual variance", func(t *testing.T) {
		_, err := HeterogeneousShrinkage(vc, []float64{1, 0})
		var degenerate *gblupErrors.DegenerateInputError
		assert.True(t, gblupErrors.As(err, &degenerate))
	})

	t.Run("zero share without residual variance", func(t *testing.T) {
		noResidual := &VarianceComponents{Genetic: 2, Residual: 0}
		spec, err := HeterogeneousShrinkage(noResidual, []float64{1, 0})
		require.NoError(t, err)
		assert.Equal(t, 0.0, spec.Lambdas[0])
		assert.Equal(t, 0.0, spec.Lambdas[1])
	})
}

func TestHeterogeneousShrinkageInvalidInputs(t *testing.T) {
	vc := &VarianceComponents{Genetic: 2, Residual: 1}

	t.Run("missing components", func(t *testing.T) {
		_, err := HeterogeneousShrinkage(nil, []float64{1, 2})
		var modelErr *gblupErrors.ModelError
		assert.True(t, gblupErrors.As(err, &modelErr))
	})

	t.Run("no contributions", func(t *testing.T) {
		_, err := HeterogeneousShrinkage(vc, nil)
		var valueErr *gblupErrors.ValueError
		assert.True(t, gblupErrors.As(err, &valueErr))
	})

	t.Run("negative contribution", func(t *testing.T) {
		_, err := HeterogeneousShrinkage(vc, []float64{1, -0.5})
		var invalid *gblupErrors.InvalidParameterError
		assert.True(t, gblupErrors.As(err, &invalid))
	})
}

func TestParseShrinkageMode(t *testing.T) {
	tests := []struct {
		input   string
		want    ShrinkageMode
		wantErr bool
	}{
		{input: "", want: ShrinkageHomogeneous},
		{input: "homogeneous", want: ShrinkageHomogeneous},
		{input: "heterogeneous", want: ShrinkageHeterogeneous},
		{input: "banana", wantErr: true},
	}
	for _, tt := range tests {
		mode, err := ParseShrinkageMode(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, mode)
	}

	assert.Equal(t, "homogeneous", ShrinkageHomogeneous.String())
	assert.Equal(t, "heterogeneous", ShrinkageHeterogeneous.String())
}
