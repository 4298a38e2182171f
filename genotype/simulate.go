package genotype

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/gblup/pkg/errors"
)

// SimulateMatrix は二対立遺伝子マーカーのジェノタイプ行列を生成する
//
// 各マーカーについて2つの対立遺伝子をBernoulli(maf)で独立に抽出し、
// その和から1を引いた -1/0/1 のコードを割り当てる。個体IDは ind_0001 形式、
// マーカーラベルは snp_00001 形式で自動採番される。
//
// パラメータ:
//   - n: 個体数
//   - m: マーカー数
//   - maf: マイナーアレル頻度 (0, 0.5]
//   - src: 乱数ソース（nilの場合はグローバルソース）
func SimulateMatrix(n, m int, maf float64, src rand.Source) (*Matrix, error) {
	if n <= 0 {
		return nil, errors.NewDimensionError("genotype.SimulateMatrix", 1, n, 0)
	}
	if m <= 0 {
		return nil, errors.NewDimensionError("genotype.SimulateMatrix", 1, m, 1)
	}
	if maf <= 0 || maf > 0.5 {
		return nil, errors.NewInvalidParameterError("maf", "must be in (0, 0.5]", maf)
	}

	allele := distuv.Bernoulli{P: maf, Src: src}

	codes := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			codes.Set(i, j, allele.Rand()+allele.Rand()-1)
		}
	}

	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("ind_%04d", i+1)
	}
	markers := make([]string, m)
	for j := range markers {
		markers[j] = fmt.Sprintf("snp_%05d", j+1)
	}

	return NewMatrix(ids, markers, codes)
}

// SimulatePhenotype は与えられたマーカー効果から表現型を生成する
//
// 遺伝的な値 u_i = Σ_j Z_ij·β_j に、目標の遺伝率 hsq を満たすよう分散を
// 調整した正規ノイズを加える。遺伝的な値の標本分散がゼロの場合は
// 目標遺伝率が定義できないためエラーになる。
//
// パラメータ:
//   - g: ジェノタイプ行列
//   - effects: 真のマーカー効果（長さはマーカー数に一致）
//   - hsq: 目標遺伝率 (0, 1)
//   - src: 乱数ソース（nilの場合はグローバルソース）
func SimulatePhenotype(g *Matrix, effects []float64, hsq float64, src rand.Source) (*Phenotype, error) {
	if g == nil {
		return nil, errors.NewModelError("genotype.SimulatePhenotype", "empty data", errors.ErrEmptyData)
	}
	if len(effects) != g.NumMarkers() {
		return nil, errors.NewDimensionError("genotype.SimulatePhenotype", g.NumMarkers(), len(effects), 1)
	}
	if hsq <= 0 || hsq >= 1 {
		return nil, errors.NewInvalidParameterError("hsq", "must be in the open interval (0, 1)", hsq)
	}

	n := g.NumIndividuals()
	genetic := make([]float64, n)
	for i := 0; i < n; i++ {
		genetic[i] = vek.Dot(g.Row(i), effects)
	}

	varU := stat.Variance(genetic, nil)
	if varU <= 0 {
		return nil, errors.NewDegenerateInputError("genotype.SimulatePhenotype",
			"simulated genetic values have zero variance; target heritability is undefined")
	}

	// hsq = varU / (varU + varE) を満たす残差分散
	varE := varU * (1 - hsq) / hsq
	noise := distuv.Normal{Mu: 0, Sigma: math.Sqrt(varE), Src: src}

	values := make([]float64, n)
	for i := range values {
		values[i] = genetic[i] + noise.Rand()
	}

	return NewPhenotype(g.IDs(), values)
}
