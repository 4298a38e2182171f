// Package genotype はジェノタイプ行列と表現型測定値の入力データモデルを提供します。
//
// 行列は構築時に検証・確定され、以降は不変として扱われます。解析の各段階は
// 新しい値を導出し、入力をその場で変更することはありません。
package genotype

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gblup/pkg/errors"
	"github.com/YuminosukeSato/gblup/preprocessing"
)

// MissingPolicy は欠測ジェノタイプコード（NaN）の扱いを指定します。
type MissingPolicy int

const (
	// MissingReject は欠測値を許容しない（デフォルト）
	MissingReject MissingPolicy = iota
	// MissingMeanImpute は欠測値をマーカー平均で補完する
	MissingMeanImpute
)

// String はポリシーの文字列表現を返す
func (p MissingPolicy) String() string {
	switch p {
	case MissingReject:
		return "reject"
	case MissingMeanImpute:
		return "mean_impute"
	default:
		return fmt.Sprintf("MissingPolicy(%d)", int(p))
	}
}

type matrixConfig struct {
	policy         MissingPolicy
	maxMissingRate float64
}

// MatrixOption はMatrix構築時の検証・補完動作を変更するオプション
type MatrixOption func(*matrixConfig)

// WithMissingPolicy は欠測値の扱いを指定する
func WithMissingPolicy(policy MissingPolicy) MatrixOption {
	return func(c *matrixConfig) { c.policy = policy }
}

// WithMaxMissingRate は個体あたりの欠測率の上限を指定する（デフォルト: 1.0）
// 上限を超える個体があると構築が失敗する
func WithMaxMissingRate(rate float64) MatrixOption {
	return func(c *matrixConfig) { c.maxMissingRate = rate }
}

// Matrix は n個体 × mマーカー のジェノタイプコード行列です。
// 行は個体ID、列はマーカーラベルに対応し、構築後は不変です。
// コードは通常 -1/0/1（ヘテロ接合を0とする二対立遺伝子コード）または
// 任意の数値的な遺伝子型量を取ります。
type Matrix struct {
	ids     []string
	markers []string
	idIndex map[string]int
	codes   *mat.Dense
}

// NewMatrix は検証済みのジェノタイプ行列を作成する
//
// パラメータ:
//   - ids: 個体ID（行に対応、重複不可）
//   - markers: マーカーラベル（列に対応、重複不可）
//   - codes: ジェノタイプコード行列。欠測はNaNで表す
//   - opts: 欠測ポリシーなどのオプション
//
// 戻り値:
//   - *Matrix: 欠測が解決された不変の行列
//   - error: 形状不一致、ID重複、欠測ポリシー違反など
//
// 使用例:
//
//	g, err := genotype.NewMatrix(ids, markers, codes,
//	    genotype.WithMissingPolicy(genotype.MissingMeanImpute),
//	    genotype.WithMaxMissingRate(0.2),
//	)
func NewMatrix(ids, markers []string, codes *mat.Dense, opts ...MatrixOption) (*Matrix, error) {
	cfg := &matrixConfig{policy: MissingReject, maxMissingRate: 1.0}
	for _, opt := range opts {
		opt(cfg)
	}

	if codes == nil {
		return nil, errors.NewModelError("genotype.NewMatrix", "empty data", errors.ErrEmptyData)
	}
	r, c := codes.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("genotype.NewMatrix", "empty data", errors.ErrEmptyData)
	}
	if len(ids) != r {
		return nil, errors.NewDimensionError("genotype.NewMatrix", r, len(ids), 0)
	}
	if len(markers) != c {
		return nil, errors.NewDimensionError("genotype.NewMatrix", c, len(markers), 1)
	}
	if cfg.maxMissingRate < 0 || cfg.maxMissingRate > 1 {
		return nil, errors.NewInvalidParameterError("max_missing_rate", "must be in [0, 1]", cfg.maxMissingRate)
	}

	idIndex := make(map[string]int, r)
	for i, id := range ids {
		if id == "" {
			return nil, errors.NewValidationError("ids", "individual id must not be empty", i)
		}
		if _, dup := idIndex[id]; dup {
			return nil, errors.NewValidationError("ids", "duplicate individual id", id)
		}
		idIndex[id] = i
	}

	seen := make(map[string]struct{}, c)
	for j, name := range markers {
		if name == "" {
			return nil, errors.NewValidationError("markers", "marker label must not be empty", j)
		}
		if _, dup := seen[name]; dup {
			return nil, errors.NewValidationError("markers", "duplicate marker label", name)
		}
		seen[name] = struct{}{}
	}

	resolved := mat.DenseCopyOf(codes)

	// 個体ごとに欠測率を検査し、ポリシーに従って欠測を解決する
	anyMissing := false
	for i := 0; i < r; i++ {
		missing := 0
		for j := 0; j < c; j++ {
			v := resolved.At(i, j)
			if math.IsNaN(v) {
				missing++
				continue
			}
			if math.IsInf(v, 0) {
				return nil, errors.NewValueError("genotype.NewMatrix",
					fmt.Sprintf("genotype code for individual %q at marker %q is infinite", ids[i], markers[j]))
			}
		}
		if missing == 0 {
			continue
		}
		anyMissing = true

		rate := float64(missing) / float64(c)
		if rate > cfg.maxMissingRate {
			return nil, errors.NewDegenerateInputError("genotype.NewMatrix",
				fmt.Sprintf("individual %q has missing rate %.3f above limit %.3f", ids[i], rate, cfg.maxMissingRate))
		}
		if cfg.policy == MissingReject {
			return nil, errors.NewValueError("genotype.NewMatrix",
				fmt.Sprintf("individual %q has %d missing genotype call(s) and the missing policy is %s", ids[i], missing, cfg.policy))
		}
	}

	if anyMissing && cfg.policy == MissingMeanImpute {
		imputer := preprocessing.NewMarkerImputer()
		filled, err := imputer.FitTransform(resolved)
		if err != nil {
			return nil, errors.Wrap(err, "genotype.NewMatrix: mean imputation failed")
		}
		resolved = mat.DenseCopyOf(filled)
	}

	idsCopy := make([]string, r)
	copy(idsCopy, ids)
	markersCopy := make([]string, c)
	copy(markersCopy, markers)

	return &Matrix{
		ids:     idsCopy,
		markers: markersCopy,
		idIndex: idIndex,
		codes:   resolved,
	}, nil
}

// NumIndividuals は個体数（行数）を返す
func (g *Matrix) NumIndividuals() int {
	return len(g.ids)
}

// NumMarkers はマーカー数（列数）を返す
func (g *Matrix) NumMarkers() int {
	return len(g.markers)
}

// IDs は個体IDのコピーを行順に返す
func (g *Matrix) IDs() []string {
	ids := make([]string, len(g.ids))
	copy(ids, g.ids)
	return ids
}

// MarkerNames はマーカーラベルのコピーを列順に返す
func (g *Matrix) MarkerNames() []string {
	markers := make([]string, len(g.markers))
	copy(markers, g.markers)
	return markers
}

// At は個体i・マーカーjのジェノタイプコードを返す
func (g *Matrix) At(i, j int) float64 {
	return g.codes.At(i, j)
}

// Codes はジェノタイプコード行列を読み取り専用ビューとして返す
func (g *Matrix) Codes() mat.Matrix {
	return g.codes
}

// Row は個体iのジェノタイプコードをコピーして返す
func (g *Matrix) Row(i int) []float64 {
	row := make([]float64, len(g.markers))
	mat.Row(row, i, g.codes)
	return row
}

// RowIndex は個体IDに対応する行番号を返す
func (g *Matrix) RowIndex(id string) (int, bool) {
	i, ok := g.idIndex[id]
	return i, ok
}

// Subset は指定した行番号の個体からなる新しい行列を返す
// マーカーラベルは共有され、行の順序はrowsの順序に従う
func (g *Matrix) Subset(rows []int) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, errors.NewModelError("genotype.Subset", "empty data", errors.ErrEmptyData)
	}

	n := g.NumIndividuals()
	m := g.NumMarkers()

	used := make(map[int]struct{}, len(rows))
	ids := make([]string, len(rows))
	codes := mat.NewDense(len(rows), m, nil)
	idIndex := make(map[string]int, len(rows))

	for k, i := range rows {
		if i < 0 || i >= n {
			return nil, errors.NewValidationError("rows", "row index out of range", i)
		}
		if _, dup := used[i]; dup {
			return nil, errors.NewValidationError("rows", "duplicate row index", i)
		}
		used[i] = struct{}{}

		ids[k] = g.ids[i]
		idIndex[g.ids[i]] = k
		for j := 0; j < m; j++ {
			codes.Set(k, j, g.codes.At(i, j))
		}
	}

	return &Matrix{
		ids:     ids,
		markers: g.markers,
		idIndex: idIndex,
		codes:   codes,
	}, nil
}

// SubsetByIDs は指定した個体IDからなる新しい行列を返す
// 未知のIDが含まれる場合はValidationErrorを返す
func (g *Matrix) SubsetByIDs(ids []string) (*Matrix, error) {
	rows := make([]int, len(ids))
	for k, id := range ids {
		i, ok := g.idIndex[id]
		if !ok {
			return nil, errors.NewValidationError("ids", "unknown individual id", id)
		}
		rows[k] = i
	}
	return g.Subset(rows)
}
