package genotype

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/gblup/pkg/errors"
)

// Phenotype は個体IDをキーとする表現型測定値の集合です。
// 1個体につき高々1つの値を持ち、構築後は不変です。
// 欠測した個体は単に含めないことで表現します。
type Phenotype struct {
	ids    []string
	values []float64
	index  map[string]int
}

// NewPhenotype は検証済みの表現型集合を作成する
//
// パラメータ:
//   - ids: 個体ID（重複不可）
//   - values: 対応する測定値（NaN/Inf不可）
//
// 戻り値:
//   - *Phenotype: 不変の表現型集合
//   - error: 長さ不一致、ID重複、非有限値など
func NewPhenotype(ids []string, values []float64) (*Phenotype, error) {
	if len(ids) == 0 {
		return nil, errors.NewModelError("genotype.NewPhenotype", "empty data", errors.ErrEmptyData)
	}
	if len(ids) != len(values) {
		return nil, errors.NewDimensionError("genotype.NewPhenotype", len(ids), len(values), 0)
	}

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if id == "" {
			return nil, errors.NewValidationError("ids", "individual id must not be empty", i)
		}
		if _, dup := index[id]; dup {
			return nil, errors.NewValidationError("ids", "duplicate individual id", id)
		}
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return nil, errors.NewValueError("genotype.NewPhenotype",
				fmt.Sprintf("phenotype value for individual %q is not finite", id))
		}
		index[id] = i
	}

	idsCopy := make([]string, len(ids))
	copy(idsCopy, ids)
	valuesCopy := make([]float64, len(values))
	copy(valuesCopy, values)

	return &Phenotype{ids: idsCopy, values: valuesCopy, index: index}, nil
}

// Len は測定値を持つ個体数を返す
func (p *Phenotype) Len() int {
	return len(p.ids)
}

// IDs は個体IDのコピーを登録順に返す
func (p *Phenotype) IDs() []string {
	ids := make([]string, len(p.ids))
	copy(ids, p.ids)
	return ids
}

// Value は個体IDに対応する測定値を返す
func (p *Phenotype) Value(id string) (float64, bool) {
	i, ok := p.index[id]
	if !ok {
		return 0, false
	}
	return p.values[i], true
}

// AlignTo は指定した個体ID順の測定値ベクトルを返す
// 測定値を持たないIDが含まれる場合は、不足しているIDを列挙した
// ValidationErrorを返す
func (p *Phenotype) AlignTo(ids []string) ([]float64, error) {
	y := make([]float64, len(ids))
	var missing []string

	for k, id := range ids {
		i, ok := p.index[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		y[k] = p.values[i]
	}

	if len(missing) > 0 {
		return nil, errors.NewValidationError("ids",
			fmt.Sprintf("no phenotype for %d individual(s)", len(missing)),
			strings.Join(missing, ", "))
	}
	return y, nil
}
