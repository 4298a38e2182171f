package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/gblup/core/model"
	"github.com/YuminosukeSato/gblup/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MarkerImputer は欠測しているジェノタイプコード（NaN）をマーカーごとの
// 平均値で補完する変換器
type MarkerImputer struct {
	model.BaseEstimator

	// Means は各マーカーの観測値平均（補完に使用する値）
	Means []float64

	// NMarkers はマーカー数
	NMarkers int
}

// NewMarkerImputer は新しいMarkerImputerを作成する
//
// 使用例:
//
//	imputer := preprocessing.NewMarkerImputer()
//	filled, err := imputer.FitTransform(codes)
func NewMarkerImputer() *MarkerImputer {
	return &MarkerImputer{}
}

// Fit は各マーカーの観測値（NaNを除く）から平均を計算する
//
// パラメータ:
//   - X: ジェノタイプ行列 (n_individuals × n_markers)
//
// 戻り値:
//   - error: 全てのデータが欠測しているマーカーがある場合など
func (im *MarkerImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MarkerImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	im.NMarkers = c
	im.Means = make([]float64, c)

	// マーカーごとに観測値の平均を計算
	for j := 0; j < c; j++ {
		sum := 0.0
		observed := 0
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			sum += v
			observed++
		}

		// 観測値が1つもないマーカーは平均が定義できない
		if observed == 0 {
			return errors.NewDegenerateInputError("MarkerImputer.Fit",
				fmt.Sprintf("marker column %d has no observed calls", j))
		}
		im.Means[j] = sum / float64(observed)
	}

	im.SetFitted()
	return nil
}

// Transform は学習済みのマーカー平均で欠測値を補完する
//
// パラメータ:
//   - X: 変換するジェノタイプ行列
//
// 戻り値:
//   - mat.Matrix: 欠測値が補完された行列
//   - error: エラーが発生した場合
func (im *MarkerImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !im.IsFitted() {
		return nil, errors.NewNotFittedError("MarkerImputer", "Transform")
	}

	r, c := X.Dims()
	if c != im.NMarkers {
		return nil, errors.NewDimensionError("MarkerImputer.Transform", im.NMarkers, c, 1)
	}

	// 結果を格納する行列を作成
	result := mat.NewDense(r, c, nil)

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = im.Means[j]
			}
			result.Set(i, j, v)
		}
	}

	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを補完する
func (im *MarkerImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := im.Fit(X); err != nil {
		return nil, err
	}
	return im.Transform(X)
}

// GetParams は補完器のパラメータを取得する
func (im *MarkerImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy": "marker_mean",
	}
}

// String は補完器の文字列表現を返す
func (im *MarkerImputer) String() string {
	if !im.IsFitted() {
		return "MarkerImputer(strategy=marker_mean)"
	}
	return fmt.Sprintf("MarkerImputer(strategy=marker_mean, n_markers=%d)", im.NMarkers)
}
