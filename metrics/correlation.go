package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/gblup/pkg/errors"
)

// PearsonCorrelation は推定育種価と観測表現型のPearson相関係数を計算する
//
// ゲノミック予測では「予測能（predictive ability）」としてこの相関が
// 標準的な精度指標になる。どちらかの系列の分散がゼロの場合、相関は
// 定義できないためUndefinedMetricWarningをエラーとして返す。
//
// パラメータ:
//   - yTrue: 観測値
//   - yPred: 予測値（yTrueと同じ長さ）
//
// 戻り値:
//   - float64: 相関係数 [-1, 1]
//   - error: 入力不正または相関が定義できない場合
func PearsonCorrelation(yTrue, yPred []float64) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("PearsonCorrelation", "empty slice")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("PearsonCorrelation", n, len(yPred), 0)
	}
	if n < 2 {
		return 0, errors.WithStack(errors.NewUndefinedMetricWarning(
			"PearsonCorrelation", "fewer than two observations", 0))
	}

	if stat.Variance(yTrue, nil) == 0 {
		return 0, errors.WithStack(errors.NewUndefinedMetricWarning(
			"PearsonCorrelation", "zero variance in the observed values", 0))
	}
	if stat.Variance(yPred, nil) == 0 {
		return 0, errors.WithStack(errors.NewUndefinedMetricWarning(
			"PearsonCorrelation", "zero variance in the predicted values", 0))
	}

	return stat.Correlation(yTrue, yPred, nil), nil
}
