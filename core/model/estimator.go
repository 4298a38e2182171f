package model

// MarkerEffectModel はマーカー効果を公開する予測モデルのインターフェース
type MarkerEffectModel interface {
	// MarkerEffects は学習されたマーカー効果（回帰係数）を返す
	MarkerEffects() []float64
	// FixedEffects は学習された固定効果（切片を先頭に含む）を返す
	FixedEffects() []float64
}
