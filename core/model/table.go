package model

import (
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// TablePreprocessor はテーブルを特徴量行列に変換するインターフェース
type TablePreprocessor interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(df dataframe.DataFrame) error

	// Transform はテーブルを行列に変換する
	Transform(df dataframe.DataFrame) (*mat.Dense, error)

	// RequiredColumns は変換に必要な入力列を返す
	RequiredColumns() []string

	// Clone returns an unfitted copy with the same configuration.
	Clone() TablePreprocessor
}
