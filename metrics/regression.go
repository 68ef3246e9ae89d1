// Package metrics provides regression error metrics.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	// MSE = (1/n) * Σ(yTrue - yPred)²
	d := floats.Distance(mat.Col(nil, 0, yTrue), mat.Col(nil, 0, yPred), 2)
	return d * d / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する。
//
// yTrue が定数の場合 R² は定義されないため UndefinedMetricWarning を出し、
// 予測が完全一致なら1、そうでなければ0を返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	truth := mat.Col(nil, 0, yTrue)
	yMean := stat.Mean(truth, nil)

	var tss, rss float64
	for i := 0; i < n; i++ {
		t, p := truth[i], yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}

	if tss == 0 {
		score := 0.0
		if rss == 0 {
			score = 1.0
		}
		errors.Warn(errors.NewUndefinedMetricWarning("R2Score",
			"yTrue has no variance", score))
		return score, nil
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を計算する。yTrue が0の行は除外する。
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAPE = (100/n) * Σ|yTrue - yPred|/|yTrue|
	var sum float64
	valid := 0
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		if t == 0 {
			continue
		}
		sum += math.Abs(t-yPred.AtVec(i)) / math.Abs(t)
		valid++
	}
	if valid == 0 {
		return 0, errors.NewValueError("MAPE", "all yTrue values are zero")
	}
	return sum / float64(valid) * 100, nil
}
