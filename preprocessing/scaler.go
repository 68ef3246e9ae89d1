package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// 分散がこれ未満の列は定数列として扱いスケールを1にする
const constantTolerance = 1e-8

// StandardScaler は数値列を平均0、標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64
	// Scale は各特徴量の母標準偏差（定数列は1）
	Scale []float64

	WithMean bool
	WithStd  bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix("StandardScaler.Fit", X, r, c); err != nil {
		return err
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, variance := stat.PopMeanVariance(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		if s.WithStd && variance >= constantTolerance*constantTolerance {
			s.Scale[j] = math.Sqrt(variance)
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	nFeatures, _ := s.state.GetDimensions()
	r, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", nFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	nFeatures, _ := s.state.GetDimensions()
	r, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", nFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// IsFitted reports whether Fit has succeeded.
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, nFeatures)
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	state *model.StateManager

	// DataMin, DataMax は学習データの列ごとの最小値・最大値
	DataMin []float64
	DataMax []float64
	// Scale は max - min（定数列は1）
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValidationError("feature_range", "minimum must be smaller than maximum", m.FeatureRange)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix("MinMaxScaler.Fit", X, r, c); err != nil {
		return err
	}

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)

		m.Scale[j] = m.DataMax[j] - m.DataMin[j]
		if m.Scale[j] < constantTolerance {
			m.Scale[j] = 1
		}
	}

	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	nFeatures, _ := m.state.GetDimensions()
	r, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", nFeatures, c, 1)
	}

	// X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min
	width := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	nFeatures, _ := m.state.GetDimensions()
	r, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", nFeatures, c, 1)
	}

	width := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	}, X)
	return result, nil
}

// IsFitted reports whether Fit has succeeded.
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsFitted() }

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%g, %g])", m.FeatureRange[0], m.FeatureRange[1])
}
