package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

func vec(v ...float64) *mat.VecDense { return mat.NewVecDense(len(v), v) }

func TestRegressionMetrics(t *testing.T) {
	// 誤差: +1000, -2000, 0, +1000
	yTrue := vec(10000, 20000, 15000, 5000)
	yPred := vec(11000, 18000, 15000, 6000)

	tests := []struct {
		name   string
		metric func(yTrue, yPred *mat.VecDense) (float64, error)
		want   float64
	}{
		{name: "MSE", metric: MSE, want: 1.5e6},
		{name: "RMSE", metric: RMSE, want: math.Sqrt(1.5e6)},
		{name: "MAE", metric: MAE, want: 1000},
		// 平均12500、TSS = 6.25e6+56.25e6+6.25e6+56.25e6 = 1.25e8、RSS = 6e6
		{name: "R2Score", metric: R2Score, want: 1 - 6e6/1.25e8},
		// (0.1 + 0.1 + 0 + 0.2) / 4 * 100
		{name: "MAPE", metric: MAPE, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.metric(yTrue, yPred)
			if err != nil {
				t.Fatalf("%s() error = %v", tt.name, err)
			}
			if math.Abs(got-tt.want) > 1e-9*math.Max(1, math.Abs(tt.want)) {
				t.Errorf("%s() = %v, want %v", tt.name, got, tt.want)
			}

			perfect, err := tt.metric(yTrue, yTrue)
			if err != nil {
				t.Fatal(err)
			}
			wantPerfect := 0.0
			if tt.name == "R2Score" {
				wantPerfect = 1
			}
			if perfect != wantPerfect {
				t.Errorf("%s(y, y) = %v, want %v", tt.name, perfect, wantPerfect)
			}
		})
	}
}

func TestRegressionMetrics_Errors(t *testing.T) {
	metrics := map[string]func(yTrue, yPred *mat.VecDense) (float64, error){
		"MSE": MSE, "RMSE": RMSE, "MAE": MAE, "R2Score": R2Score, "MAPE": MAPE,
	}
	for name, metric := range metrics {
		var de *errors.DimensionError
		if _, err := metric(vec(1, 2, 3), vec(1, 2)); !errors.As(err, &de) {
			t.Errorf("%s: expected DimensionError, got %v", name, err)
		}
		var ve *errors.ValueError
		if _, err := metric(&mat.VecDense{}, &mat.VecDense{}); !errors.As(err, &ve) {
			t.Errorf("%s: expected ValueError for empty input, got %v", name, err)
		}
	}
}

func TestR2Score_Negative(t *testing.T) {
	// 平均を予測するより悪い
	got, err := R2Score(vec(1, 2, 3), vec(3, 2, 1))
	if err != nil {
		t.Fatal(err)
	}
	if got != -3 {
		t.Errorf("R2Score() = %v, want -3", got)
	}
}

func TestR2Score_ConstantTarget(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	y := vec(7000, 7000)
	if got, err := R2Score(y, vec(6000, 8000)); err != nil || got != 0 {
		t.Errorf("R2Score(imperfect) = %v, %v; want 0", got, err)
	}
	if got, err := R2Score(y, vec(7000, 7000)); err != nil || got != 1 {
		t.Errorf("R2Score(perfect) = %v, %v; want 1", got, err)
	}

	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2", len(warnings))
	}
	var w *errors.UndefinedMetricWarning
	if !errors.As(warnings[0], &w) {
		t.Errorf("expected UndefinedMetricWarning, got %T", warnings[0])
	}
}

func TestMAPE_SkipsZeroTargets(t *testing.T) {
	got, err := MAPE(vec(0, 100, 200), vec(50, 110, 180))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("MAPE() = %v, want 10", got)
	}

	var ve *errors.ValueError
	if _, err := MAPE(vec(0, 0), vec(1, 1)); !errors.As(err, &ve) {
		t.Errorf("expected ValueError when every target is zero, got %v", err)
	}
}

func BenchmarkMSE(b *testing.B) {
	const size = 10000
	yTrue := mat.NewVecDense(size, nil)
	yPred := mat.NewVecDense(size, nil)
	for i := 0; i < size; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.1*float64(i%10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
