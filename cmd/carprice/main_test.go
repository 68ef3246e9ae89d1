package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

func writeFiles(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()

	var csv strings.Builder
	csv.WriteString("brand,model,year,mileage,price\n")
	models := map[string]string{"Toyota": "Corolla", "BMW": "3 Series", "Ford": "Focus"}
	base := map[string]int{"Toyota": 9000, "BMW": 18000, "Ford": 7000}
	for i := 0; i < 45; i++ {
		brand := []string{"Toyota", "BMW", "Ford"}[i%3]
		year := 2010 + i%11
		mileage := 5000 + (i*3371)%120000
		price := fmt.Sprint(base[brand] + (year-2010)*800 - mileage/20)
		if i%9 == 8 {
			price = ""
		}
		fmt.Fprintf(&csv, "%s,%s,%d,%d,%s\n", brand, models[brand], year, mileage, price)
	}
	data := filepath.Join(dir, "cars.csv")
	if err := os.WriteFile(data, []byte(csv.String()), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := filepath.Join(dir, "carprice.yaml")
	content := strings.ReplaceAll(yaml, "$DIR", dir)
	if err := os.WriteFile(cfg, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return cfg
}

var output = regexp.MustCompile(`^Mean Absolute Error: \d+\.\d{2}
Root Mean Squared Error: \d+\.\d{2}
Predicted Prices: \[\d+\.\d{2} \d+\.\d{2}\]
$`)

func TestRun(t *testing.T) {
	cfg := writeFiles(t, `
data:
  path: $DIR/cars.csv
model:
  n_estimators: 10
output:
  plot_path: $DIR/pred.png
logging:
  level: debug
`)

	var stdout, stderr bytes.Buffer
	if err := run(cfg, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !output.MatchString(stdout.String()) {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "random forest fitted") {
		t.Errorf("expected debug logs on stderr, got:\n%s", stderr.String())
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(cfg), "pred.png")); err != nil {
		t.Errorf("plot not written: %v", err)
	}
}

func TestRun_MinMaxAndCustomSamples(t *testing.T) {
	cfg := writeFiles(t, `
data:
  path: $DIR/cars.csv
model:
  n_estimators: 5
  numeric_scaler: minmax
samples:
  - {brand: Ford, model: Focus, year: 2015, mileage: 60000}
  - {brand: Kia, year: 2020, mileage: 10000}
`)
	var stdout bytes.Buffer
	if err := run(cfg, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !output.MatchString(stdout.String()) {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing data file", func(t *testing.T) {
		cfg := writeFiles(t, "data:\n  path: $DIR/nope.csv\n")
		var le *errors.DataLoadError
		if err := run(cfg, &bytes.Buffer{}, &bytes.Buffer{}); !errors.As(err, &le) {
			t.Errorf("expected DataLoadError, got %v", err)
		}
	})

	t.Run("missing target", func(t *testing.T) {
		cfg := writeFiles(t, "data:\n  path: $DIR/cars.csv\n  target: cost\n")
		var se *errors.SchemaError
		if err := run(cfg, &bytes.Buffer{}, &bytes.Buffer{}); !errors.As(err, &se) {
			t.Errorf("expected SchemaError, got %v", err)
		}
	})

	t.Run("sample without mileage", func(t *testing.T) {
		cfg := writeFiles(t, `
data:
  path: $DIR/cars.csv
model:
  n_estimators: 3
samples:
  - {brand: Toyota, year: 2018}
`)
		var sm *errors.SchemaMismatchError
		if err := run(cfg, &bytes.Buffer{}, &bytes.Buffer{}); !errors.As(err, &sm) {
			t.Errorf("expected SchemaMismatchError, got %v", err)
		}
	})

	t.Run("unwritable output", func(t *testing.T) {
		cfg := writeFiles(t, `
data:
  path: $DIR/cars.csv
model:
  n_estimators: 3
samples:
  - {brand: Toyota, year: 2018, mileage: 25000}
`)
		err := run(cfg, &failingWriter{prefix: "Predicted"}, &bytes.Buffer{})
		if !errors.Is(err, errWrite) {
			t.Errorf("expected the write error, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := writeFiles(t, "model:\n  test_size: 2\n")
		var ve *errors.ValidationError
		if err := run(cfg, &bytes.Buffer{}, &bytes.Buffer{}); !errors.As(err, &ve) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})
}

func TestFormatPrices(t *testing.T) {
	if got := formatPrices([]float64{15234.567, 9000}); got != "[15234.57 9000.00]" {
		t.Errorf("formatPrices() = %q", got)
	}
}

var errWrite = errors.New("write refused")

// failingWriter accepts writes until one starts with prefix.
type failingWriter struct {
	prefix string
	bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if strings.HasPrefix(string(p), w.prefix) {
		return 0, errWrite
	}
	return w.Buffer.Write(p)
}
