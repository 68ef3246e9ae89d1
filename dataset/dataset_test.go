package dataset

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/go-cmp/cmp"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

const carsCSV = `brand,year,mileage,price
Toyota,2018,25000,10000
BMW,2016,40000,20000
Ford,2015,60000,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	ds, err := Load(writeFile(t, "cars.csv", carsCSV))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Nrow() != 3 || ds.Ncol() != 4 {
		t.Fatalf("shape = (%d, %d), want (3, 4)", ds.Nrow(), ds.Ncol())
	}

	want := NewSchema(
		Column{Name: "brand", Kind: Categorical},
		Column{Name: "year", Kind: Numeric},
		Column{Name: "mileage", Kind: Numeric},
		Column{Name: "price", Kind: Numeric},
	)
	if diff := cmp.Diff(want, ds.Schema()); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") },
		},
		{
			name: "ragged rows",
			path: func(t *testing.T) string {
				return writeFile(t, "bad.csv", "a,b\n1,2\n3\n")
			},
		},
		{
			name: "empty file",
			path: func(t *testing.T) string { return writeFile(t, "empty.csv", "") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			var loadErr *errors.DataLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected DataLoadError, got %v", err)
			}
			if loadErr.Path == "" {
				t.Error("DataLoadError should carry the path")
			}
		})
	}
}

func TestLoad_DeclaredSchema(t *testing.T) {
	path := writeFile(t, "cars.tsv", strings.ReplaceAll(carsCSV, ",", "\t"))
	ds, err := Load(path,
		WithDelimiter('\t'),
		WithSchema(NewSchema(Column{Name: "year", Kind: Categorical})),
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	c, ok := ds.Schema().Lookup("year")
	if !ok || c.Kind != Categorical {
		t.Errorf("year = %+v, want categorical", c)
	}
	if got := ds.Frame().Col("year").Records(); !cmp.Equal(got, []string{"2018", "2016", "2015"}) {
		t.Errorf("year records = %v", got)
	}

	_, err = Load(path, WithDelimiter('\t'),
		WithSchema(NewSchema(Column{Name: "colour", Kind: Categorical})))
	var loadErr *errors.DataLoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("undeclared header column: expected DataLoadError, got %v", err)
	}
}

func TestDropMissingAndSplitXY(t *testing.T) {
	rows := []map[string]any{
		{"price": 10000.0, "brand": "Toyota", "year": 2018, "mileage": 25000},
		{"price": 20000.0, "brand": "BMW", "year": 2016, "mileage": 40000},
		{"price": math.NaN(), "brand": "Ford", "year": 2015, "mileage": 60000},
	}
	ds, err := FromRecords(rows, Schema{})
	if err != nil {
		t.Fatalf("FromRecords() error = %v", err)
	}

	clean, dropped, err := ds.DropMissing("price")
	if err != nil {
		t.Fatalf("DropMissing() error = %v", err)
	}
	if dropped != 1 || clean.Nrow() != 2 {
		t.Fatalf("dropped = %d, rows = %d; want 1, 2", dropped, clean.Nrow())
	}

	X, y, err := clean.SplitXY("price")
	if err != nil {
		t.Fatalf("SplitXY() error = %v", err)
	}
	cols := X.Schema().Names()
	sort.Strings(cols)
	if diff := cmp.Diff([]string{"brand", "mileage", "year"}, cols); diff != "" {
		t.Errorf("X columns (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{10000, 20000}, y); diff != "" {
		t.Errorf("y (-want +got):\n%s", diff)
	}
	if c, _ := X.Schema().Lookup("brand"); c.Kind != Categorical {
		t.Errorf("brand kind = %v", c.Kind)
	}
}

func TestDropMissing_NothingToDrop(t *testing.T) {
	ds, err := LoadReader(strings.NewReader("a,price\nx,1\ny,2\n"), "inline")
	if err != nil {
		t.Fatal(err)
	}
	out, dropped, err := ds.DropMissing("price")
	if err != nil || dropped != 0 || out.Nrow() != 2 {
		t.Errorf("DropMissing() = (%d rows, %d, %v)", out.Nrow(), dropped, err)
	}
}

func TestSchemaErrors(t *testing.T) {
	ds, err := LoadReader(strings.NewReader("brand,price\nToyota,1\nBMW,\n"), "inline")
	if err != nil {
		t.Fatal(err)
	}

	var schemaErr *errors.SchemaError
	if _, _, err := ds.DropMissing("cost"); !errors.As(err, &schemaErr) {
		t.Errorf("DropMissing(cost): expected SchemaError, got %v", err)
	}
	if _, _, err := ds.SplitXY("cost"); !errors.As(err, &schemaErr) {
		t.Errorf("SplitXY(cost): expected SchemaError, got %v", err)
	}
	if _, _, err := ds.SplitXY("brand"); !errors.As(err, &schemaErr) {
		t.Errorf("SplitXY(brand): expected SchemaError for categorical target, got %v", err)
	}
	// 欠損を落とす前に分割するとエラー
	if _, _, err := ds.SplitXY("price"); !errors.As(err, &schemaErr) {
		t.Errorf("SplitXY(price) with NaN: expected SchemaError, got %v", err)
	}
}

func TestDropMissing_AllMissing(t *testing.T) {
	ds, err := LoadReader(strings.NewReader("brand,price\nToyota,NA\nBMW,NA\n"), "inline",
		WithSchema(NewSchema(Column{Name: "price", Kind: Numeric})))
	if err != nil {
		t.Fatal(err)
	}
	_, dropped, err := ds.DropMissing("price")
	if !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("expected ErrEmptyData, got %v", err)
	}
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"numeric": Numeric, " Categorical ": Categorical} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("ordinal"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSchema_Validate(t *testing.T) {
	s := NewSchema(Column{Name: "a"}, Column{Name: "a", Kind: Categorical})
	var ve *errors.ValidationError
	if err := s.Validate(); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for duplicate, got %v", err)
	}
}

func TestFromRecords_DeclaredSchema(t *testing.T) {
	declared := NewSchema(
		Column{Name: "year", Kind: Categorical},
		Column{Name: "mileage", Kind: Numeric},
	)
	ds, err := FromRecords([]map[string]any{
		{"brand": "Toyota", "year": 2018},
		{"brand": "BMW", "year": 2016, "color": nil},
	}, declared)
	if err != nil {
		t.Fatalf("FromRecords() error = %v", err)
	}

	// mileage はどの行にも無いので列にならない
	if diff := cmp.Diff([]string{"year", "brand", "color"}, ds.Schema().Names()); diff != "" {
		t.Errorf("columns (-want +got):\n%s", diff)
	}
	if c, _ := ds.Schema().Lookup("year"); c.Kind != Categorical {
		t.Errorf("year kind = %v, want categorical", c.Kind)
	}
}

func TestConform(t *testing.T) {
	ds, err := LoadReader(strings.NewReader("engine,year\n1.6,2012\n2.0,2013\nNA,2014\n"), "inline")
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := ds.Schema().Lookup("engine"); c.Kind != Numeric {
		t.Fatalf("engine inferred as %v, want numeric before Conform", c.Kind)
	}

	declared := NewSchema(
		Column{Name: "engine", Kind: Categorical},
		Column{Name: "mileage", Kind: Numeric},
	)
	got, err := ds.Conform(declared)
	if err != nil {
		t.Fatalf("Conform() error = %v", err)
	}

	// 元のセルの文字列を保つ ("2.0" は "2" にならない)
	if diff := cmp.Diff([]string{"1.6", "2.0", "NaN"}, got.Frame().Col("engine").Records()); diff != "" {
		t.Errorf("engine cells (-want +got):\n%s", diff)
	}
	if !got.Frame().Col("engine").Elem(2).IsNA() {
		t.Error("missing cell should stay missing")
	}
	if c, _ := got.Schema().Lookup("engine"); c.Kind != Categorical {
		t.Errorf("engine kind = %v, want categorical", c.Kind)
	}
	if diff := cmp.Diff([]string{"engine", "year"}, got.Schema().Names()); diff != "" {
		t.Errorf("columns (-want +got):\n%s", diff)
	}
	if c, _ := ds.Schema().Lookup("engine"); c.Kind != Numeric {
		t.Error("Conform must not modify the receiver")
	}

	// 既に一致していれば同じ値を返す
	same, err := got.Conform(declared)
	if err != nil {
		t.Fatal(err)
	}
	if same != got {
		t.Error("Conform on a conforming dataset should return it unchanged")
	}
}

func TestConform_AfterSubsetAndSplit(t *testing.T) {
	ds, err := LoadReader(strings.NewReader("engine,price\n1.6,100\n2.0,200\n1.4,300\n"), "inline")
	if err != nil {
		t.Fatal(err)
	}
	sub, err := ds.Subset([]int{2, 0})
	if err != nil {
		t.Fatal(err)
	}
	X, _, err := sub.SplitXY("price")
	if err != nil {
		t.Fatal(err)
	}
	got, err := X.Conform(NewSchema(Column{Name: "engine", Kind: Categorical}))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1.4", "1.6"}, got.Frame().Col("engine").Records()); diff != "" {
		t.Errorf("engine cells (-want +got):\n%s", diff)
	}
}

func TestInferSchema_BoolIsCategorical(t *testing.T) {
	df := dataframe.New(
		series.New([]bool{true, false}, series.Bool, "automatic"),
		series.New([]int{2018, 2016}, series.Int, "year"),
	)
	got := InferSchema(df)
	want := NewSchema(
		Column{Name: "automatic", Kind: Categorical},
		Column{Name: "year", Kind: Numeric},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("InferSchema() (-want +got):\n%s", diff)
	}
}

func TestLoadReader_DeclaredColumnMissing(t *testing.T) {
	_, err := LoadReader(strings.NewReader("brand,price\nToyota,1\n"), "inline",
		WithSchema(NewSchema(Column{Name: "mileage", Kind: Numeric})))
	var le *errors.DataLoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected DataLoadError, got %v", err)
	}
	if !strings.Contains(err.Error(), `column "mileage" not found in header`) {
		t.Errorf("error should name the column: %v", err)
	}
}
