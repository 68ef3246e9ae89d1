// Package dataset loads tabular data into gota data frames and carries the
// column schema the preprocessor needs.
package dataset

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
)

// DefaultNAValues are the cell values read as missing.
var DefaultNAValues = []string{"", "NA", "NaN", "nan", "null", "<nil>"}

// Dataset is a loaded table together with its column schema.
//
// text holds the same cells as frame, untyped, so that a column can be read
// again under another kind without going through a parsed number.
type Dataset struct {
	frame  dataframe.DataFrame
	text   dataframe.DataFrame
	schema Schema
	source string
}

type loadConfig struct {
	delimiter rune
	schema    Schema
	naValues  []string
}

// LoadOption configures Load and LoadReader.
type LoadOption func(*loadConfig)

// WithDelimiter sets the field delimiter. Default ','.
func WithDelimiter(d rune) LoadOption {
	return func(c *loadConfig) { c.delimiter = d }
}

// WithSchema declares the kind of some or all columns. Undeclared columns are
// inferred from their values.
func WithSchema(s Schema) LoadOption {
	return func(c *loadConfig) { c.schema = s }
}

// WithNAValues replaces the set of cell values read as missing.
func WithNAValues(values ...string) LoadOption {
	return func(c *loadConfig) { c.naValues = values }
}

func newLoadConfig(opts []LoadOption) *loadConfig {
	c := &loadConfig{delimiter: ',', naValues: DefaultNAValues}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *loadConfig) gotaOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.WithDelimiter(c.delimiter),
		dataframe.NaNValues(c.naValues),
		dataframe.WithTypes(c.schema.seriesTypes()),
	}
}

// textOptions reads every column as text.
func (c *loadConfig) textOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithDelimiter(c.delimiter),
		dataframe.NaNValues(c.naValues),
	}
}

// Load reads a delimited file with a header row.
// Every failure is reported as a *errors.DataLoadError.
func Load(path string, opts ...LoadOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataLoadError(path, "cannot open file", err)
	}
	defer f.Close()

	return LoadReader(f, path, opts...)
}

// LoadReader reads a delimited table with a header row from r. source names
// the input in errors and logs.
func LoadReader(r io.Reader, source string, opts ...LoadOption) (*Dataset, error) {
	cfg := newLoadConfig(opts)
	if err := cfg.schema.Validate(); err != nil {
		return nil, errors.NewDataLoadError(source, "invalid schema", err)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewDataLoadError(source, "cannot read input", err)
	}
	df := dataframe.ReadCSV(bytes.NewReader(raw), cfg.gotaOptions()...)
	if df.Err != nil {
		return nil, errors.NewDataLoadError(source, "malformed table", df.Err)
	}
	text := dataframe.ReadCSV(bytes.NewReader(raw), cfg.textOptions()...)
	if text.Err != nil {
		return nil, errors.NewDataLoadError(source, "malformed table", text.Err)
	}

	ds, err := newDataset(df, text, cfg.schema, source)
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("dataset").Info("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, source,
		log.SamplesKey, ds.Nrow(),
		log.ColumnsKey, ds.schema.Names(),
	)
	return ds, nil
}

// FromRecords builds a dataset from rows keyed by column name, the in-memory
// counterpart of a CSV file. Columns follow the declared schema first and then
// the remaining keys in sorted order. Absent keys and nil values are missing.
// Declared columns that no row carries are left out rather than rejected.
func FromRecords(rows []map[string]any, declared Schema, opts ...LoadOption) (*Dataset, error) {
	const source = "<records>"
	if len(rows) == 0 {
		return nil, errors.NewDataLoadError(source, "no rows", errors.ErrEmptyData)
	}
	if err := declared.Validate(); err != nil {
		return nil, errors.NewDataLoadError(source, "invalid schema", err)
	}
	header := recordHeader(rows, declared)
	// 宣言済みでも行に現れない列は型指定だけ外す
	present := make([]Column, 0, len(declared.Columns))
	for _, c := range declared.Columns {
		if contains(header, c.Name) {
			present = append(present, c)
		}
	}
	declared = NewSchema(present...)
	cfg := newLoadConfig(append(append([]LoadOption{}, opts...), WithSchema(declared)))
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, row := range rows {
		rec := make([]string, len(header))
		for j, name := range header {
			rec[j] = formatCell(row[name])
		}
		records = append(records, rec)
	}

	df := dataframe.LoadRecords(records, cfg.gotaOptions()...)
	if df.Err != nil {
		return nil, errors.NewDataLoadError(source, "malformed records", df.Err)
	}
	text := dataframe.LoadRecords(records, cfg.textOptions()...)
	if text.Err != nil {
		return nil, errors.NewDataLoadError(source, "malformed records", text.Err)
	}
	return newDataset(df, text, declared, source)
}

func newDataset(df, text dataframe.DataFrame, declared Schema, source string) (*Dataset, error) {
	names := df.Names()
	for _, c := range declared.Columns {
		if !contains(names, c.Name) {
			return nil, errors.NewDataLoadError(source, "declared column missing",
				errors.Newf("column %q not found in header", c.Name))
		}
	}
	if df.Nrow() == 0 {
		return nil, errors.NewDataLoadError(source, "no rows", errors.ErrEmptyData)
	}
	return &Dataset{
		frame:  df,
		text:   text,
		schema: merge(names, declared, InferSchema(df)),
		source: source,
	}, nil
}

func recordHeader(rows []map[string]any, declared Schema) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	header := make([]string, 0, len(seen))
	for _, c := range declared.Columns {
		if seen[c.Name] {
			header = append(header, c.Name)
			delete(seen, c.Name)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(header, rest...)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Frame returns the underlying data frame.
func (d *Dataset) Frame() dataframe.DataFrame { return d.frame }

// Schema returns the column schema.
func (d *Dataset) Schema() Schema { return d.schema }

// Source returns the path or name the dataset was read from.
func (d *Dataset) Source() string { return d.source }

// Nrow returns the number of rows.
func (d *Dataset) Nrow() int { return d.frame.Nrow() }

// Ncol returns the number of columns.
func (d *Dataset) Ncol() int { return d.frame.Ncol() }

// Subset returns the rows at the given indexes, in that order.
func (d *Dataset) Subset(indexes []int) (*Dataset, error) {
	if len(indexes) == 0 {
		return nil, errors.NewValueError("Dataset.Subset", "no rows selected")
	}
	df := d.frame.Subset(indexes)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "carprice: Dataset.Subset")
	}
	text := d.text.Subset(indexes)
	if text.Err != nil {
		return nil, errors.Wrap(text.Err, "carprice: Dataset.Subset")
	}
	return &Dataset{frame: df, text: text, schema: d.schema, source: d.source}, nil
}

// Conform returns the dataset with the columns named by s read as s declares
// them. A categorical column that was parsed as numbers is rebuilt from its
// original cell text, so "1.6" stays "1.6". Columns s does not name, or that
// the dataset lacks, are left as they are.
func (d *Dataset) Conform(s Schema) (*Dataset, error) {
	frame := d.frame
	names := frame.Names()
	changed := false
	for _, c := range s.Columns {
		if c.Kind != Categorical || !contains(names, c.Name) {
			continue
		}
		if frame.Col(c.Name).Type() == series.String {
			continue
		}
		frame = frame.Mutate(series.New(d.text.Col(c.Name).Records(), series.String, c.Name))
		if frame.Err != nil {
			return nil, errors.Wrapf(frame.Err, "carprice: Dataset.Conform %q", c.Name)
		}
		changed = true
	}

	schema := merge(names, s, d.schema)
	if !changed && schema.equal(d.schema) {
		return d, nil
	}
	return &Dataset{frame: frame, text: d.text, schema: schema, source: d.source}, nil
}
