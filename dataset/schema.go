package dataset

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// Kind is how a column is treated by the preprocessor.
type Kind int

const (
	// Numeric columns are continuous quantities and get scaled.
	Numeric Kind = iota
	// Categorical columns are discrete labels and get one-hot encoded.
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses "numeric" or "categorical".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number", "float", "int":
		return Numeric, nil
	case "categorical", "category", "string":
		return Categorical, nil
	default:
		return Numeric, errors.NewValidationError("kind", "must be numeric or categorical", s)
	}
}

func (k Kind) seriesType() series.Type {
	if k == Numeric {
		return series.Float
	}
	return series.String
}

// Column is one (name, kind) pair of a Schema.
type Column struct {
	Name string
	Kind Kind
}

// Schema is the ordered list of columns of a table.
type Schema struct {
	Columns []Column
}

// NewSchema returns a Schema with the given columns.
func NewSchema(cols ...Column) Schema {
	return Schema{Columns: append([]Column(nil), cols...)}
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.Columns) }

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Lookup finds a column by name.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// NamesOf returns the names of the columns of the given kind, in order.
func (s Schema) NamesOf(kind Kind) []string {
	var names []string
	for _, c := range s.Columns {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// Without returns a copy of the schema minus the named column.
func (s Schema) Without(name string) Schema {
	out := Schema{Columns: make([]Column, 0, len(s.Columns))}
	for _, c := range s.Columns {
		if c.Name != name {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// Validate rejects empty or duplicated column names.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return errors.NewValidationError("schema", "column name must not be empty", c)
		}
		if seen[c.Name] {
			return errors.NewValidationError("schema", "duplicated column name", c.Name)
		}
		if c.Kind != Numeric && c.Kind != Categorical {
			return errors.NewValidationError("schema", "unknown column kind", c.Kind)
		}
		seen[c.Name] = true
	}
	return nil
}

func (s Schema) seriesTypes() map[string]series.Type {
	types := make(map[string]series.Type, len(s.Columns))
	for _, c := range s.Columns {
		types[c.Name] = c.Kind.seriesType()
	}
	return types
}

// InferSchema classifies the columns of a frame from their stored types:
// int and float columns are numeric, everything else is categorical. Bool
// columns are categorical too and so reach the one-hot encoder.
func InferSchema(df dataframe.DataFrame) Schema {
	names := df.Names()
	types := df.Types()
	s := Schema{Columns: make([]Column, len(names))}
	for i, name := range names {
		kind := Categorical
		if types[i] == series.Int || types[i] == series.Float {
			kind = Numeric
		}
		s.Columns[i] = Column{Name: name, Kind: kind}
	}
	return s
}

func (s Schema) equal(o Schema) bool {
	if len(s.Columns) != len(o.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i] != o.Columns[i] {
			return false
		}
	}
	return true
}

// merge returns declared columns in frame order, filling undeclared ones from
// inferred.
func merge(order []string, declared, inferred Schema) Schema {
	out := Schema{Columns: make([]Column, 0, len(order))}
	for _, name := range order {
		if c, ok := declared.Lookup(name); ok {
			out.Columns = append(out.Columns, c)
			continue
		}
		c, _ := inferred.Lookup(name)
		out.Columns = append(out.Columns, c)
	}
	return out
}
