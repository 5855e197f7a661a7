// Package rowset holds tabular query results and the coercing typed
// accessors the record layer hydrates from.
package rowset

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Result is a fully read tabular result.
type Result interface {
	Len() int
	Row(i int) Row
}

// Row reads one row's columns by name or position, coercing the stored
// value to the requested kind. NULL reads as the kind's zero value.
type Row interface {
	Boolean(name string) (bool, error)
	Date(name string) (time.Time, error)
	Int(name string) (int, error)
	String(name string) (string, error)

	BooleanAt(pos int) (bool, error)
	DateAt(pos int) (time.Time, error)
	IntAt(pos int) (int, error)
	StringAt(pos int) (string, error)
}

// MalformedRowError reports a column whose stored value cannot be coerced
// to the requested kind, or a column that is not part of the row.
type MalformedRowError struct {
	Column string
	Kind   string
	Value  any
}

func (e *MalformedRowError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("column %q: not present in row", e.Column)
	}
	return fmt.Sprintf("column %q: cannot read %T value %v as %s", e.Column, e.Value, e.Value, e.Kind)
}

// Table is an in-memory Result.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// NewTable builds a table. Column lookups are case-insensitive since
// drivers disagree on the case they report identifiers in.
func NewTable(columns []string, rows [][]any) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		key := strings.ToUpper(c)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return &Table{columns: columns, index: index, rows: rows}
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Columns() []string { return t.columns }

func (t *Table) Row(i int) Row { return tableRow{t: t, values: t.rows[i]} }

// Scan drains rows into a Table and closes them.
func Scan(rows *sql.Rows) (*Table, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var data [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewTable(columns, data), nil
}

type tableRow struct {
	t      *Table
	values []any
}

func (r tableRow) lookup(name string) (any, error) {
	i, ok := r.t.index[strings.ToUpper(name)]
	if !ok || i >= len(r.values) {
		return nil, &MalformedRowError{Column: name}
	}
	return r.values[i], nil
}

func (r tableRow) at(pos int) (string, any, error) {
	name := "#" + strconv.Itoa(pos)
	if pos >= 0 && pos < len(r.t.columns) {
		name = r.t.columns[pos]
	}
	if pos < 0 || pos >= len(r.values) {
		return name, nil, &MalformedRowError{Column: name}
	}
	return name, r.values[pos], nil
}

func (r tableRow) Boolean(name string) (bool, error) {
	v, err := r.lookup(name)
	if err != nil {
		return false, err
	}
	return toBool(name, v)
}

func (r tableRow) Date(name string) (time.Time, error) {
	v, err := r.lookup(name)
	if err != nil {
		return time.Time{}, err
	}
	return toDate(name, v)
}

func (r tableRow) Int(name string) (int, error) {
	v, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	return toInt(name, v)
}

func (r tableRow) String(name string) (string, error) {
	v, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	return toString(name, v)
}

func (r tableRow) BooleanAt(pos int) (bool, error) {
	name, v, err := r.at(pos)
	if err != nil {
		return false, err
	}
	return toBool(name, v)
}

func (r tableRow) DateAt(pos int) (time.Time, error) {
	name, v, err := r.at(pos)
	if err != nil {
		return time.Time{}, err
	}
	return toDate(name, v)
}

func (r tableRow) IntAt(pos int) (int, error) {
	name, v, err := r.at(pos)
	if err != nil {
		return 0, err
	}
	return toInt(name, v)
}

func (r tableRow) StringAt(pos int) (string, error) {
	name, v, err := r.at(pos)
	if err != nil {
		return "", err
	}
	return toString(name, v)
}

func toBool(name string, v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case []byte:
		return toBool(name, string(t))
	case string:
		s := strings.TrimSpace(t)
		switch strings.ToLower(s) {
		case "y", "yes":
			return true, nil
		case "n", "no", "":
			return false, nil
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
	default:
		if i, ok := integer(v); ok {
			return i != 0, nil
		}
	}
	return false, &MalformedRowError{Column: name, Kind: "boolean", Value: v}
}

func toInt(name string, v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return toInt(name, string(t))
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i, nil
		}
	case float32:
		return toInt(name, float64(t))
	case float64:
		if t == math.Trunc(t) && t >= math.MinInt64 && t < math.MaxInt64 {
			return int(t), nil
		}
	default:
		if i, ok := integer(v); ok {
			return int(i), nil
		}
	}
	return 0, &MalformedRowError{Column: name, Kind: "integer", Value: v}
}

func toString(name string, v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case time.Time:
		return t.Format(dateLayouts[1]), nil
	default:
		if i, ok := integer(v); ok {
			return strconv.FormatInt(i, 10), nil
		}
	}
	return "", &MalformedRowError{Column: name, Kind: "string", Value: v}
}

// dateLayouts are tried in order when a driver hands back dates as text,
// as SQLite does.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func toDate(name string, v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case []byte:
		return toDate(name, string(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, nil
			}
		}
	}
	return time.Time{}, &MalformedRowError{Column: name, Kind: "date", Value: v}
}

func integer(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}
