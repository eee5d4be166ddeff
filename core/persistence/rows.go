package persistence

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// readRows materializes every row into T by matching result columns to
// storage names. Struct fields are scanned directly so database/sql performs
// the conversions; documents are filled by member kind. Columns that match no
// member are discarded, and not-mapped members are left untouched.
func readRows[T any](logger *zap.Logger, d *schema.TypeDescriptor, rows *sql.Rows) ([]T, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	members := make([]*schema.MemberDescriptor, len(columns))
	for i, col := range columns {
		members[i] = d.Column(col)
		if members[i] == nil {
			logger.Warn("Column not found in type descriptor, discarding", zap.String("column", col),
				zap.String("type", d.Name))
		}
	}

	var results []T
	for rows.Next() {
		var item T
		if d.IsDocument() {
			doc, err := scanDocument(rows, members)
			if err != nil {
				return nil, err
			}
			item = any(doc).(T)
		} else if err := scanStruct(rows, members, reflect.ValueOf(&item).Elem()); err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

func scanStruct(rows *sql.Rows, members []*schema.MemberDescriptor, rv reflect.Value) error {
	targets := make([]any, len(members))
	for i, m := range members {
		if m == nil {
			targets[i] = new(any)
			continue
		}
		fv, err := schema.FieldFor(rv, m)
		if err != nil {
			return err
		}
		targets[i] = fv.Addr().Interface()
	}
	if err := rows.Scan(targets...); err != nil {
		return fmt.Errorf("failed to scan row: %w", err)
	}
	return nil
}

func scanDocument(rows *sql.Rows, members []*schema.MemberDescriptor) (schema.Document, error) {
	values := make([]any, len(members))
	scanArgs := make([]any, len(members))
	for i := range values {
		scanArgs[i] = &values[i]
	}
	if err := rows.Scan(scanArgs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	row := make(schema.Document, len(members))
	for i, m := range members {
		if m == nil {
			continue
		}
		row[m.Name] = convert(m.Kind, values[i])
	}
	return row, nil
}

// convert normalizes a raw driver value for a document member. Values that
// cannot be converted are kept as returned by the driver.
func convert(kind schema.ValueKind, val any) any {
	if val == nil {
		return nil
	}
	if b, ok := val.([]byte); ok && kind != schema.KindBytes {
		if kind == schema.KindUUID && len(b) == 16 {
			if id, err := uuid.FromBytes(b); err == nil {
				return id
			}
		}
		val = string(b)
	}

	switch kind {
	case schema.KindBool:
		switch v := val.(type) {
		case int64:
			return v != 0
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
	case schema.KindInteger:
		switch v := val.(type) {
		case float64:
			return int64(v)
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	case schema.KindFloat, schema.KindDecimal:
		switch v := val.(type) {
		case int64:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	case schema.KindUUID:
		switch v := val.(type) {
		case string:
			if id, err := uuid.Parse(v); err == nil {
				return id
			}
		}
	case schema.KindTime:
		if s, ok := val.(string); ok {
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
					return t
				}
			}
		}
	}
	return val
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}
