// Package query translates declarative filter and pagination descriptors into
// squirrel query builders, and evaluates the same descriptors in memory for
// stores that have no SQL engine.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
)

// Operator is a filter comparison operator.
type Operator string

// Supported operators.
const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
	OpIn    Operator = "in"
)

var (
	// ErrUnknownOperator is returned for operators outside the supported set.
	ErrUnknownOperator = errors.New("unknown filter operator")

	// ErrInvalidColumn is returned when a column is not a plain SQL identifier.
	ErrInvalidColumn = errors.New("invalid column name")

	// ErrInvalidValue is returned when a value does not fit its operator.
	ErrInvalidValue = errors.New("invalid filter value")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether s is safe to embed as a table or column name.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Filter is one column/operator/value condition. A list of filters is applied
// conjunctively in the order given.
type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Eq is shorthand for an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Operator: OpEq, Value: value}
}

// String renders the filter for log output.
func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Column, f.Operator, f.Value)
}

// Validate checks that the filter can be applied.
func (f Filter) Validate() error {
	if !ValidIdentifier(f.Column) {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, f.Column)
	}
	switch f.Operator {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return nil
	case OpLike, OpILike:
		if _, ok := f.Value.(string); !ok {
			return fmt.Errorf("%w: %s expects a string pattern", ErrInvalidValue, f.Operator)
		}
		return nil
	case OpIn:
		if !isSlice(f.Value) {
			return fmt.Errorf("%w: in expects a list", ErrInvalidValue)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperator, f.Operator)
	}
}

// Sqlizer converts the filter into a squirrel condition.
func (f Filter) Sqlizer() (sq.Sqlizer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	switch f.Operator {
	case OpEq:
		return sq.Eq{f.Column: f.Value}, nil
	case OpNeq:
		return sq.NotEq{f.Column: f.Value}, nil
	case OpGt:
		return sq.Gt{f.Column: f.Value}, nil
	case OpGte:
		return sq.GtOrEq{f.Column: f.Value}, nil
	case OpLt:
		return sq.Lt{f.Column: f.Value}, nil
	case OpLte:
		return sq.LtOrEq{f.Column: f.Value}, nil
	case OpLike:
		return sq.Like{f.Column: f.Value}, nil
	case OpILike:
		return sq.ILike{f.Column: f.Value}, nil
	default:
		// OpIn: squirrel renders a slice value as IN (...).
		return sq.Eq{f.Column: f.Value}, nil
	}
}

// Conditions folds filters left to right into squirrel conditions. A filter
// that cannot be applied, including one with an unknown operator, is logged
// and skipped; the remaining filters still apply.
func Conditions(filters []Filter, logger zerolog.Logger) []sq.Sqlizer {
	conds := make([]sq.Sqlizer, 0, len(filters))
	for i, f := range filters {
		cond, err := f.Sqlizer()
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Str("filter", f.String()).Msg("skipping filter")
			continue
		}
		conds = append(conds, cond)
	}
	return conds
}

// Apply adds every condition to the builder.
func Apply(b sq.SelectBuilder, conds []sq.Sqlizer) sq.SelectBuilder {
	for _, cond := range conds {
		b = b.Where(cond)
	}
	return b
}

// ParseFilters decodes a JSON array of filter descriptors. Malformed JSON is
// an input error; unknown operators are accepted here and skipped later.
func ParseFilters(raw string) ([]Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var filters []Filter
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, fmt.Errorf("decoding filters: %w", err)
	}
	return filters, nil
}

func isSlice(v any) bool {
	if v == nil {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}
