package query

import (
	"encoding/json"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Matcher evaluates a filter list against in-memory rows with the same
// leniency as Conditions: filters that cannot be applied are logged once and
// skipped.
type Matcher struct {
	filters  []Filter
	patterns map[int]*regexp.Regexp
}

// NewMatcher validates filters and prepares LIKE patterns.
func NewMatcher(filters []Filter, logger zerolog.Logger) *Matcher {
	m := &Matcher{patterns: make(map[int]*regexp.Regexp)}
	for i, f := range filters {
		if err := f.Validate(); err != nil {
			logger.Warn().Err(err).Int("index", i).Str("filter", f.String()).Msg("skipping filter")
			continue
		}
		if f.Operator == OpLike || f.Operator == OpILike {
			m.patterns[len(m.filters)] = likePattern(f.Value.(string), f.Operator == OpILike)
		}
		m.filters = append(m.filters, f)
	}
	return m
}

// Match reports whether the row satisfies every applicable filter.
func (m *Matcher) Match(row map[string]any) bool {
	for i, f := range m.filters {
		if !m.matchOne(i, f, row[f.Column]) {
			return false
		}
	}
	return true
}

func (m *Matcher) matchOne(i int, f Filter, got any) bool {
	switch f.Operator {
	case OpEq:
		return equal(got, f.Value)
	case OpNeq:
		if f.Value == nil {
			return got != nil
		}
		return got != nil && !equal(got, f.Value)
	case OpGt, OpGte, OpLt, OpLte:
		c, ok := compare(got, f.Value)
		if !ok {
			return false
		}
		switch f.Operator {
		case OpGt:
			return c > 0
		case OpGte:
			return c >= 0
		case OpLt:
			return c < 0
		default:
			return c <= 0
		}
	case OpLike, OpILike:
		s, ok := normalize(got).(string)
		return ok && m.patterns[i].MatchString(s)
	case OpIn:
		v := reflect.ValueOf(f.Value)
		for j := 0; j < v.Len(); j++ {
			if equal(got, v.Index(j).Interface()) {
				return true
			}
		}
		return false
	}
	return false
}

// Sort orders rows by the pagination's order column. NULLs sort last when
// ascending and first when descending, as in Postgres.
func Sort(rows []map[string]any, p Pagination) {
	n := p.Normalize()
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][n.OrderBy], rows[j][n.OrderBy]
		c := compareNullsLast(a, b)
		if n.Ascending {
			return c < 0
		}
		return c > 0
	})
}

// Window returns the page of rows selected by p, applying the same ordering
// fallback as Paginate: with an invalid order column only the limit applies.
func Window(rows []map[string]any, p *Pagination, logger zerolog.Logger) []map[string]any {
	if p == nil {
		return rows
	}
	n := p.Normalize()
	if _, err := n.OrderClause(); err != nil {
		logger.Warn().Err(err).Int("limit", n.Limit).Msg("ordering failed; applying limit only")
		if len(rows) > n.Limit {
			return rows[:n.Limit]
		}
		return rows
	}
	Sort(rows, n)
	start, end := n.Range()
	if start >= len(rows) {
		return []map[string]any{}
	}
	if end >= len(rows) {
		end = len(rows) - 1
	}
	return rows[start : end+1]
}

func likePattern(pattern string, insensitive bool) *regexp.Regexp {
	var b strings.Builder
	if insensitive {
		b.WriteString("(?is)")
	} else {
		b.WriteString("(?s)")
	}
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(t)
	default:
		return v
	}
}

func equal(a, b any) bool {
	na, nb := normalize(a), normalize(b)
	if na == nil || nb == nil {
		return na == nil && nb == nil
	}
	if ta, ok := na.(string); ok {
		if tb, ok := nb.(string); ok {
			if ta == tb {
				return true
			}
			// Timestamps may differ only in formatting.
			return sameInstant(ta, tb)
		}
	}
	return reflect.DeepEqual(na, nb)
}

func compare(a, b any) (int, bool) {
	na, nb := normalize(a), normalize(b)
	switch x := na.(type) {
	case float64:
		y, ok := nb.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := nb.(string)
		if !ok {
			return 0, false
		}
		if tx, ty, ok := parseInstants(x, y); ok {
			return tx.Compare(ty), true
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := nb.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func compareNullsLast(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c, _ := compare(a, b)
	return c
}

func sameInstant(a, b string) bool {
	ta, tb, ok := parseInstants(a, b)
	return ok && ta.Equal(tb)
}

func parseInstants(a, b string) (time.Time, time.Time, bool) {
	ta, err := time.Parse(time.RFC3339Nano, a)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	tb, err := time.Parse(time.RFC3339Nano, b)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return ta, tb, true
}
