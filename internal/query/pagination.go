package query

import (
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
)

const (
	// DefaultOrderBy is the order column used when none is given.
	DefaultOrderBy = "created_at"

	// DefaultLimit is the page size used when none is given.
	DefaultLimit = 10

	// MaxPage is the largest page number accepted from clients.
	MaxPage = 1_000_000
)

// Pagination selects one page of an ordered result.
type Pagination struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	OrderBy   string `json:"orderBy"`
	Ascending bool   `json:"ascending"`
}

// Normalize fills defaults: page 1, limit DefaultLimit, order DefaultOrderBy.
// Ascending defaults to false (newest first).
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.OrderBy == "" {
		p.OrderBy = DefaultOrderBy
	}
	return p
}

// Range returns the zero-based inclusive row range of the page. A page whose
// range would overflow int starts at math.MaxInt, which selects no rows.
func (p Pagination) Range() (start, end int) {
	n := p.Normalize()
	if n.Page-1 > (math.MaxInt-n.Limit)/n.Limit {
		return math.MaxInt, math.MaxInt
	}
	start = (n.Page - 1) * n.Limit
	end = start + n.Limit - 1
	return start, end
}

// OrderClause renders the ORDER BY expression, or an error when the order
// column is not a plain identifier.
func (p Pagination) OrderClause() (string, error) {
	n := p.Normalize()
	if !ValidIdentifier(n.OrderBy) {
		return "", fmt.Errorf("%w: %q", ErrInvalidColumn, n.OrderBy)
	}
	direction := "DESC"
	if n.Ascending {
		direction = "ASC"
	}
	return n.OrderBy + " " + direction, nil
}

// Paginate applies ordering and the row range to the builder. When the
// ordering cannot be applied it logs and applies only the row-count limit,
// ignoring order and offset. A nil pagination leaves the builder unchanged.
func Paginate(b sq.SelectBuilder, p *Pagination, logger zerolog.Logger) sq.SelectBuilder {
	if p == nil {
		return b
	}
	n := p.Normalize()
	clause, err := n.OrderClause()
	if err != nil {
		logger.Warn().Err(err).Int("limit", n.Limit).Msg("ordering failed; applying limit only")
		return b.Limit(uint64(n.Limit))
	}
	start, _ := n.Range()
	return b.OrderBy(clause).Offset(uint64(start)).Limit(uint64(n.Limit))
}
