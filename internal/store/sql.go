package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/peopledesk/peopledesk/internal/query"
)

// Dialect captures the differences between SQL backends.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// FoldILike rewrites ilike filters to like for engines without ILIKE
	// whose LIKE is already case-insensitive.
	FoldILike bool
}

// SQLStore implements Store over database/sql using squirrel.
type SQLStore struct {
	db      *sql.DB
	sb      sq.StatementBuilderType
	dialect Dialect
	logger  zerolog.Logger
}

// NewSQLStore creates a store for db speaking the given dialect.
func NewSQLStore(db *sql.DB, dialect Dialect, logger zerolog.Logger) *SQLStore {
	return &SQLStore{
		db:      db,
		sb:      sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		dialect: dialect,
		logger:  logger.With().Str("dialect", dialect.Name).Logger(),
	}
}

// DB returns the underlying connection pool.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// ---------------------------------------------------------------------------
// Ping / Close
// ---------------------------------------------------------------------------

// Ping verifies that the database connection is alive.
func (s *SQLStore) Ping(ctx context.Context) error {
	return Wrap("ping", "", s.db.PingContext(ctx))
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Select
// ---------------------------------------------------------------------------

// Select runs a count query and a paginated data query over the collection.
func (s *SQLStore) Select(ctx context.Context, q SelectQuery) ([]Row, int, error) {
	const op = "select"
	if !query.ValidIdentifier(q.Collection) {
		return nil, 0, Wrap(op, q.Collection, invalidIdentifier(q.Collection))
	}
	columns := q.Columns
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	for _, col := range columns {
		if col != "*" && !query.ValidIdentifier(col) {
			return nil, 0, Wrap(op, q.Collection, invalidIdentifier(col))
		}
	}

	conds := query.Conditions(s.rewriteFilters(q.Filters), s.logger)

	// -- Count query for total pagination metadata. ----------------------
	countSQL, countArgs, err := query.Apply(s.sb.Select("COUNT(*)").From(q.Collection), conds).ToSql()
	if err != nil {
		return nil, 0, Wrap(op, q.Collection, fmt.Errorf("building count query: %w", err))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, Wrap(op, q.Collection, fmt.Errorf("executing count query: %w", err))
	}
	if total == 0 {
		return []Row{}, 0, nil
	}

	// -- Data query with pagination. -------------------------------------
	dataQuery := query.Apply(s.sb.Select(columns...).From(q.Collection), conds)
	dataQuery = query.Paginate(dataQuery, q.Pagination, s.logger)

	dataSQL, dataArgs, err := dataQuery.ToSql()
	if err != nil {
		return nil, 0, Wrap(op, q.Collection, fmt.Errorf("building data query: %w", err))
	}

	rows, err := s.db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, Wrap(op, q.Collection, fmt.Errorf("executing data query: %w", err))
	}
	defer rows.Close()

	items, err := scanRows(rows)
	if err != nil {
		return nil, 0, Wrap(op, q.Collection, err)
	}
	return items, total, nil
}

// SelectOne retrieves the row whose id column equals id.
func (s *SQLStore) SelectOne(ctx context.Context, collection, id string) (Row, error) {
	const op = "select_one"
	if !query.ValidIdentifier(collection) {
		return nil, Wrap(op, collection, invalidIdentifier(collection))
	}

	sqlStr, args, err := s.sb.Select("*").From(collection).Where(sq.Eq{"id": id}).Limit(2).ToSql()
	if err != nil {
		return nil, Wrap(op, collection, fmt.Errorf("building query: %w", err))
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, Wrap(op, collection, fmt.Errorf("executing query: %w", err))
	}
	defer rows.Close()

	items, err := scanRows(rows)
	if err != nil {
		return nil, Wrap(op, collection, err)
	}
	switch len(items) {
	case 0:
		return nil, Wrap(op, collection, ErrNotFound)
	case 1:
		return items[0], nil
	default:
		return nil, Wrap(op, collection, ErrMultipleRows)
	}
}

// ---------------------------------------------------------------------------
// Insert / Update / Delete
// ---------------------------------------------------------------------------

// Insert adds a row and returns it as stored, including database defaults.
func (s *SQLStore) Insert(ctx context.Context, collection string, row Row) (Row, error) {
	const op = "insert"
	if !query.ValidIdentifier(collection) {
		return nil, Wrap(op, collection, invalidIdentifier(collection))
	}
	if err := validateRow(row); err != nil {
		return nil, Wrap(op, collection, err)
	}

	sqlStr, args, err := s.sb.Insert(collection).SetMap(row).Suffix("RETURNING *").ToSql()
	if err != nil {
		return nil, Wrap(op, collection, fmt.Errorf("building insert: %w", err))
	}
	return s.queryReturning(ctx, op, collection, sqlStr, args)
}

// Update applies patch to the row with the given id.
func (s *SQLStore) Update(ctx context.Context, collection, id string, patch Row) (Row, error) {
	const op = "update"
	if !query.ValidIdentifier(collection) {
		return nil, Wrap(op, collection, invalidIdentifier(collection))
	}
	if err := validateRow(patch); err != nil {
		return nil, Wrap(op, collection, err)
	}

	sqlStr, args, err := s.sb.Update(collection).
		SetMap(patch).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return nil, Wrap(op, collection, fmt.Errorf("building update: %w", err))
	}
	return s.queryReturning(ctx, op, collection, sqlStr, args)
}

// Delete removes the row with the given id.
func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	const op = "delete"
	if !query.ValidIdentifier(collection) {
		return Wrap(op, collection, invalidIdentifier(collection))
	}

	sqlStr, args, err := s.sb.Delete(collection).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Wrap(op, collection, fmt.Errorf("building delete: %w", err))
	}

	result, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return Wrap(op, collection, fmt.Errorf("executing delete: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Wrap(op, collection, fmt.Errorf("reading affected rows: %w", err))
	}
	if affected == 0 {
		return Wrap(op, collection, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) queryReturning(ctx context.Context, op, collection, sqlStr string, args []any) (Row, error) {
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, Wrap(op, collection, fmt.Errorf("executing %s: %w", op, err))
	}
	defer rows.Close()

	items, err := scanRows(rows)
	if err != nil {
		return nil, Wrap(op, collection, err)
	}
	if len(items) == 0 {
		return nil, Wrap(op, collection, ErrNotFound)
	}
	return items[0], nil
}

func (s *SQLStore) rewriteFilters(filters []query.Filter) []query.Filter {
	if !s.dialect.FoldILike {
		return filters
	}
	out := make([]query.Filter, len(filters))
	for i, f := range filters {
		if f.Operator == query.OpILike {
			f.Operator = query.OpLike
		}
		out[i] = f
	}
	return out
}

// scanRows reads every remaining row into a column map. Byte slices are
// returned as strings so rows serialize as text.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	items := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w: %w", ErrMalformedRow, err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		items = append(items, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return items, nil
}
