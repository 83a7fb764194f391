// Package sqlsource resolves snapshot ids to rows of a database/sql table.
//
// It builds
//
//	SELECT <columns> FROM <table> WHERE <id column> IN (?, ?, ...)
//
// in batches and leaves rows that no longer exist out of the result, which is
// exactly what pagesnap.PageFetcher needs to detect deletions.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/pagesnap"
)

// DefaultMaxBatch stays under SQLite's historical 999 bound-parameter limit.
const DefaultMaxBatch = 500

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Question renders "?" (SQLite, MySQL).
func Question(int) string { return "?" }

// Dollar renders "$n" (PostgreSQL).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

type Config[R any] struct {
	DB       *sql.DB  // required
	Table    string   // required
	Columns  []string // required, selected in order and handed to Scan
	IDColumn string   // "" => "id"

	// Scan reads the current row. Required.
	Scan func(rows *sql.Rows) (R, error)

	Placeholder Placeholder // nil => Question
	MaxBatch    int         // 0 => DefaultMaxBatch
	Logger      pagesnap.Logger
}

type Source[R any] struct {
	db       *sql.DB
	prefix   string
	scan     func(*sql.Rows) (R, error)
	ph       Placeholder
	maxBatch int
	log      pagesnap.Logger
}

// New validates identifiers up front; they are interpolated into SQL.
func New[R any](cfg Config[R]) (*Source[R], error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("%w: sqlsource: nil db", pagesnap.ErrConfiguration)
	}
	if cfg.Scan == nil {
		return nil, fmt.Errorf("%w: sqlsource: scan func is required", pagesnap.ErrConfiguration)
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("%w: sqlsource: no columns", pagesnap.ErrConfiguration)
	}
	idCol := cfg.IDColumn
	if idCol == "" {
		idCol = "id"
	}
	for _, ident := range append([]string{cfg.Table, idCol}, cfg.Columns...) {
		if !identRe.MatchString(ident) {
			return nil, fmt.Errorf("%w: sqlsource: invalid identifier %q", pagesnap.ErrConfiguration, ident)
		}
	}

	s := &Source[R]{
		db:       cfg.DB,
		prefix:   "SELECT " + strings.Join(cfg.Columns, ", ") + " FROM " + cfg.Table + " WHERE " + idCol + " IN (",
		scan:     cfg.Scan,
		ph:       cfg.Placeholder,
		maxBatch: cfg.MaxBatch,
		log:      cfg.Logger,
	}
	if s.ph == nil {
		s.ph = Question
	}
	if s.maxBatch <= 0 {
		s.maxBatch = DefaultMaxBatch
	}
	if s.log == nil {
		s.log = pagesnap.NopLogger{}
	}
	return s, nil
}

// Resolve satisfies pagesnap.Resolver[R]. Row order is whatever the database
// returns; the fetcher restores snapshot order.
func (s *Source[R]) Resolve(ctx context.Context, ids []string) ([]R, error) {
	out := make([]R, 0, len(ids))
	for start := 0; start < len(ids); start += s.maxBatch {
		end := min(start+s.maxBatch, len(ids))
		var err error
		if out, err = s.query(ctx, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	s.log.Debug("sqlsource resolve", pagesnap.Fields{"requested": len(ids), "found": len(out)})
	return out, nil
}

func (s *Source[R]) query(ctx context.Context, batch []string, out []R) ([]R, error) {
	var b strings.Builder
	b.WriteString(s.prefix)
	args := make([]any, len(batch))
	for i, id := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.ph(i + 1))
		args[i] = id
	}
	b.WriteByte(')')

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlsource query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlsource scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlsource rows: %w", err)
	}
	return out, nil
}
