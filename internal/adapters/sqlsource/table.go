// Package sqlsource reads catalog rows from a relational table whose column
// names follow the row-source contract (handle, title, variant_sku, ...).
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"shopify-catalog-sync/internal/domain/model"
)

var (
	tableNamePattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	columnNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

const primaryKeyQuery = `
SELECT COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE
WHERE TABLE_SCHEMA = COALESCE(?, DATABASE()) AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
ORDER BY ORDINAL_POSITION`

type TableSource struct {
	db      *sql.DB
	table   string
	orderBy []string
}

// NewTableSource reads table ordered by orderBy, a comma-separated column
// list. An empty orderBy means the table's primary key.
func NewTableSource(db *sql.DB, table string, orderBy string) (*TableSource, error) {
	if db == nil {
		return nil, errors.New("sqlsource: db is nil")
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("sqlsource: invalid table name %q", table)
	}
	columns, err := parseOrderBy(orderBy)
	if err != nil {
		return nil, err
	}
	return &TableSource{db: db, table: table, orderBy: columns}, nil
}

// SelectQuery returns the statement used to read the table. Handle groups
// take their product fields from the first row, so the order must be
// explicit.
func (s *TableSource) SelectQuery(orderBy []string) string {
	quoted := make([]string, len(orderBy))
	for i, column := range orderBy {
		quoted[i] = quoteIdent(column)
	}
	return "SELECT * FROM " + quoteIdent(s.table) + " ORDER BY " + strings.Join(quoted, ", ")
}

func (s *TableSource) Rows(ctx context.Context) ([]model.Row, error) {
	orderBy := s.orderBy
	if len(orderBy) == 0 {
		keys, err := s.primaryKey(ctx)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("sqlsource: table %s has no primary key, set MYSQL_ORDER_BY", s.table)
		}
		orderBy = keys
	}

	rows, err := s.db.QueryContext(ctx, s.SelectQuery(orderBy))
	if err != nil {
		return nil, fmt.Errorf("sqlsource: query %s: %w", s.table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlsource: columns: %w", err)
	}
	if err := model.CheckColumns(header); err != nil {
		return nil, err
	}

	var out []model.Row
	line := 1
	for rows.Next() {
		line++
		values := make([]sql.NullString, len(header))
		dest := make([]any, len(header))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlsource: scan row %d: %w", line, err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		if model.IsBlankRecord(record) {
			continue
		}
		out = append(out, model.RowFromRecord(header, record, line))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlsource: iterate: %w", err)
	}
	return out, nil
}

func (s *TableSource) primaryKey(ctx context.Context) ([]string, error) {
	schema, table := splitTableName(s.table)
	rows, err := s.db.QueryContext(ctx, primaryKeyQuery, sql.NullString{String: schema, Valid: schema != ""}, table)
	if err != nil {
		return nil, fmt.Errorf("sqlsource: primary key of %s: %w", s.table, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("sqlsource: primary key of %s: %w", s.table, err)
		}
		keys = append(keys, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlsource: primary key of %s: %w", s.table, err)
	}
	return keys, nil
}

func parseOrderBy(raw string) ([]string, error) {
	var columns []string
	for _, part := range strings.Split(raw, ",") {
		column := strings.TrimSpace(part)
		if column == "" {
			continue
		}
		if !columnNamePattern.MatchString(column) {
			return nil, fmt.Errorf("sqlsource: invalid order column %q", column)
		}
		columns = append(columns, column)
	}
	return columns, nil
}

func splitTableName(name string) (schema, table string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func quoteIdent(name string) string {
	quoted := ""
	start := 0
	for i := 0; i <= len(name); i++ {
		if i == len(name) || name[i] == '.' {
			if quoted != "" {
				quoted += "."
			}
			quoted += "`" + name[start:i] + "`"
			start = i + 1
		}
	}
	return quoted
}
