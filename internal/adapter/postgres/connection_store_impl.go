package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/repository"
	"github.com/user/connections-scraper/pkg/utils"
)

// ConnectionStoreImpl provides a concrete implementation for the ConnectionStore interface using PostgreSQL.
type ConnectionStoreImpl struct {
	db *pgxpool.Pool
}

// NewConnectionStore creates a new instance of ConnectionStoreImpl.
func NewConnectionStore(db *pgxpool.Pool) *ConnectionStoreImpl {
	return &ConnectionStoreImpl{db: db}
}

// Open connects a pool to connString and verifies it with a ping.
func Open(ctx context.Context, connString string) (*ConnectionStoreImpl, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewConnectionStore(pool), nil
}

// Close releases the pool.
func (r *ConnectionStoreImpl) Close() error {
	r.db.Close()
	return nil
}

// IDColumnType implements repository.ConnectionStore.
func (r *ConnectionStoreImpl) IDColumnType() string {
	return "bigint generated always as identity primary key"
}

// CreateTable issues a single CREATE TABLE statement. It fails if the table exists.
func (r *ConnectionStoreImpl) CreateTable(ctx context.Context, name string, columns []entity.Column) error {
	query, err := createTableQuery(name, columns)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// Insert adds one row, binding every value through pgx named arguments.
func (r *ConnectionStoreImpl) Insert(ctx context.Context, table string, fields map[string]any) error {
	query, err := insertQuery(table, fields)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, query, pgx.NamedArgs(fields)); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// DropTable removes the table if present. It backs the start-clean step of a run.
func (r *ConnectionStoreImpl) DropTable(ctx context.Context, name string) error {
	if !utils.IsIdentifier(name) {
		return fmt.Errorf("%w: table %q", repository.ErrInvalidIdentifier, name)
	}
	_, err := r.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", name))
	return err
}

func createTableQuery(name string, columns []entity.Column) (string, error) {
	if !utils.IsIdentifier(name) {
		return "", fmt.Errorf("%w: table %q", repository.ErrInvalidIdentifier, name)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("create table %s: no columns", name)
	}
	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		if !utils.IsIdentifier(c.Name) {
			return "", fmt.Errorf("%w: column %q", repository.ErrInvalidIdentifier, c.Name)
		}
		defs = append(defs, c.Name+" "+c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", name, strings.Join(defs, ", ")), nil
}

func insertQuery(table string, fields map[string]any) (string, error) {
	if !utils.IsIdentifier(table) {
		return "", fmt.Errorf("%w: table %q", repository.ErrInvalidIdentifier, table)
	}
	if len(fields) == 0 {
		return "", fmt.Errorf("insert into %s: no fields", table)
	}
	keys := utils.SortedKeys(fields)
	placeholders := make([]string, 0, len(keys))
	for _, k := range keys {
		if !utils.IsIdentifier(k) {
			return "", fmt.Errorf("%w: column %q", repository.ErrInvalidIdentifier, k)
		}
		placeholders = append(placeholders, "@"+k)
	}
	return fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s);
	`, table, strings.Join(keys, ", "), strings.Join(placeholders, ", ")), nil
}
