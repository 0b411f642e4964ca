package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/repository"
	"github.com/user/connections-scraper/pkg/utils"
)

// MemoryPath opens a private in-memory database instead of a file.
const MemoryPath = ":memory:"

// Store is a file-backed SQLite implementation of repository.ConnectionStore.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the SQLite database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for read-back queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// IDColumnType implements repository.ConnectionStore.
func (s *Store) IDColumnType() string {
	return "integer primary key autoincrement"
}

// CreateTable implements repository.ConnectionStore.
func (s *Store) CreateTable(ctx context.Context, name string, columns []entity.Column) error {
	query, err := createTableQuery(name, columns)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// Insert implements repository.ConnectionStore using ":name" placeholders.
func (s *Store) Insert(ctx context.Context, table string, fields map[string]any) error {
	query, keys, err := insertQuery(table, fields)
	if err != nil {
		return err
	}
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, sql.Named(k, fields[k]))
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
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

func insertQuery(table string, fields map[string]any) (string, []string, error) {
	if !utils.IsIdentifier(table) {
		return "", nil, fmt.Errorf("%w: table %q", repository.ErrInvalidIdentifier, table)
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no fields", table)
	}
	keys := utils.SortedKeys(fields)
	placeholders := make([]string, 0, len(keys))
	for _, k := range keys {
		if !utils.IsIdentifier(k) {
			return "", nil, fmt.Errorf("%w: column %q", repository.ErrInvalidIdentifier, k)
		}
		placeholders = append(placeholders, ":"+k)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(keys, ", "), strings.Join(placeholders, ", "))
	return query, keys, nil
}
