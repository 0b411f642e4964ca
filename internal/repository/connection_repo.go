package repository

import (
	"context"

	"github.com/user/connections-scraper/internal/entity"
)

// ConnectionStore defines the relational storage the scraped records are written to.
type ConnectionStore interface {
	// CreateTable issues a single CREATE TABLE statement. It is not idempotent:
	// creating an existing table fails.
	CreateTable(ctx context.Context, name string, columns []entity.Column) error
	// Insert adds one row, using the keys of fields as both column list and named
	// placeholders. Values are always bound, never interpolated.
	Insert(ctx context.Context, table string, fields map[string]any) error
	// IDColumnType is the dialect's auto-incrementing integer primary key type.
	IDColumnType() string
	Close() error
}
