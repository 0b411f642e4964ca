package usecase

import (
	"context"
	"fmt"

	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/repository"
	"github.com/user/connections-scraper/pkg/metrics"
)

// ConnectionsTable is the table every record is written to.
const ConnectionsTable = "connections"

// TableState records whether a writer has created its table yet.
type TableState int

const (
	TableUninitialized TableState = iota
	TableReady
)

func (s TableState) String() string {
	switch s {
	case TableUninitialized:
		return "uninitialized"
	case TableReady:
		return "ready"
	default:
		return fmt.Sprintf("TableState(%d)", int(s))
	}
}

// ConnectionColumns is the schema of the connections table for a given id column type.
func ConnectionColumns(idType string) []entity.Column {
	return []entity.Column{
		{Name: "id", Type: idType},
		{Name: "name", Type: "text"},
		{Name: "occupation", Type: "text"},
		{Name: "connection_status", Type: "text"},
		{Name: "profile_url", Type: "text"},
	}
}

// ConnectionWriter appends records to the connections table, creating the table on
// its first Save. The table state belongs to the writer instance.
type ConnectionWriter struct {
	store    repository.ConnectionStore
	state    TableState
	progress *Progress
}

// NewConnectionWriter creates a writer for a store whose connections table does not
// exist yet.
func NewConnectionWriter(store repository.ConnectionStore, progress *Progress) *ConnectionWriter {
	if progress == nil {
		progress = NewProgress()
	}
	return &ConnectionWriter{store: store, progress: progress}
}

func (w *ConnectionWriter) State() TableState {
	return w.state
}

// Save inserts connections in order, one statement each. A failed insert aborts the
// remainder; rows already written stay committed.
func (w *ConnectionWriter) Save(ctx context.Context, connections []entity.Connection) error {
	if w.state == TableUninitialized {
		if err := w.store.CreateTable(ctx, ConnectionsTable, ConnectionColumns(w.store.IDColumnType())); err != nil {
			return err
		}
		w.state = TableReady
	}

	for i, c := range connections {
		if err := w.store.Insert(ctx, ConnectionsTable, c.Fields()); err != nil {
			return fmt.Errorf("save connection %d (%s): %w", i, c, err)
		}
		metrics.RowsInsertedTotal.Inc()
		w.progress.RowSaved()
	}
	return nil
}
