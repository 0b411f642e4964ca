package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testColumns(s *Store) []entity.Column {
	return []entity.Column{
		{Name: "id", Type: s.IDColumnType()},
		{Name: "name", Type: "text"},
		{Name: "occupation", Type: "text"},
		{Name: "connection_status", Type: "text"},
		{Name: "profile_url", Type: "text"},
	}
}

type row struct {
	ID               int64
	Name             string
	Occupation       string
	ConnectionStatus string
	ProfileURL       string
}

func readRows(t *testing.T, s *Store) []row {
	t.Helper()
	rows, err := s.DB().Query("SELECT id, name, occupation, connection_status, profile_url FROM connections ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var out []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.ID, &r.Name, &r.Occupation, &r.ConnectionStatus, &r.ProfileURL))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestNewStore_CreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "linkedin.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.CreateTable(context.Background(), "connections", testColumns(s)))
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestCreateTable_SecondCallFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateTable(ctx, "connections", testColumns(s)))
	err := s.CreateTable(ctx, "connections", testColumns(s))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreateTable_RejectsBadIdentifiers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.CreateTable(ctx, "connections; DROP TABLE x", testColumns(s))
	assert.ErrorIs(t, err, repository.ErrInvalidIdentifier)

	err = s.CreateTable(ctx, "connections", []entity.Column{{Name: "bad name", Type: "text"}})
	assert.ErrorIs(t, err, repository.ErrInvalidIdentifier)

	err = s.CreateTable(ctx, "connections", nil)
	assert.Error(t, err)
}

func TestInsert_ValuesAreBound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateTable(ctx, "connections", testColumns(s)))

	c := entity.Connection{
		Name:             `Robert'); DROP TABLE connections;--`,
		Occupation:       `"Quoted" :name @name $1 ?`,
		ConnectionStatus: "Connected 5 days ago",
		ProfileURL:       "https://www.linkedin.com/in/bobby-tables/",
	}
	require.NoError(t, s.Insert(ctx, "connections", c.Fields()))

	rows := readRows(t, s)
	require.Len(t, rows, 1)
	assert.Equal(t, row{
		ID:               1,
		Name:             c.Name,
		Occupation:       c.Occupation,
		ConnectionStatus: c.ConnectionStatus,
		ProfileURL:       c.ProfileURL,
	}, rows[0])
}

func TestInsert_AutoIncrementIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateTable(ctx, "connections", testColumns(s)))

	for _, name := range []string{"a", "b", "c"} {
		c := entity.Connection{Name: name, Occupation: "o", ConnectionStatus: "s", ProfileURL: "u"}
		require.NoError(t, s.Insert(ctx, "connections", c.Fields()))
	}

	rows := readRows(t, s)
	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.Equal(t, int64(i+1), r.ID)
	}
}

func TestInsert_DuplicatesAllowed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateTable(ctx, "connections", testColumns(s)))

	c := entity.Connection{Name: "same", ProfileURL: "https://www.linkedin.com/in/same/"}
	require.NoError(t, s.Insert(ctx, "connections", c.Fields()))
	require.NoError(t, s.Insert(ctx, "connections", c.Fields()))

	assert.Len(t, readRows(t, s), 2)
}

func TestInsert_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Insert(ctx, "connections", map[string]any{"name": "x"})
	require.Error(t, err, "table does not exist yet")

	require.NoError(t, s.CreateTable(ctx, "connections", testColumns(s)))
	assert.ErrorIs(t, s.Insert(ctx, "connections", map[string]any{"name) VALUES (1); --": "x"}), repository.ErrInvalidIdentifier)
	assert.Error(t, s.Insert(ctx, "connections", map[string]any{}))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.CreateTable(ctx, "connections", testColumns(s)))
	require.NoError(t, s.Insert(ctx, "connections", entity.Connection{Name: "mem"}.Fields()))
	assert.Len(t, readRows(t, s), 1)
}

func TestInsertQuery_Deterministic(t *testing.T) {
	query, keys, err := insertQuery("connections", entity.Connection{}.Fields())
	require.NoError(t, err)
	assert.Equal(t, []string{"connection_status", "name", "occupation", "profile_url"}, keys)
	assert.Equal(t,
		"INSERT INTO connections (connection_status, name, occupation, profile_url) VALUES (:connection_status, :name, :occupation, :profile_url)",
		query)
}
