package usecase

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/extractor"
)

type fakeSynchronizer struct {
	result *entity.SyncResult
	err    error
}

func (f *fakeSynchronizer) Sync(ctx context.Context, creds Credentials) (*entity.SyncResult, error) {
	return f.result, f.err
}

type fakeSnapshotRepo struct {
	saved  []entity.Snapshot
	expiry time.Duration
	err    error
}

func (f *fakeSnapshotRepo) Save(ctx context.Context, snapshot entity.Snapshot, expiry time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, snapshot)
	f.expiry = expiry
	return nil
}

func syncResult(t *testing.T) *entity.SyncResult {
	return &entity.SyncResult{
		Profile:     entity.Snapshot{HTML: readFixture(t, "own_profile.html"), URL: testProfileURL},
		Connections: entity.Snapshot{HTML: readFixture(t, "connections.html"), URL: testConnections},
		Console: []entity.ConsoleEntry{
			{Level: "warning", Source: "console-api", Text: "first"},
			{Level: "error", Source: "network", Text: "second"},
		},
	}
}

type scrapeHarness struct {
	scraper   *Scraper
	rows      func() []storedRow
	logPath   string
	snapshots *fakeSnapshotRepo
	progress  *Progress
}

func newScrapeHarness(t *testing.T, sync PageSynchronizer) *scrapeHarness {
	t.Helper()
	ext, err := extractor.New(testBase)
	require.NoError(t, err)

	store := newTestStore(t)
	progress := NewProgress()
	snapshots := &fakeSnapshotRepo{}
	logPath := filepath.Join(t.TempDir(), "linkedin.log")

	s := NewScraper(sync, ext, NewConnectionWriter(store, progress), snapshots,
		ScrapeConfig{LogPath: logPath, SnapshotTTL: 48 * time.Hour}, progress)
	return &scrapeHarness{
		scraper:   s,
		rows:      func() []storedRow { return readConnections(t, store) },
		logPath:   logPath,
		snapshots: snapshots,
		progress:  progress,
	}
}

func TestScraper_RunPersistsProfileThenConnections(t *testing.T) {
	h := newScrapeHarness(t, &fakeSynchronizer{result: syncResult(t)})

	summary, err := h.scraper.Run(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.Equal(t, RunSummary{ProfileRecords: 1, ConnectionRecords: 3, ConsoleEntries: 2}, summary)

	rows := h.rows()
	require.Len(t, rows, 4)
	assert.Equal(t, storedRow{ID: 1, Connection: entity.Connection{
		Name:             "Jane Doe",
		Occupation:       "Staff Engineer at Example Corp",
		ConnectionStatus: entity.SelfStatus,
		ProfileURL:       testProfileURL,
	}}, rows[0])

	names := []string{rows[1].Name, rows[2].Name, rows[3].Name}
	assert.Equal(t, []string{"Ada Lovelace", "Grace  Hopper", "Dan O'Brien"}, names)
	for i, r := range rows {
		assert.Equal(t, int64(i+1), r.ID)
	}
	assert.Equal(t, "DBA; DROP TABLE connections; --", rows[3].Occupation)

	snap := h.progress.Snapshot()
	assert.Equal(t, PhaseDone, snap.Phase)
	assert.Equal(t, 4, snap.RowsSaved)
	assert.NotNil(t, snap.FinishedAt)
}

func TestScraper_RunWritesConsoleLogAndArchives(t *testing.T) {
	h := newScrapeHarness(t, &fakeSynchronizer{result: syncResult(t)})

	_, err := h.scraper.Run(context.Background(), Credentials{})
	require.NoError(t, err)

	f, err := os.Open(h.logPath)
	require.NoError(t, err)
	defer f.Close()

	var got []entity.ConsoleEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e entity.ConsoleEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		got = append(got, e)
	}
	require.NoError(t, sc.Err())
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "network", got[1].Source)

	require.Len(t, h.snapshots.saved, 2)
	assert.Equal(t, testProfileURL, h.snapshots.saved[0].URL)
	assert.Equal(t, testConnections, h.snapshots.saved[1].URL)
	assert.Equal(t, 48*time.Hour, h.snapshots.expiry)
}

func TestScraper_ArchiveFailureIsNotFatal(t *testing.T) {
	h := newScrapeHarness(t, &fakeSynchronizer{result: syncResult(t)})
	h.snapshots.err = errors.New("redis unavailable")

	_, err := h.scraper.Run(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.Len(t, h.rows(), 4)
}

func TestScraper_SyncFailureWritesNothing(t *testing.T) {
	syncErr := errors.New("login timed out")
	h := newScrapeHarness(t, &fakeSynchronizer{err: syncErr})

	_, err := h.scraper.Run(context.Background(), Credentials{})
	require.ErrorIs(t, err, syncErr)

	_, statErr := os.Stat(h.logPath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
	assert.Empty(t, h.snapshots.saved)

	snap := h.progress.Snapshot()
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Contains(t, snap.Error, "login timed out")
}

func TestScraper_ExtractionFailureStoresNoRows(t *testing.T) {
	result := syncResult(t)
	result.Connections.HTML = readFixture(t, "connections_missing_badge.html")
	h := newScrapeHarness(t, &fakeSynchronizer{result: result})

	_, err := h.scraper.Run(context.Background(), Credentials{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract connections")

	assert.Equal(t, TableUninitialized, h.scraper.writer.State())
	assert.Equal(t, PhaseFailed, h.progress.Snapshot().Phase)
}

func TestScraper_EndToEndWithScriptedBrowser(t *testing.T) {
	b := scriptedBrowser(t)
	sync := newTestSynchronizer(b, &recordingSleeper{})
	h := newScrapeHarness(t, sync)

	summary, err := h.scraper.Run(context.Background(), Credentials{Username: "jane@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProfileRecords)
	assert.Equal(t, 3, summary.ConnectionRecords)
	assert.True(t, b.closed)

	rows := h.rows()
	require.Len(t, rows, 4)
	assert.Equal(t, testProfileURL, rows[0].ProfileURL)
	assert.Equal(t, entity.SelfStatus, rows[0].ConnectionStatus)
}

func TestWriteConsoleLog_ReplacesPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkedin.log")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	require.NoError(t, WriteConsoleLog(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestRemoveStale(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "linkedin.db")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	require.NoError(t, RemoveStale(existing, filepath.Join(dir, "missing.log"), ""))
	_, err := os.Stat(existing)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestProgress_FinishWithoutError(t *testing.T) {
	p := NewProgress()
	p.SetPhase(PhaseScroll)
	p.ScrollIteration(3, 12000)
	p.RowSaved()
	p.Finish(nil)

	snap := p.Snapshot()
	assert.Equal(t, PhaseDone, snap.Phase)
	assert.Equal(t, 3, snap.ScrollIterations)
	assert.Equal(t, int64(12000), snap.PageHeight)
	assert.Equal(t, 1, snap.RowsSaved)
	assert.Empty(t, snap.Error)
}
