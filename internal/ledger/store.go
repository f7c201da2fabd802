package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"autolist/internal/config"
	"autolist/internal/logging"
)

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database. A database that cannot
// be read or carries an unexpected schema is moved aside and replaced with a
// fresh one; the defect is logged, never fatal.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	path := cfg.LedgerPath()
	store, err := openAt(path)
	if err == nil {
		return store, nil
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	logger.Warn("ledger database unusable; starting fresh",
		logging.String("path", path),
		logging.String("moved_to", aside),
		logging.Error(err),
	)
	if renameErr := os.Rename(path, aside); renameErr != nil {
		return nil, fmt.Errorf("move corrupt ledger aside: %w", renameErr)
	}
	return openAt(path)
}

func openAt(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Contains reports whether the track id has already been processed.
func (s *Store) Contains(ctx context.Context, trackID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM processed_tracks WHERE track_id = ?", trackID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return true, nil
}

// Get returns the entry for a track id, or nil when absent.
func (s *Store) Get(ctx context.Context, trackID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT track_id, processed_at, outcome, playlist_id, reason, track_name, artists_json
		FROM processed_tracks WHERE track_id = ?`, trackID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Record durably stores an entry. Entries are write-once: recording an id
// that already exists leaves the original untouched.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}

	artistsJSON, err := json.Marshal(entry.Artists)
	if err != nil {
		return fmt.Errorf("marshal artists: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO processed_tracks (track_id, processed_at, outcome, playlist_id, reason, track_name, artists_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_id) DO NOTHING`,
		entry.TrackID,
		entry.ProcessedAt.UTC().Format(time.RFC3339Nano),
		string(entry.Outcome),
		nullableString(entry.PlaylistID),
		entry.Reason,
		entry.TrackName,
		string(artistsJSON),
	)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	return nil
}

// Forget removes one entry so the track is classified again on the next run.
// This is the manual retry path for error outcomes.
func (s *Store) Forget(ctx context.Context, trackID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM processed_tracks WHERE track_id = ?", trackID)
	if err != nil {
		return false, fmt.Errorf("forget entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of ledger entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM processed_tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// Summary returns per-outcome entry counts.
func (s *Store) Summary(ctx context.Context) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT outcome, COUNT(1) FROM processed_tracks GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("summarize ledger: %w", err)
	}
	defer rows.Close()

	summary := make(map[Outcome]int, len(allOutcomes))
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary[Outcome(outcome)] = count
	}
	return summary, rows.Err()
}

// Entries lists ledger entries, newest first. An empty outcome lists all.
func (s *Store) Entries(ctx context.Context, outcome Outcome) ([]Entry, error) {
	query := `
		SELECT track_id, processed_at, outcome, playlist_id, reason, track_name, artists_json
		FROM processed_tracks`
	args := []any{}
	if outcome != "" {
		query += " WHERE outcome = ?"
		args = append(args, string(outcome))
	}
	query += " ORDER BY processed_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Meta returns run bookkeeping and the baseline marker.
func (s *Store) Meta(ctx context.Context) (Meta, error) {
	var meta Meta
	var lastRun sql.NullString
	var baselineDate sql.NullString
	var baselineIndex sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		"SELECT last_run, total_runs, baseline_date, baseline_index FROM ledger_meta WHERE id = 1",
	).Scan(&lastRun, &meta.TotalRuns, &baselineDate, &baselineIndex)
	if err != nil {
		return Meta{}, fmt.Errorf("read ledger meta: %w", err)
	}

	if lastRun.Valid && lastRun.String != "" {
		if ts, parseErr := time.Parse(time.RFC3339Nano, lastRun.String); parseErr == nil {
			meta.LastRun = &ts
		}
	}
	if baselineDate.Valid {
		meta.BaselineDate = baselineDate.String
	}
	if baselineIndex.Valid {
		idx := int(baselineIndex.Int64)
		meta.BaselineIndex = &idx
	}
	return meta, nil
}

// SetBaselineDate records the date-mode baseline marker. It returns false
// without changes when a baseline of either mode is already set.
func (s *Store) SetBaselineDate(ctx context.Context, date string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ledger_meta SET baseline_date = ?
		WHERE id = 1 AND baseline_date IS NULL AND baseline_index IS NULL`, date)
	if err != nil {
		return false, fmt.Errorf("set baseline date: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetBaselineIndex records the index-mode baseline marker. It returns false
// without changes when a baseline of either mode is already set.
func (s *Store) SetBaselineIndex(ctx context.Context, index int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ledger_meta SET baseline_index = ?
		WHERE id = 1 AND baseline_date IS NULL AND baseline_index IS NULL`, index)
	if err != nil {
		return false, fmt.Errorf("set baseline index: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// FinishRun stamps the run completion time and bumps the run counter.
func (s *Store) FinishRun(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE ledger_meta SET last_run = ?, total_runs = total_runs + 1 WHERE id = 1",
		at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Export snapshots the full logical ledger state.
func (s *Store) Export(ctx context.Context) (*State, error) {
	entries, err := s.Entries(ctx, "")
	if err != nil {
		return nil, err
	}
	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}

	state := &State{
		ProcessedItems: make(map[string]StateEntry, len(entries)),
		LastRun:        meta.LastRun,
		TotalRuns:      meta.TotalRuns,
		BaselineIndex:  meta.BaselineIndex,
	}
	if meta.BaselineDate != "" {
		date := meta.BaselineDate
		state.BaselineDate = &date
	}
	for _, entry := range entries {
		var playlistID *string
		if entry.PlaylistID != "" {
			id := entry.PlaylistID
			playlistID = &id
		}
		state.ProcessedItems[entry.TrackID] = StateEntry{
			ProcessedAt: entry.ProcessedAt,
			Outcome:     entry.Outcome,
			PlaylistID:  playlistID,
			Reason:      entry.Reason,
			TrackName:   entry.TrackName,
			Artists:     entry.Artists,
		}
	}
	return state, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var processedAt string
	var playlistID sql.NullString
	var artistsJSON string

	err := row.Scan(&entry.TrackID, &processedAt, (*string)(&entry.Outcome), &playlistID, &entry.Reason, &entry.TrackName, &artistsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	if ts, parseErr := time.Parse(time.RFC3339Nano, processedAt); parseErr == nil {
		entry.ProcessedAt = ts
	}
	if playlistID.Valid {
		entry.PlaylistID = playlistID.String
	}
	if artistsJSON != "" {
		if err := json.Unmarshal([]byte(artistsJSON), &entry.Artists); err != nil {
			return nil, fmt.Errorf("decode artists for %s: %w", entry.TrackID, err)
		}
	}
	return &entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
