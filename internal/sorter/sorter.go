package sorter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"autolist/internal/config"
	"autolist/internal/genres"
	"autolist/internal/ledger"
	"autolist/internal/logging"
	"autolist/internal/notifications"
	"autolist/internal/rules"
	"autolist/internal/spotify"
)

// BaselineMode selects how pre-existing tracks are marked as already sorted.
type BaselineMode string

const (
	// BaselineAuto lets the run decide: date mode with today's date, applied
	// only when the ledger has no baseline yet.
	BaselineAuto BaselineMode = ""
	// BaselineByDate marks tracks saved strictly before a calendar date.
	BaselineByDate BaselineMode = "date"
	// BaselineByIndex marks the first N tracks in newest-first order.
	BaselineByIndex BaselineMode = "index"
)

// ParseBaselineMode validates a mode string from the CLI.
func ParseBaselineMode(value string) (BaselineMode, error) {
	switch BaselineMode(value) {
	case BaselineByDate, BaselineByIndex:
		return BaselineMode(value), nil
	}
	return "", fmt.Errorf("sorter: unknown baseline mode %q (want date or index)", value)
}

// Options tunes a single run.
type Options struct {
	// Mode requests explicit baseline initialization. BaselineAuto means a
	// plain run: date-by-today baseline on the first run ever, nothing after.
	Mode BaselineMode
	// Date is the ISO date for date mode. Empty defaults to today.
	Date string
	// Index is the position cutoff for index mode. Nil defaults to the full
	// current library count.
	Index *int
	// BaselineOnly stops after baseline initialization without classifying
	// anything or counting a run.
	BaselineOnly bool
}

// Sorter drives one incremental run end to end. It owns no goroutines; every
// track is processed sequentially in enumeration order.
type Sorter struct {
	cfg      *config.Config
	client   spotify.Client
	store    *ledger.Store
	matcher  *rules.Matcher
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time
}

// New wires a sorter from its collaborators.
func New(cfg *config.Config, client spotify.Client, store *ledger.Store, notifier notifications.Service, logger *slog.Logger) (*Sorter, error) {
	if cfg == nil || client == nil || store == nil {
		return nil, errors.New("sorter: requires config, client, and store")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	matcher := rules.NewMatcher(cfg)
	if matcher.Len() == 0 {
		return nil, ErrNoRules
	}
	return &Sorter{
		cfg:      cfg,
		client:   client,
		store:    store,
		matcher:  matcher,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "sorter"),
		now:      time.Now,
	}, nil
}

// Run executes one run under the process lock and returns its summary.
// Enumeration and ledger failures abort the run; per-track write failures are
// recorded as error outcomes and the run continues.
func (s *Sorter) Run(ctx context.Context, opts Options) (*Stats, error) {
	start := s.now()
	runID := uuid.NewString()
	log := s.logger.With(logging.String(logging.FieldRunID, runID))

	lock := flock.New(s.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	if err := s.client.CheckAuth(ctx); err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	meta, err := s.store.Meta(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger metadata: %w", err)
	}

	tracks, err := s.client.LikedTracks(ctx)
	if err != nil {
		s.notifyError(ctx, err, "library enumeration")
		return nil, fmt.Errorf("enumerate liked tracks: %w", err)
	}
	log.Info("library enumerated", logging.Int("total", len(tracks)))

	stats := &Stats{
		RunID:       runID,
		TotalLiked:  len(tracks),
		RuleMatches: make(map[string]int),
	}

	if err := s.applyBaseline(ctx, log, meta, tracks, opts, stats); err != nil {
		return nil, err
	}
	if opts.BaselineOnly {
		stats.Duration = s.now().Sub(start)
		log.Info("baseline initialization finished",
			logging.Int("baseline", stats.Baseline),
			logging.Duration("duration", stats.Duration))
		return stats, nil
	}

	newTracks, err := s.diff(ctx, tracks)
	if err != nil {
		return nil, err
	}
	stats.NewTracks = len(newTracks)
	log.Info("ledger diff complete",
		logging.Int("new", len(newTracks)),
		logging.Int("total", len(tracks)))

	if len(newTracks) > 0 {
		if err := s.notifier.NotifyRunStarted(ctx, len(newTracks)); err != nil {
			log.Warn("run-started notification failed", logging.Error(err))
		}
		if err := s.process(ctx, log, newTracks, stats); err != nil {
			return nil, err
		}
	}

	if err := s.store.FinishRun(ctx, s.now()); err != nil {
		return nil, fmt.Errorf("record run completion: %w", err)
	}

	stats.Duration = s.now().Sub(start)
	log.Info("run finished",
		logging.Int("sorted", stats.Sorted),
		logging.Int("duplicates", stats.Duplicates),
		logging.Int("skipped", stats.Skipped),
		logging.Int("errors", stats.Errors),
		logging.Duration("duration", stats.Duration))

	if len(newTracks) > 0 {
		if err := s.notifier.NotifyRunCompleted(ctx, stats.Sorted, stats.Duplicates, stats.Skipped, stats.Errors, stats.Duration); err != nil {
			log.Warn("run-completed notification failed", logging.Error(err))
		}
	}
	return stats, nil
}

// applyBaseline performs one-time baseline initialization. Explicit requests
// against an already-initialized ledger are no-ops; plain runs auto-baseline
// by today's date only when the ledger has never been initialized.
func (s *Sorter) applyBaseline(ctx context.Context, log *slog.Logger, meta ledger.Meta, tracks []spotify.Track, opts Options, stats *Stats) error {
	if meta.HasBaseline() {
		if opts.Mode != BaselineAuto {
			log.Warn("baseline already initialized, ignoring request",
				logging.String("mode", string(opts.Mode)))
		}
		return nil
	}

	mode := opts.Mode
	if mode == BaselineAuto {
		mode = BaselineByDate
	}

	switch mode {
	case BaselineByDate:
		date := opts.Date
		if date == "" {
			date = s.now().UTC().Format("2006-01-02")
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("invalid baseline date %q: %w", date, err)
		}
		for _, track := range tracks {
			if track.AddedAt.UTC().Format("2006-01-02") < date {
				if err := s.recordBaseline(ctx, track); err != nil {
					return err
				}
				stats.Baseline++
			}
		}
		if _, err := s.store.SetBaselineDate(ctx, date); err != nil {
			return fmt.Errorf("persist baseline date: %w", err)
		}
		log.Info("baseline initialized",
			logging.String("mode", "date"),
			logging.String("date", date),
			logging.Int("marked", stats.Baseline))
	case BaselineByIndex:
		cutoff := len(tracks)
		if opts.Index != nil {
			cutoff = *opts.Index
		}
		if cutoff < 0 {
			return fmt.Errorf("invalid baseline index %d", cutoff)
		}
		for position, track := range tracks {
			if position >= cutoff {
				break
			}
			if err := s.recordBaseline(ctx, track); err != nil {
				return err
			}
			stats.Baseline++
		}
		if _, err := s.store.SetBaselineIndex(ctx, cutoff); err != nil {
			return fmt.Errorf("persist baseline index: %w", err)
		}
		log.Info("baseline initialized",
			logging.String("mode", "index"),
			logging.Int("index", cutoff),
			logging.Int("marked", stats.Baseline))
	}
	return nil
}

func (s *Sorter) recordBaseline(ctx context.Context, track spotify.Track) error {
	entry := ledger.Entry{
		TrackID:     track.ID,
		ProcessedAt: s.now(),
		Outcome:     ledger.OutcomeBaseline,
		Reason:      "baseline initialization",
		TrackName:   track.Name,
		Artists:     track.ArtistNames(),
	}
	if err := s.store.Record(ctx, entry); err != nil {
		return fmt.Errorf("record baseline for %s: %w", track.ID, err)
	}
	return nil
}

// diff returns the tracks not yet present in the ledger, preserving
// newest-first enumeration order.
func (s *Sorter) diff(ctx context.Context, tracks []spotify.Track) ([]spotify.Track, error) {
	fresh := make([]spotify.Track, 0, len(tracks))
	for _, track := range tracks {
		seen, err := s.store.Contains(ctx, track.ID)
		if err != nil {
			return nil, fmt.Errorf("check ledger for %s: %w", track.ID, err)
		}
		if !seen {
			fresh = append(fresh, track)
		}
	}
	return fresh, nil
}

// process runs the per-track pipeline over every new track.
func (s *Sorter) process(ctx context.Context, log *slog.Logger, tracks []spotify.Track, stats *Stats) error {
	cache := genres.NewCache(s.client, s.cfg.Sorting.BatchSize, log)
	membership := NewMembershipCache(s.client, log)
	itemDelay := time.Duration(s.cfg.Sorting.ItemDelayMS) * time.Millisecond

	// Warm the genre cache across the whole run so lookups batch across
	// tracks instead of one request per track.
	artistIDs := make([]string, 0, len(tracks))
	for _, track := range tracks {
		artistIDs = append(artistIDs, track.ArtistIDs()...)
	}
	cache.Resolve(ctx, artistIDs)

	for position, track := range tracks {
		if position > 0 && itemDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(itemDelay):
			}
		}
		if err := s.processTrack(ctx, log, cache, membership, track, stats); err != nil {
			return err
		}
	}
	return nil
}

// processTrack classifies one track and records its outcome. Only
// authorization failures and ledger write failures propagate.
func (s *Sorter) processTrack(ctx context.Context, log *slog.Logger, cache *genres.Cache, membership *MembershipCache, track spotify.Track, stats *Stats) error {
	trackLog := log.With(logging.String(logging.FieldTrackID, track.ID))

	entry := ledger.Entry{
		TrackID:     track.ID,
		ProcessedAt: s.now(),
		TrackName:   track.Name,
		Artists:     track.ArtistNames(),
	}

	trackGenres := cache.TrackGenres(ctx, track)
	if len(trackGenres) == 0 {
		entry.Outcome = ledger.OutcomeSkipped
		entry.Reason = "no genres resolved"
		stats.Skipped++
		return s.recordOutcome(ctx, trackLog, entry)
	}

	match := s.matcher.Match(trackGenres)
	if match == nil {
		entry.Outcome = ledger.OutcomeSkipped
		entry.Reason = "no rule matched"
		stats.Skipped++
		return s.recordOutcome(ctx, trackLog, entry)
	}
	stats.RuleMatches[match.RuleGenre]++
	trackLog = trackLog.With(logging.String(logging.FieldPlaylist, match.PlaylistID))

	present, err := membership.Contains(ctx, match.PlaylistID, track.ID)
	if err != nil {
		if errors.Is(err, spotify.ErrUnauthorized) {
			return fmt.Errorf("check membership for %s: %w", track.ID, err)
		}
		entry.Outcome = ledger.OutcomeError
		entry.PlaylistID = match.PlaylistID
		entry.Reason = fmt.Sprintf("membership check failed: %v", err)
		stats.Errors++
		trackLog.Error("membership check failed", logging.Error(err))
		return s.recordOutcome(ctx, trackLog, entry)
	}
	if present {
		entry.Outcome = ledger.OutcomeDuplicate
		entry.PlaylistID = match.PlaylistID
		entry.Reason = fmt.Sprintf("already in playlist via %s genre %q", match.Kind, match.MatchedGenre)
		stats.Duplicates++
		return s.recordOutcome(ctx, trackLog, entry)
	}

	if err := s.client.AddToPlaylist(ctx, match.PlaylistID, track.ID); err != nil {
		if errors.Is(err, spotify.ErrUnauthorized) {
			return fmt.Errorf("add %s to playlist: %w", track.ID, err)
		}
		entry.Outcome = ledger.OutcomeError
		entry.PlaylistID = match.PlaylistID
		entry.Reason = fmt.Sprintf("add failed: %v", err)
		stats.Errors++
		trackLog.Error("playlist add failed", logging.Error(err))
		s.notifyError(ctx, err, fmt.Sprintf("adding %q", track.Name))
		return s.recordOutcome(ctx, trackLog, entry)
	}

	membership.Invalidate(match.PlaylistID)
	entry.Outcome = ledger.OutcomeSorted
	entry.PlaylistID = match.PlaylistID
	entry.Reason = fmt.Sprintf("matched rule %q on genre %q (%s)", match.RuleGenre, match.MatchedGenre, match.Kind)
	stats.Sorted++
	trackLog.Info("track sorted",
		logging.String("genre", match.MatchedGenre),
		logging.String("rule", match.RuleGenre))
	return s.recordOutcome(ctx, trackLog, entry)
}

// recordOutcome persists one entry. Ledger writes are the run's durability
// contract, so failure here aborts the run.
func (s *Sorter) recordOutcome(ctx context.Context, log *slog.Logger, entry ledger.Entry) error {
	if err := s.store.Record(ctx, entry); err != nil {
		return fmt.Errorf("record outcome for %s: %w", entry.TrackID, err)
	}
	log.Debug("outcome recorded", logging.String(logging.FieldOutcome, string(entry.Outcome)))
	return nil
}

func (s *Sorter) notifyError(ctx context.Context, err error, label string) {
	if notifyErr := s.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		s.logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}
