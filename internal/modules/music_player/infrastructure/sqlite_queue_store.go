package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

const queueSchema = `
CREATE TABLE IF NOT EXISTS queue_entries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	guild_id      INTEGER NOT NULL,
	position      INTEGER NOT NULL,
	track_id      TEXT    NOT NULL,
	title         TEXT    NOT NULL,
	artist        TEXT    NOT NULL,
	canonical_url TEXT    NOT NULL,
	duration_ms   INTEGER NOT NULL,
	thumbnail_url TEXT    NOT NULL,
	source        TEXT    NOT NULL,
	requester_id  INTEGER NOT NULL,
	added_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_queue_entries_guild_position
	ON queue_entries (guild_id, position);

CREATE TABLE IF NOT EXISTS queue_positions (
	guild_id      INTEGER PRIMARY KEY,
	last_position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_snapshots (
	guild_id                INTEGER PRIMARY KEY,
	voice_channel_id        INTEGER NOT NULL,
	notification_channel_id INTEGER NOT NULL,
	loop_mode               TEXT    NOT NULL
);
`

// SQLiteQueueStore is a SQLite-backed implementation of ports.QueueStore
// and ports.SessionSnapshotStore. Positions come from a per-guild
// counter that only ever increments, so removals never cause reuse.
type SQLiteQueueStore struct {
	db *sql.DB
}

// NewSQLiteQueueStore opens (creating if needed) the database at path
// and applies the schema. Use ":memory:" for an ephemeral store.
func NewSQLiteQueueStore(path string) (*SQLiteQueueStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}

	// All access is serialized through the guild dispatchers, and SQLite
	// only supports one writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(queueSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply queue schema: %w", err)
	}

	return &SQLiteQueueStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteQueueStore) Close() error {
	return s.db.Close()
}

// Enqueue appends the entry to the guild's queue and returns it with ID
// and Position assigned.
func (s *SQLiteQueueStore) Enqueue(
	ctx context.Context,
	entry domain.QueueEntry,
) (domain.QueueEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.QueueEntry{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var position int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO queue_positions (guild_id, last_position) VALUES (?, 1)
		ON CONFLICT (guild_id) DO UPDATE SET last_position = last_position + 1
		RETURNING last_position`,
		int64(entry.GuildID),
	).Scan(&position)
	if err != nil {
		return domain.QueueEntry{}, fmt.Errorf("failed to assign queue position: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO queue_entries (
			guild_id, position, track_id, title, artist,
			canonical_url, duration_ms, thumbnail_url, source,
			requester_id, added_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(entry.GuildID),
		position,
		string(entry.Track.ID),
		entry.Track.Title,
		entry.Track.Artist,
		entry.Track.CanonicalURL,
		entry.Track.Duration.Milliseconds(),
		entry.Track.ThumbnailURL,
		string(entry.Track.Source),
		int64(entry.RequesterID),
		entry.AddedAt.UTC(),
	)
	if err != nil {
		return domain.QueueEntry{}, fmt.Errorf("failed to enqueue entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.QueueEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.QueueEntry{}, err
	}

	entry.ID = id
	entry.Position = position
	return entry, nil
}

// PeekNext returns the lowest-position entry without removing it, or nil
// when the queue is empty.
func (s *SQLiteQueueStore) PeekNext(
	ctx context.Context,
	guildID snowflake.ID,
) (*domain.QueueEntry, error) {
	row := s.db.QueryRowContext(ctx, selectEntryColumns+`
		WHERE guild_id = ?
		ORDER BY position ASC
		LIMIT 1`,
		int64(guildID),
	)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PopNext removes and returns the lowest-position entry, or nil when the
// queue is empty.
func (s *SQLiteQueueStore) PopNext(
	ctx context.Context,
	guildID snowflake.ID,
) (*domain.QueueEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, selectEntryColumns+`
		WHERE guild_id = ?
		ORDER BY position ASC
		LIMIT 1`,
		int64(guildID),
	)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM queue_entries WHERE id = ?`, entry.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to pop entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes the entry with the given ID from the guild's queue.
func (s *SQLiteQueueStore) Remove(
	ctx context.Context,
	guildID snowflake.ID,
	entryID int64,
) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM queue_entries WHERE guild_id = ? AND id = ?`,
		int64(guildID), entryID,
	)
	return err
}

// Clear removes all entries for the guild and returns how many were removed.
func (s *SQLiteQueueStore) Clear(ctx context.Context, guildID snowflake.ID) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM queue_entries WHERE guild_id = ?`,
		int64(guildID),
	)
	if err != nil {
		return 0, err
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// List returns all entries for the guild in position order.
func (s *SQLiteQueueStore) List(
	ctx context.Context,
	guildID snowflake.ID,
) ([]domain.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, selectEntryColumns+`
		WHERE guild_id = ?
		ORDER BY position ASC`,
		int64(guildID),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Count returns the number of queued entries for the guild.
func (s *SQLiteQueueStore) Count(ctx context.Context, guildID snowflake.ID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_entries WHERE guild_id = ?`,
		int64(guildID),
	).Scan(&count)
	return count, err
}

// SaveSnapshot inserts or updates the guild's snapshot.
func (s *SQLiteQueueStore) SaveSnapshot(ctx context.Context, snapshot ports.SessionSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_snapshots (
			guild_id, voice_channel_id, notification_channel_id, loop_mode
		) VALUES (?, ?, ?, ?)
		ON CONFLICT (guild_id) DO UPDATE SET
			voice_channel_id = excluded.voice_channel_id,
			notification_channel_id = excluded.notification_channel_id,
			loop_mode = excluded.loop_mode`,
		int64(snapshot.GuildID),
		int64(snapshot.VoiceChannelID),
		int64(snapshot.NotificationChannelID),
		snapshot.LoopMode.String(),
	)
	return err
}

// DeleteSnapshot removes the guild's snapshot.
func (s *SQLiteQueueStore) DeleteSnapshot(ctx context.Context, guildID snowflake.ID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_snapshots WHERE guild_id = ?`,
		int64(guildID),
	)
	return err
}

// ListSnapshots returns all persisted snapshots.
func (s *SQLiteQueueStore) ListSnapshots(ctx context.Context) ([]ports.SessionSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, voice_channel_id, notification_channel_id, loop_mode
		FROM session_snapshots`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snapshots []ports.SessionSnapshot
	for rows.Next() {
		var guildID, voiceChannelID, notificationChannelID int64
		var loopMode string
		if err := rows.Scan(&guildID, &voiceChannelID, &notificationChannelID, &loopMode); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, ports.SessionSnapshot{
			GuildID:               snowflake.ID(guildID),
			VoiceChannelID:        snowflake.ID(voiceChannelID),
			NotificationChannelID: snowflake.ID(notificationChannelID),
			LoopMode:              domain.ParseLoopMode(loopMode),
		})
	}
	return snapshots, rows.Err()
}

const selectEntryColumns = `
	SELECT id, guild_id, position, track_id, title, artist,
	       canonical_url, duration_ms, thumbnail_url, source,
	       requester_id, added_at
	FROM queue_entries`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.QueueEntry, error) {
	var (
		id, guildID, position, durationMS, requesterID int64
		trackID, title, artist, canonicalURL           string
		thumbnailURL, source                           string
		addedAt                                        time.Time
	)

	err := row.Scan(
		&id, &guildID, &position, &trackID, &title, &artist,
		&canonicalURL, &durationMS, &thumbnailURL, &source,
		&requesterID, &addedAt,
	)
	if err != nil {
		return nil, err
	}

	return &domain.QueueEntry{
		ID:       id,
		GuildID:  snowflake.ID(guildID),
		Position: position,
		Track: domain.Track{
			ID:           domain.TrackID(trackID),
			Title:        title,
			Artist:       artist,
			CanonicalURL: canonicalURL,
			Duration:     time.Duration(durationMS) * time.Millisecond,
			ThumbnailURL: thumbnailURL,
			Source:       domain.TrackSource(source),
		},
		RequesterID: snowflake.ID(requesterID),
		AddedAt:     addedAt,
	}, nil
}

// Ensure SQLiteQueueStore implements both store interfaces.
var (
	_ ports.QueueStore           = (*SQLiteQueueStore)(nil)
	_ ports.SessionSnapshotStore = (*SQLiteQueueStore)(nil)
)
