package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver registered as 'pgx'
	_ "modernc.org/sqlite"
)

// dialect holds what differs between the SQL backends
type dialect struct {
	name     string
	driver   string
	idColumn string
	numbered bool // $1, $2... placeholders
}

var (
	sqliteDialect   = dialect{name: "SQLite", driver: "sqlite", idColumn: "id INTEGER PRIMARY KEY AUTOINCREMENT"}
	postgresDialect = dialect{name: "PostgreSQL", driver: "pgx", idColumn: "id SERIAL PRIMARY KEY", numbered: true}
)

// Repository is a Store backed by SQLite or PostgreSQL
type Repository struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLiteRepository opens (and creates if needed) a SQLite database file
func NewSQLiteRepository(ctx context.Context, dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return openRepository(ctx, sqliteDialect, dbPath)
}

// NewPostgresRepository connects to PostgreSQL through the pgx driver
func NewPostgresRepository(ctx context.Context, dsn string) (*Repository, error) {
	return openRepository(ctx, postgresDialect, dsn)
}

func openRepository(ctx context.Context, d dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d.driver == sqliteDialect.driver {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db, dialect: d}

	// Run migrations
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Backend implements Store
func (r *Repository) Backend() string {
	return r.dialect.name
}

// migrate creates the database schema
func (r *Repository) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS streams (
			` + r.dialect.idColumn + `,
			username TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(username, guild_id, channel_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_streams_channel ON streams(guild_id, channel_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// rebind rewrites '?' placeholders for drivers that number them
func (r *Repository) rebind(query string) string {
	if !r.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Add implements Store
func (r *Repository) Add(ctx context.Context, sub StreamSubscription) error {
	sub, err := sub.normalize()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		r.rebind(`INSERT INTO streams (username, guild_id, channel_id) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`),
		sub.Username, sub.GuildID, sub.ChannelID,
	)
	if err != nil {
		return fmt.Errorf("failed to add stream: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Remove implements Store
func (r *Repository) Remove(ctx context.Context, sub StreamSubscription) error {
	sub.Username = NormalizeUsername(sub.Username)

	result, err := r.db.ExecContext(ctx,
		r.rebind(`DELETE FROM streams WHERE username = ? AND guild_id = ? AND channel_id = ?`),
		sub.Username, sub.GuildID, sub.ChannelID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove stream: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll implements Store
func (r *Repository) ListAll(ctx context.Context) ([]StreamSubscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT username, guild_id, channel_id FROM streams ORDER BY guild_id, channel_id, username`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []StreamSubscription
	for rows.Next() {
		var s StreamSubscription
		if err := rows.Scan(&s.Username, &s.GuildID, &s.ChannelID); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// ListChannel implements Store, newest first
func (r *Repository) ListChannel(ctx context.Context, guildID, channelID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		r.rebind(`SELECT username FROM streams WHERE guild_id = ? AND channel_id = ? ORDER BY added_at DESC, id DESC`),
		guildID, channelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		usernames = append(usernames, u)
	}

	return usernames, rows.Err()
}

// Clear implements Store
func (r *Repository) Clear(ctx context.Context, guildID, channelID string) (int, error) {
	result, err := r.db.ExecContext(ctx,
		r.rebind(`DELETE FROM streams WHERE guild_id = ? AND channel_id = ?`),
		guildID, channelID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear channel: %w", err)
	}

	n, err := result.RowsAffected()
	return int(n), err
}

// Count implements Store
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM streams`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
