package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	username     TEXT NOT NULL,
	display_name TEXT,
	avatar       TEXT,
	locale       TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS servers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	icon_url   TEXT,
	banner_url TEXT,
	locale     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS logs (
	id         TEXT PRIMARY KEY,
	server_id  TEXT NOT NULL REFERENCES servers (id) ON DELETE CASCADE,
	messages   TEXT,
	roles      TEXT,
	"join"     TEXT,
	leaves     TEXT,
	voice      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS logs_server_id_idx ON logs (server_id);
`

// PostgresConfig configures the connection pool.
type PostgresConfig struct {
	URL            string
	MaxConnections int32
	IdleTimeout    time.Duration
}

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to the database, verifies the connection and bootstraps the
// schema. The caller owns the returned handle and must Close it.
func Open(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close releases every pooled connection.
func (p *Postgres) Close() {
	p.pool.Close()
}

const userColumns = `id, username, display_name, avatar, locale, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Avatar, &u.Locale, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveUser upserts a user profile.
func (p *Postgres) SaveUser(ctx context.Context, in UserInput) (*User, error) {
	if in.ID == "" {
		return nil, ErrMissingID
	}

	row := p.pool.QueryRow(ctx, `
INSERT INTO users (id, username, display_name, avatar, locale)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET username     = EXCLUDED.username,
    display_name = EXCLUDED.display_name,
    avatar       = EXCLUDED.avatar,
    locale       = EXCLUDED.locale,
    updated_at   = now()
RETURNING `+userColumns,
		in.ID, in.Username, in.DisplayName, in.Avatar, in.Locale)

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("save user %s: %w", in.ID, err)
	}
	return u, nil
}

// UpdateUser changes the given fields of an existing user.
func (p *Postgres) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	if upd.empty() {
		return nil, nil
	}

	row := p.pool.QueryRow(ctx, `
UPDATE users
SET username     = COALESCE($2, username),
    display_name = CASE WHEN $3::text IS NULL THEN display_name ELSE NULLIF($3, '') END,
    avatar       = CASE WHEN $4::text IS NULL THEN avatar ELSE NULLIF($4, '') END,
    locale       = CASE WHEN $5::text IS NULL THEN locale ELSE NULLIF($5, '') END,
    updated_at   = now()
WHERE id = $1
RETURNING `+userColumns,
		id, upd.Username, upd.DisplayName, upd.Avatar, upd.Locale)

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	return u, nil
}

// GetUser returns the user with id, or nil.
func (p *Postgres) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// DeleteUser removes the user with id and reports whether it existed.
func (p *Postgres) DeleteUser(ctx context.Context, id string) (bool, error) {
	return p.delete(ctx, "users", id)
}

const serverColumns = `id, name, icon_url, banner_url, locale, created_at`

func scanServer(row pgx.Row) (*Server, error) {
	var s Server
	err := row.Scan(&s.ID, &s.Name, &s.IconURL, &s.BannerURL, &s.Locale, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveServer upserts a server profile.
func (p *Postgres) SaveServer(ctx context.Context, in ServerInput) (*Server, error) {
	if in.ID == "" {
		return nil, ErrMissingID
	}

	row := p.pool.QueryRow(ctx, `
INSERT INTO servers (id, name, icon_url, banner_url, locale)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name       = EXCLUDED.name,
    icon_url   = EXCLUDED.icon_url,
    banner_url = EXCLUDED.banner_url,
    locale     = EXCLUDED.locale
RETURNING `+serverColumns,
		in.ID, in.Name, in.IconURL, in.BannerURL, in.Locale)

	s, err := scanServer(row)
	if err != nil {
		return nil, fmt.Errorf("save server %s: %w", in.ID, err)
	}
	return s, nil
}

// UpdateServer changes the given fields of an existing server.
func (p *Postgres) UpdateServer(ctx context.Context, id string, upd ServerUpdate) (*Server, error) {
	if upd.empty() {
		return nil, nil
	}

	row := p.pool.QueryRow(ctx, `
UPDATE servers
SET name       = COALESCE($2, name),
    icon_url   = CASE WHEN $3::text IS NULL THEN icon_url ELSE NULLIF($3, '') END,
    banner_url = CASE WHEN $4::text IS NULL THEN banner_url ELSE NULLIF($4, '') END,
    locale     = CASE WHEN $5::text IS NULL THEN locale ELSE NULLIF($5, '') END
WHERE id = $1
RETURNING `+serverColumns,
		id, upd.Name, upd.IconURL, upd.BannerURL, upd.Locale)

	s, err := scanServer(row)
	if err != nil {
		return nil, fmt.Errorf("update server %s: %w", id, err)
	}
	return s, nil
}

// GetServer returns the server with id, or nil.
func (p *Postgres) GetServer(ctx context.Context, id string) (*Server, error) {
	s, err := scanServer(p.pool.QueryRow(ctx, `SELECT `+serverColumns+` FROM servers WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get server %s: %w", id, err)
	}
	return s, nil
}

// DeleteServer removes the server and its logs.
func (p *Postgres) DeleteServer(ctx context.Context, id string) (bool, error) {
	return p.delete(ctx, "servers", id)
}

const logColumns = `id, server_id, messages, roles, "join", leaves, voice, created_at`

func scanLog(row pgx.Row) (*Log, error) {
	var l Log
	err := row.Scan(&l.ID, &l.ServerID, &l.Messages, &l.Roles, &l.Join, &l.Leaves, &l.Voice, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// SaveLog upserts a log configuration.
func (p *Postgres) SaveLog(ctx context.Context, in LogInput) (*Log, error) {
	if in.ID == "" || in.ServerID == "" {
		return nil, ErrMissingID
	}

	row := p.pool.QueryRow(ctx, `
INSERT INTO logs (id, server_id, messages, roles, "join", leaves, voice)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET server_id = EXCLUDED.server_id,
    messages  = EXCLUDED.messages,
    roles     = EXCLUDED.roles,
    "join"    = EXCLUDED."join",
    leaves    = EXCLUDED.leaves,
    voice     = EXCLUDED.voice
RETURNING `+logColumns,
		in.ID, in.ServerID, in.Messages, in.Roles, in.Join, in.Leaves, in.Voice)

	l, err := scanLog(row)
	if err != nil {
		return nil, fmt.Errorf("save log %s: %w", in.ID, err)
	}
	return l, nil
}

// UpdateLog changes the given channels of an existing log configuration.
func (p *Postgres) UpdateLog(ctx context.Context, id string, upd LogUpdate) (*Log, error) {
	if upd.empty() {
		return nil, nil
	}

	row := p.pool.QueryRow(ctx, `
UPDATE logs
SET messages = CASE WHEN $2::text IS NULL THEN messages ELSE NULLIF($2, '') END,
    roles    = CASE WHEN $3::text IS NULL THEN roles ELSE NULLIF($3, '') END,
    "join"   = CASE WHEN $4::text IS NULL THEN "join" ELSE NULLIF($4, '') END,
    leaves   = CASE WHEN $5::text IS NULL THEN leaves ELSE NULLIF($5, '') END,
    voice    = CASE WHEN $6::text IS NULL THEN voice ELSE NULLIF($6, '') END
WHERE id = $1
RETURNING `+logColumns,
		id, upd.Messages, upd.Roles, upd.Join, upd.Leaves, upd.Voice)

	l, err := scanLog(row)
	if err != nil {
		return nil, fmt.Errorf("update log %s: %w", id, err)
	}
	return l, nil
}

// GetLog returns the log configuration with id, or nil.
func (p *Postgres) GetLog(ctx context.Context, id string) (*Log, error) {
	l, err := scanLog(p.pool.QueryRow(ctx, `SELECT `+logColumns+` FROM logs WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get log %s: %w", id, err)
	}
	return l, nil
}

// LogsByServer returns every log configuration of serverID ordered by id.
func (p *Postgres) LogsByServer(ctx context.Context, serverID string) ([]*Log, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+logColumns+` FROM logs WHERE server_id = $1 ORDER BY id`, serverID)
	if err != nil {
		return nil, fmt.Errorf("list logs of server %s: %w", serverID, err)
	}
	defer rows.Close()

	var result []*Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list logs of server %s: %w", serverID, err)
	}
	return result, nil
}

// DeleteLog removes the log configuration with id and reports whether it existed.
func (p *Postgres) DeleteLog(ctx context.Context, id string) (bool, error) {
	return p.delete(ctx, "logs", id)
}

func (p *Postgres) delete(ctx context.Context, table, id string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete from %s %s: %w", table, id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ensure Postgres implements Store.
var _ Store = (*Postgres)(nil)
