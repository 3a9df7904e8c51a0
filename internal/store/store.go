// Package store persists user profiles, server profiles and server log
// settings keyed by Discord id.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrMissingID is returned when a record is saved without an id.
var ErrMissingID = errors.New("record id is required")

// User is a stored user profile.
type User struct {
	ID          string
	Username    string
	DisplayName *string
	Avatar      *string
	Locale      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput is the full set of user fields written by SaveUser.
type UserInput struct {
	ID          string
	Username    string
	DisplayName *string
	Avatar      *string
	Locale      *string
}

// UserUpdate holds the user fields to change. Nil fields are left untouched;
// a pointer to "" clears a nullable field.
type UserUpdate struct {
	Username    *string
	DisplayName *string
	Avatar      *string
	Locale      *string
}

func (u UserUpdate) empty() bool {
	return u.Username == nil && u.DisplayName == nil && u.Avatar == nil && u.Locale == nil
}

// Server is a stored server profile.
type Server struct {
	ID        string
	Name      string
	IconURL   *string
	BannerURL *string
	Locale    *string
	CreatedAt time.Time
}

// ServerInput is the full set of server fields written by SaveServer.
type ServerInput struct {
	ID        string
	Name      string
	IconURL   *string
	BannerURL *string
	Locale    *string
}

// ServerUpdate holds the server fields to change.
type ServerUpdate struct {
	Name      *string
	IconURL   *string
	BannerURL *string
	Locale    *string
}

func (u ServerUpdate) empty() bool {
	return u.Name == nil && u.IconURL == nil && u.BannerURL == nil && u.Locale == nil
}

// Log is a server's activity log channel configuration.
type Log struct {
	ID        string
	ServerID  string
	Messages  *string
	Roles     *string
	Join      *string
	Leaves    *string
	Voice     *string
	CreatedAt time.Time
}

// LogInput is the full set of log fields written by SaveLog.
type LogInput struct {
	ID       string
	ServerID string
	Messages *string
	Roles    *string
	Join     *string
	Leaves   *string
	Voice    *string
}

// LogUpdate holds the log channel fields to change.
type LogUpdate struct {
	Messages *string
	Roles    *string
	Join     *string
	Leaves   *string
	Voice    *string
}

func (u LogUpdate) empty() bool {
	return u.Messages == nil && u.Roles == nil && u.Join == nil && u.Leaves == nil && u.Voice == nil
}

// Store is the persistence collaborator. Get and Update return nil without an
// error when the record does not exist; Update also returns nil when there is
// nothing to change. Errors are reserved for storage faults.
type Store interface {
	SaveUser(ctx context.Context, in UserInput) (*User, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)

	SaveServer(ctx context.Context, in ServerInput) (*Server, error)
	UpdateServer(ctx context.Context, id string, upd ServerUpdate) (*Server, error)
	GetServer(ctx context.Context, id string) (*Server, error)
	DeleteServer(ctx context.Context, id string) (bool, error)

	SaveLog(ctx context.Context, in LogInput) (*Log, error)
	UpdateLog(ctx context.Context, id string, upd LogUpdate) (*Log, error)
	GetLog(ctx context.Context, id string) (*Log, error)
	LogsByServer(ctx context.Context, serverID string) ([]*Log, error)
	DeleteLog(ctx context.Context, id string) (bool, error)

	Close()
}

// String returns a pointer to s, or nil when s is empty. It is convenient for
// filling nullable fields from Discord values.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullable maps the "" clear marker of update structs to NULL.
func nullable(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
