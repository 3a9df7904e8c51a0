package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory implementation of Store.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]User
	servers map[string]Server
	logs    map[string]Log
	now     func() time.Time
}

// NewMemory creates a new Memory store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]User),
		servers: make(map[string]Server),
		logs:    make(map[string]Log),
		now:     time.Now,
	}
}

// SaveUser inserts or replaces a user profile.
func (m *Memory) SaveUser(_ context.Context, in UserInput) (*User, error) {
	if in.ID == "" {
		return nil, ErrMissingID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	u, ok := m.users[in.ID]
	if !ok {
		u.CreatedAt = now
	}
	u.ID = in.ID
	u.Username = in.Username
	u.DisplayName = in.DisplayName
	u.Avatar = in.Avatar
	u.Locale = in.Locale
	u.UpdatedAt = now
	m.users[in.ID] = u

	return &u, nil
}

// UpdateUser changes the given fields of an existing user.
func (m *Memory) UpdateUser(_ context.Context, id string, upd UserUpdate) (*User, error) {
	if upd.empty() {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.DisplayName != nil {
		u.DisplayName = nullable(upd.DisplayName)
	}
	if upd.Avatar != nil {
		u.Avatar = nullable(upd.Avatar)
	}
	if upd.Locale != nil {
		u.Locale = nullable(upd.Locale)
	}
	u.UpdatedAt = m.now()
	m.users[id] = u

	return &u, nil
}

// GetUser returns the user with id, or nil.
func (m *Memory) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// DeleteUser removes the user with id and reports whether it existed.
func (m *Memory) DeleteUser(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.users[id]
	delete(m.users, id)
	return ok, nil
}

// SaveServer inserts or replaces a server profile.
func (m *Memory) SaveServer(_ context.Context, in ServerInput) (*Server, error) {
	if in.ID == "" {
		return nil, ErrMissingID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.servers[in.ID]
	if !ok {
		s.CreatedAt = m.now()
	}
	s.ID = in.ID
	s.Name = in.Name
	s.IconURL = in.IconURL
	s.BannerURL = in.BannerURL
	s.Locale = in.Locale
	m.servers[in.ID] = s

	return &s, nil
}

// UpdateServer changes the given fields of an existing server.
func (m *Memory) UpdateServer(_ context.Context, id string, upd ServerUpdate) (*Server, error) {
	if upd.empty() {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.servers[id]
	if !ok {
		return nil, nil
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.IconURL != nil {
		s.IconURL = nullable(upd.IconURL)
	}
	if upd.BannerURL != nil {
		s.BannerURL = nullable(upd.BannerURL)
	}
	if upd.Locale != nil {
		s.Locale = nullable(upd.Locale)
	}
	m.servers[id] = s

	return &s, nil
}

// GetServer returns the server with id, or nil.
func (m *Memory) GetServer(_ context.Context, id string) (*Server, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.servers[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// DeleteServer removes the server and, like the foreign key cascade in
// Postgres, its logs.
func (m *Memory) DeleteServer(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.servers[id]
	delete(m.servers, id)
	for logID, l := range m.logs {
		if l.ServerID == id {
			delete(m.logs, logID)
		}
	}
	return ok, nil
}

// SaveLog inserts or replaces a log configuration.
func (m *Memory) SaveLog(_ context.Context, in LogInput) (*Log, error) {
	if in.ID == "" || in.ServerID == "" {
		return nil, ErrMissingID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.logs[in.ID]
	if !ok {
		l.CreatedAt = m.now()
	}
	l.ID = in.ID
	l.ServerID = in.ServerID
	l.Messages = in.Messages
	l.Roles = in.Roles
	l.Join = in.Join
	l.Leaves = in.Leaves
	l.Voice = in.Voice
	m.logs[in.ID] = l

	return &l, nil
}

// UpdateLog changes the given channels of an existing log configuration.
func (m *Memory) UpdateLog(_ context.Context, id string, upd LogUpdate) (*Log, error) {
	if upd.empty() {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.logs[id]
	if !ok {
		return nil, nil
	}
	if upd.Messages != nil {
		l.Messages = nullable(upd.Messages)
	}
	if upd.Roles != nil {
		l.Roles = nullable(upd.Roles)
	}
	if upd.Join != nil {
		l.Join = nullable(upd.Join)
	}
	if upd.Leaves != nil {
		l.Leaves = nullable(upd.Leaves)
	}
	if upd.Voice != nil {
		l.Voice = nullable(upd.Voice)
	}
	m.logs[id] = l

	return &l, nil
}

// GetLog returns the log configuration with id, or nil.
func (m *Memory) GetLog(_ context.Context, id string) (*Log, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.logs[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// LogsByServer returns every log configuration of serverID ordered by id.
func (m *Memory) LogsByServer(_ context.Context, serverID string) ([]*Log, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Log
	for _, l := range m.logs {
		if l.ServerID == serverID {
			l := l
			result = append(result, &l)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteLog removes the log configuration with id and reports whether it existed.
func (m *Memory) DeleteLog(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.logs[id]
	delete(m.logs, id)
	return ok, nil
}

// Close is a no-op.
func (m *Memory) Close() {}

// Ensure Memory implements Store.
var _ Store = (*Memory)(nil)
