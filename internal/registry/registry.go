// Package registry holds the loaded commands, context actions and event
// bindings, and loads them from plugin descriptor directories.
package registry

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/sglre6355/vaneta/internal/plugin"
)

// Registry is the keyed store of loaded plugin entries. It is populated once
// at startup and read concurrently by the dispatcher afterwards.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*plugin.Command
	contexts map[string]*plugin.ContextAction
	events   map[plugin.EventKind][]*plugin.EventBinding
	logger   *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		commands: make(map[string]*plugin.Command),
		contexts: make(map[string]*plugin.ContextAction),
		events:   make(map[plugin.EventKind][]*plugin.EventBinding),
		logger:   logger,
	}
}

// AddCommand registers cmd, replacing any command with the same name.
func (r *Registry) AddCommand(cmd *plugin.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(cmd.Name)
	if _, exists := r.commands[key]; exists {
		r.logger.Warn("command name collision, replacing", "command", key)
	}
	r.commands[key] = cmd
}

// AddContext registers action, replacing any action with the same name.
func (r *Registry) AddContext(action *plugin.ContextAction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contexts[action.Name]; exists {
		r.logger.Warn("context action name collision, replacing", "context", action.Name)
	}
	r.contexts[action.Name] = action
}

// AddEvent appends binding to the handlers of its event kind.
func (r *Registry) AddEvent(binding *plugin.EventBinding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[binding.Kind] = append(r.events[binding.Kind], binding)
}

// Add registers whichever entry is set.
func (r *Registry) Add(entry plugin.Entry) {
	switch {
	case entry.Command != nil:
		r.AddCommand(entry.Command)
	case entry.Context != nil:
		r.AddContext(entry.Context)
	case entry.Event != nil:
		r.AddEvent(entry.Event)
	}
}

// Command returns the command registered under name.
func (r *Registry) Command(name string) (*plugin.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// FindCommand resolves token against command names first, then aliases.
// Matching is case-insensitive.
func (r *Registry) FindCommand(token string) (*plugin.Command, bool) {
	token = strings.ToLower(token)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cmd, ok := r.commands[token]; ok {
		return cmd, true
	}
	for _, name := range sortedKeys(r.commands) {
		if cmd := r.commands[name]; cmd.Matches(token) {
			return cmd, true
		}
	}
	return nil, false
}

// Context returns the context action registered under name.
func (r *Registry) Context(name string) (*plugin.ContextAction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.contexts[name]
	return action, ok
}

// Commands returns a snapshot of all commands ordered by name.
func (r *Registry) Commands() []*plugin.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*plugin.Command, 0, len(r.commands))
	for _, name := range sortedKeys(r.commands) {
		result = append(result, r.commands[name])
	}
	return result
}

// Contexts returns a snapshot of all context actions ordered by name.
func (r *Registry) Contexts() []*plugin.ContextAction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*plugin.ContextAction, 0, len(r.contexts))
	for _, name := range sortedKeys(r.contexts) {
		result = append(result, r.contexts[name])
	}
	return result
}

// Events returns the bindings of kind in load order.
func (r *Registry) Events(kind plugin.EventKind) []*plugin.EventBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*plugin.EventBinding, len(r.events[kind]))
	copy(result, r.events[kind])
	return result
}

// Counts returns the number of commands, context actions and event bindings.
func (r *Registry) Counts() (commands, contexts, events int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, bindings := range r.events {
		events += len(bindings)
	}
	return len(r.commands), len(r.contexts), events
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
