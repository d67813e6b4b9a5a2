package pool

import (
	"strings"
	"sync"

	"github.com/randalmurphal/piecework/pkg/piecework/piece"
)

// CommandPool is the command pool plus its alias index. Keys and aliases are
// stored lowercased so Resolve is case-insensitive.
type CommandPool struct {
	*Pool[*piece.Command]

	mu      sync.RWMutex
	aliases map[string]string // alias -> canonical key
}

// NewCommandPool creates the command pool.
func NewCommandPool(name string, host piece.Host, src Source, opts ...Option) *CommandPool {
	cp := &CommandPool{
		Pool:    New[*piece.Command](name, host, src, opts...),
		aliases: make(map[string]string),
	}
	cp.keyOf = strings.ToLower
	cp.onRegister = cp.indexAliases
	cp.onDelete = cp.dropAliases
	return cp
}

// Resolve looks a token up by canonical name, then by alias. Case is ignored.
func (cp *CommandPool) Resolve(token string) (*piece.Command, bool) {
	key := strings.ToLower(token)
	if cmd, ok := cp.entries.Get(key); ok {
		return cmd, true
	}

	cp.mu.RLock()
	canonical, ok := cp.aliases[key]
	cp.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cp.entries.Get(canonical)
}

// Aliases returns a copy of the alias index.
func (cp *CommandPool) Aliases() map[string]string {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	out := make(map[string]string, len(cp.aliases))
	for alias, key := range cp.aliases {
		out[alias] = key
	}
	return out
}

func (cp *CommandPool) indexAliases(key string, cmd *piece.Command) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	for _, alias := range cmd.Aliases() {
		alias = strings.ToLower(alias)
		if alias == "" || alias == key {
			continue
		}
		cp.aliases[alias] = key
	}
}

// dropAliases removes every alias pointing at key, including those of a
// command that is about to be replaced.
func (cp *CommandPool) dropAliases(key string, _ *piece.Command) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	for alias, target := range cp.aliases {
		if target == key {
			delete(cp.aliases, alias)
		}
	}
}
