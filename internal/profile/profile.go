// Package profile persists what the agent knows about each user as one JSON
// file per username.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/peepingotter/director/internal/types"
)

// Manager owns the profile directory. Safe for concurrent use.
type Manager struct {
	dir string

	mu    sync.Mutex
	cache map[string]*types.UserProfile
}

// NewManager creates a manager rooted at dir, creating it if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	return &Manager{dir: dir, cache: make(map[string]*types.UserProfile)}, nil
}

// sanitize keeps usernames filesystem-safe.
func sanitize(username string) string {
	username = strings.ToLower(strings.TrimSpace(username))
	var b strings.Builder
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (m *Manager) path(username string) string {
	return filepath.Join(m.dir, sanitize(username)+".json")
}

// Get returns the profile for username, creating a stranger-tier one on
// first sight. LastSeen is refreshed on every call.
func (m *Manager) Get(username string) (*types.UserProfile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("empty username")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.loadLocked(username)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &types.UserProfile{
			Username:  username,
			Role:      "viewer",
			CreatedAt: time.Now(),
			Relationship: types.Relationship{
				Tier:     "stranger",
				Affinity: 50,
				Vibe:     "unknown",
			},
		}
	}
	p.LastSeen = time.Now()
	if err := m.saveLocked(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies a partial update to a user's profile. New facts are
// deduplicated; affinity stays in [0, 100].
func (m *Manager) Update(username string, update types.ProfileUpdate) (*types.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.loadLocked(username)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no profile for %q", username)
	}

	for _, fact := range update.NewFacts {
		if fact = strings.TrimSpace(fact); fact == "" || m.hasFact(p, fact) {
			continue
		}
		p.Facts = append(p.Facts, types.UserFact{
			Content:   fact,
			Timestamp: time.Now(),
			Category:  "learned",
		})
	}
	if update.NewOpinion != "" {
		p.Opinions = append(p.Opinions, update.NewOpinion)
	}
	if update.AffinityChange != 0 {
		p.Relationship.Affinity += update.AffinityChange
		if p.Relationship.Affinity < 0 {
			p.Relationship.Affinity = 0
		}
		if p.Relationship.Affinity > 100 {
			p.Relationship.Affinity = 100
		}
		p.Relationship.Tier = tierFor(p.Relationship.Affinity, p.Role)
	}

	if err := m.saveLocked(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Manager) hasFact(p *types.UserProfile, fact string) bool {
	for _, f := range p.Facts {
		if strings.EqualFold(f.Content, fact) {
			return true
		}
	}
	return false
}

// tierFor maps affinity to a relationship tier. The handler role is sticky.
func tierFor(affinity int, role string) string {
	if role == "handler" {
		return "handler"
	}
	switch {
	case affinity >= 80:
		return "friend"
	case affinity >= 60:
		return "regular"
	}
	return "stranger"
}

func (m *Manager) loadLocked(username string) (*types.UserProfile, error) {
	if p, ok := m.cache[sanitize(username)]; ok {
		return p, nil
	}
	data, err := os.ReadFile(m.path(username))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p types.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", username, err)
	}
	m.cache[sanitize(username)] = &p
	return &p, nil
}

func (m *Manager) saveLocked(p *types.UserProfile) error {
	m.cache[sanitize(p.Username)] = p
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	tmp := m.path(p.Username) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	if err := os.Rename(tmp, m.path(p.Username)); err != nil {
		return fmt.Errorf("failed to replace profile: %w", err)
	}
	return nil
}
