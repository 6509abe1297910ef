package types

import "time"

// UserFact is one learned, durable fact about a user.
type UserFact struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
}

// Relationship tracks how the agent feels about a user.
type Relationship struct {
	Tier     string `json:"tier"`     // "stranger", "regular", "friend", "handler"
	Affinity int    `json:"affinity"` // 0-100
	Vibe     string `json:"vibe"`
}

// UserProfile is the externally persisted record for one user. The profile
// service owns storage; the engine only reads and submits updates.
type UserProfile struct {
	Username     string       `json:"username"`
	Nickname     string       `json:"nickname"`
	Role         string       `json:"role"` // "viewer" or "handler" (the agent's operator)
	CreatedAt    time.Time    `json:"created_at"`
	LastSeen     time.Time    `json:"last_seen"`
	Relationship Relationship `json:"relationship"`
	Facts        []UserFact   `json:"facts"`
	Opinions     []string     `json:"opinions"`
}

// ProfileUpdate is a partial update submitted to the profile service.
type ProfileUpdate struct {
	NewFacts       []string `json:"new_facts,omitempty"`
	NewOpinion     string   `json:"new_opinion,omitempty"`
	AffinityChange int      `json:"affinity_change,omitempty"`
}
