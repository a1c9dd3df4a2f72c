package models

import "time"

// GameMode controls how a player participates in the exchange.
type GameMode string

const (
	ModeRegular    GameMode = "regular"
	ModeSuperSanta GameMode = "super_santa"
	ModeSantaOnly  GameMode = "santa_only"
	ModeGifteeOnly GameMode = "giftee_only"
)

// CapacityStatus is the derived load state of a player acting as santa.
// It is maintained by the external aggregation sweep and trusted as of
// read time; this service never computes it.
type CapacityStatus string

const (
	CapacityCanHaveMore CapacityStatus = "can_have_more"
	CapacityFull        CapacityStatus = "full"
	CapacityTooMany     CapacityStatus = "too_many"
)

// Player is a participant in the exchange.
type Player struct {
	ID              string         `json:"id"`
	Handle          string         `json:"handle"`
	DisplayName     string         `json:"display_name"`
	SignupComplete  bool           `json:"signup_complete"`
	GameMode        GameMode       `json:"game_mode"`
	MaxGiftees      int            `json:"max_giftees"`
	GifteeCount     int            `json:"giftee_count"`     // active matches where this player is santa
	GifteeForCount  int            `json:"giftee_for_count"` // active matches where this player is giftee
	CapacityStatus  CapacityStatus `json:"capacity_status"`
	RecentPostCount int            `json:"recent_post_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// MatchStatus is the visibility stage of a match. It only moves forward:
// draft is internal, shared reveals the giftee to the santa, locked
// finalizes the pairing and enables address exchange.
type MatchStatus string

const (
	MatchStatusDraft  MatchStatus = "draft"
	MatchStatusShared MatchStatus = "shared"
	MatchStatusLocked MatchStatus = "locked"
)

// FollowupAction records terminal bookkeeping on a match. It never affects
// the match status.
type FollowupAction string

const (
	FollowupNone          FollowupAction = ""
	FollowupSuperAssigned FollowupAction = "super_assigned"
	FollowupSorted        FollowupAction = "sorted"
)

// Match pairs a santa with a giftee. The match record owns the
// relationship; players are referenced, never owned. A retired match is
// never deleted, only stamped with a deactivation time.
type Match struct {
	ID            string         `json:"id"`
	SantaID       string         `json:"santa_id"`
	GifteeID      string         `json:"giftee_id"`
	Status        MatchStatus    `json:"status"`
	SuperSanta    bool           `json:"super_santa"`    // supplemental assignment, created directly locked
	InvalidPlayer bool           `json:"invalid_player"` // set by the external consistency sweep
	Followup      FollowupAction `json:"followup"`
	DeactivatedAt *time.Time     `json:"deactivated_at,omitempty"`
	ContactedAt   *time.Time     `json:"contacted_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Active reports whether the match has not been retired.
func (m *Match) Active() bool {
	return m.DeactivatedAt == nil
}

// MatchWithPlayers is a match row with its santa and giftee handles
// joined in, for list reads.
type MatchWithPlayers struct {
	Match
	SantaHandle  string `json:"santa_handle"`
	GifteeHandle string `json:"giftee_handle"`
}

// Pair identifies a santa/giftee combination independent of any match row.
// Pairs from retired matches form the forbidden set the matching engine
// must never reintroduce.
type Pair struct {
	SantaID  string
	GifteeID string
}
