package invitation

import "time"

// Status is the lifecycle state of an invitation. PENDING is the only live
// state; the rest are terminal.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
	StatusExpired  Status = "EXPIRED"
)

// Type distinguishes bulk friend invites from direct head-to-head
// challenges.
type Type string

const (
	TypeChallengeInvite Type = "CHALLENGE_INVITE"
	TypeFriendChallenge Type = "FRIEND_CHALLENGE"
)

// DefaultTTL is how long an invitation stays accept-able.
const DefaultTTL = 7 * 24 * time.Hour

// Invitation is a proposal for one user to join a challenge, sent by
// another user. At most one PENDING invitation exists per
// (challenge, from, to) triple.
type Invitation struct {
	ID          string
	ChallengeID string
	FromUserID  string
	ToUserID    string
	Type        Type
	Status      Status
	Message     string
	ExpiresAt   time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExpiredAt reports whether the invitation's expiry has passed.
func (i Invitation) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
