package gym

import "time"

// Status tracks the admin approval workflow for a gym.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Gym is a registered training location owned by a gym-owner account.
// Approval transitions are admin-only.
type Gym struct {
	ID          string
	Name        string
	Location    string
	Description string
	Capacity    int
	Equipment   []string
	OwnerID     string
	Status      Status
	ApprovedBy  string
	ExerciseIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
