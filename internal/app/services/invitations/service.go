// Package invitations manages challenge invitations between users.
package invitations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitchallenge/backend/internal/app/domain/invitation"
	"github.com/fitchallenge/backend/internal/app/domain/participation"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/metrics"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/pkg/logger"
)

// ErrNotRecipient is returned when someone other than the invited user
// tries to act on an invitation.
var ErrNotRecipient = errors.New("invitation is not addressed to you")

// Joiner creates the participation when an invitation is accepted.
type Joiner interface {
	JoinInvited(ctx context.Context, userID, challengeID, invitedBy string) (participation.Participation, error)
}

// Service manages the invitation lifecycle.
type Service struct {
	users          storage.UserStore
	challenges     storage.ChallengeStore
	participations storage.ParticipationStore
	store          storage.InvitationStore
	joiner         Joiner
	log            *logger.Logger
}

// New constructs an invitations service.
func New(users storage.UserStore, challenges storage.ChallengeStore, participations storage.ParticipationStore, store storage.InvitationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("invitations")
	}
	return &Service{
		users:          users,
		challenges:     challenges,
		participations: participations,
		store:          store,
		log:            log,
	}
}

// AttachJoiner wires the participation creation used on accept.
func (s *Service) AttachJoiner(joiner Joiner) {
	s.joiner = joiner
}

// InviteResult reports the per-target outcome of a bulk invite.
type InviteResult struct {
	UserID     string                 `json:"userId"`
	Invitation *invitation.Invitation `json:"invitation,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// InviteFriends sends CHALLENGE_INVITE invitations to a list of friends.
// The caller must be the challenge creator or a participant; each target is
// processed independently so one bad target does not sink the batch.
func (s *Service) InviteFriends(ctx context.Context, caller user.User, challengeID string, friendIDs []string, message string) ([]InviteResult, error) {
	if len(friendIDs) == 0 {
		return nil, fmt.Errorf("friend_ids is required")
	}

	c, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c.CreatedBy != caller.ID {
		if _, err := s.participations.GetUserChallengeParticipation(ctx, caller.ID, challengeID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("you must be the creator or a participant to invite others")
			}
			return nil, err
		}
	}

	message = strings.TrimSpace(message)
	results := make([]InviteResult, 0, len(friendIDs))
	for _, friendID := range friendIDs {
		results = append(results, s.inviteOne(ctx, caller, c.ID, friendID, message))
	}
	return results, nil
}

func (s *Service) inviteOne(ctx context.Context, caller user.User, challengeID, friendID, message string) InviteResult {
	result := InviteResult{UserID: friendID}

	if friendID == caller.ID {
		result.Error = "cannot invite yourself"
		return result
	}
	if !caller.HasFriend(friendID) {
		result.Error = "not in your friends list"
		return result
	}
	target, err := s.users.GetUser(ctx, friendID)
	if err != nil || !target.Active {
		result.Error = "user not found or inactive"
		return result
	}
	if _, err := s.participations.GetUserChallengeParticipation(ctx, friendID, challengeID); err == nil {
		result.Error = "already participating"
		return result
	} else if !errors.Is(err, storage.ErrNotFound) {
		result.Error = err.Error()
		return result
	}

	inv, err := s.store.CreateInvitation(ctx, invitation.Invitation{
		ChallengeID: challengeID,
		FromUserID:  caller.ID,
		ToUserID:    friendID,
		Type:        invitation.TypeChallengeInvite,
		Status:      invitation.StatusPending,
		Message:     message,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			result.Error = "invitation already pending"
		} else {
			result.Error = err.Error()
		}
		return result
	}

	result.Invitation = &inv
	s.log.WithField("invitation_id", inv.ID).
		WithField("from", caller.ID).
		WithField("to", friendID).
		Info("invitation sent")
	return result
}

// ChallengeUser sends a direct FRIEND_CHALLENGE invitation to one user.
func (s *Service) ChallengeUser(ctx context.Context, caller user.User, challengeID, targetID, message string) (invitation.Invitation, error) {
	if targetID == caller.ID {
		return invitation.Invitation{}, fmt.Errorf("cannot challenge yourself")
	}
	if _, err := s.challenges.GetChallenge(ctx, challengeID); err != nil {
		return invitation.Invitation{}, err
	}
	target, err := s.users.GetUser(ctx, targetID)
	if err != nil {
		return invitation.Invitation{}, err
	}
	if !target.Active {
		return invitation.Invitation{}, fmt.Errorf("user is not active")
	}
	if _, err := s.participations.GetUserChallengeParticipation(ctx, targetID, challengeID); err == nil {
		return invitation.Invitation{}, fmt.Errorf("user is already participating")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return invitation.Invitation{}, err
	}

	inv, err := s.store.CreateInvitation(ctx, invitation.Invitation{
		ChallengeID: challengeID,
		FromUserID:  caller.ID,
		ToUserID:    targetID,
		Type:        invitation.TypeFriendChallenge,
		Status:      invitation.StatusPending,
		Message:     strings.TrimSpace(message),
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return invitation.Invitation{}, fmt.Errorf("invitation already pending: %w", err)
		}
		return invitation.Invitation{}, err
	}

	s.log.WithField("invitation_id", inv.ID).
		WithField("from", caller.ID).
		WithField("to", targetID).
		Info("direct challenge sent")
	return inv, nil
}

// ListPending sweeps expired invitations, then returns the user's pending
// received invitations.
func (s *Service) ListPending(ctx context.Context, userID string) ([]invitation.Invitation, error) {
	if _, err := s.ExpirePending(ctx); err != nil {
		s.log.WithError(err).Warn("invitation expiry sweep failed")
	}
	return s.store.ListReceivedInvitations(ctx, userID, invitation.StatusPending)
}

// Inbox bundles everything a user received and sent.
type Inbox struct {
	Received []invitation.Invitation `json:"received"`
	Sent     []invitation.Invitation `json:"sent"`
}

// ListAll returns the user's received and sent invitations.
func (s *Service) ListAll(ctx context.Context, userID string) (Inbox, error) {
	received, err := s.store.ListReceivedInvitations(ctx, userID, "")
	if err != nil {
		return Inbox{}, err
	}
	sent, err := s.store.ListSentInvitations(ctx, userID)
	if err != nil {
		return Inbox{}, err
	}
	return Inbox{Received: received, Sent: sent}, nil
}

// Accept lets the recipient accept a PENDING invitation, creating the
// participation. An invitation found expired at use is transitioned to
// EXPIRED and rejected. If the recipient is somehow already participating,
// the invitation is still marked ACCEPTED but the call reports the error.
func (s *Service) Accept(ctx context.Context, userID, invitationID string) (invitation.Invitation, participation.Participation, error) {
	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return invitation.Invitation{}, participation.Participation{}, err
	}
	if inv.ToUserID != userID {
		return invitation.Invitation{}, participation.Participation{}, ErrNotRecipient
	}
	if inv.Status != invitation.StatusPending {
		return invitation.Invitation{}, participation.Participation{}, fmt.Errorf("invitation is %s", inv.Status)
	}

	now := time.Now().UTC()
	if inv.ExpiredAt(now) {
		inv.Status = invitation.StatusExpired
		if _, err := s.store.UpdateInvitation(ctx, inv); err != nil {
			s.log.WithError(err).WithField("invitation_id", inv.ID).Warn("expire on accept failed")
		}
		return invitation.Invitation{}, participation.Participation{}, fmt.Errorf("invitation has expired")
	}

	if _, err := s.participations.GetUserChallengeParticipation(ctx, userID, inv.ChallengeID); err == nil {
		// The invitation is consumed even though no participation is
		// created; leaving it PENDING would invite retries forever.
		inv.Status = invitation.StatusAccepted
		if _, err := s.store.UpdateInvitation(ctx, inv); err != nil {
			s.log.WithError(err).WithField("invitation_id", inv.ID).Warn("mark accepted failed")
		}
		return invitation.Invitation{}, participation.Participation{}, fmt.Errorf("already participating in this challenge")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return invitation.Invitation{}, participation.Participation{}, err
	}

	if s.joiner == nil {
		return invitation.Invitation{}, participation.Participation{}, fmt.Errorf("participation service not configured")
	}
	p, err := s.joiner.JoinInvited(ctx, userID, inv.ChallengeID, inv.FromUserID)
	if err != nil {
		return invitation.Invitation{}, participation.Participation{}, err
	}

	inv.Status = invitation.StatusAccepted
	updated, err := s.store.UpdateInvitation(ctx, inv)
	if err != nil {
		s.log.WithError(err).WithField("invitation_id", inv.ID).Warn("mark accepted failed")
		updated = inv
	}

	s.log.WithField("invitation_id", inv.ID).WithField("user_id", userID).Info("invitation accepted")
	return updated, p, nil
}

// Decline lets the recipient decline a PENDING invitation. No side effects.
func (s *Service) Decline(ctx context.Context, userID, invitationID string) (invitation.Invitation, error) {
	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return invitation.Invitation{}, err
	}
	if inv.ToUserID != userID {
		return invitation.Invitation{}, ErrNotRecipient
	}
	if inv.Status != invitation.StatusPending {
		return invitation.Invitation{}, fmt.Errorf("invitation is %s", inv.Status)
	}

	inv.Status = invitation.StatusDeclined
	updated, err := s.store.UpdateInvitation(ctx, inv)
	if err != nil {
		return invitation.Invitation{}, err
	}
	s.log.WithField("invitation_id", inv.ID).WithField("user_id", userID).Info("invitation declined")
	return updated, nil
}

// ExpirePending sweeps all overdue PENDING invitations to EXPIRED.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	n, err := s.store.ExpirePendingInvitations(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.RecordInvitationsExpired(n)
		s.log.WithField("count", n).Info("invitations expired")
	}
	return n, nil
}
