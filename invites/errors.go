package invites

import "errors"

var (
	// ErrDuplicateInvitation: the invitee already holds a non-terminal
	// invitation, or one already exists for this (team, invitee) pair.
	ErrDuplicateInvitation = errors.New("invitee already has an open invitation")

	// ErrStaleTransition: a compare-and-swap lost to a concurrent transition.
	// Callers treat this as a no-op, never as a user-facing failure.
	ErrStaleTransition = errors.New("invitation status changed concurrently")

	// ErrNotYetAccepted: an admin acted on an invitation the invitee has not
	// accepted.
	ErrNotYetAccepted = errors.New("invitation has not been accepted by the player")

	// ErrRateLimited: the inviter is at their outstanding-invitation cap.
	ErrRateLimited = errors.New("too many pending invitations")

	// ErrInviteeUnreachable: the initial invite message could not be
	// delivered; the invitation was rolled forward to expired.
	ErrInviteeUnreachable = errors.New("could not deliver invitation to player")

	// ErrNotEligible: the inviter does not hold a captain or vice-captain
	// role on the team.
	ErrNotEligible = errors.New("inviter is not a captain or vice-captain of the team")

	// ErrAlreadyMember: the invitee already belongs to a team.
	ErrAlreadyMember = errors.New("player is already a member of a team")

	ErrNotFound = errors.New("invitation not found")
)
