// Package consent implements the two-party approval workflow for shared
// items. Every edit or deletion of a shared note or journal entry is either
// staged as a pending proposal or, when the counterpart acts on an existing
// proposal, applied. The same save action serves as both "propose" and
// "approve" depending on who invokes it relative to the pending requester,
// so a requester can never finalize their own change.
package consent

import "errors"

var (
	// ErrNotAllowed is returned when the actor is neither the item's
	// author nor the author's linked partner.
	ErrNotAllowed = errors.New("consent: actor is not the author or their partner")

	// ErrConflict is returned when an operation contradicts the item's
	// pending state, e.g. proposing a deletion while an edit is pending.
	ErrConflict = errors.New("consent: conflicting pending request")
)

// State is the consent-relevant slice of a shared item.
type State struct {
	AuthorID            int64
	PartnerID           *int64 // the author's linked partner, nil if none
	EditRequestedBy     *int64
	DeletionRequestedBy *int64
}

// EditVerdict describes what a save action should do to the item.
type EditVerdict int

const (
	// EditStaged stages the submitted content as a new pending proposal.
	EditStaged EditVerdict = iota
	// EditRestaged overwrites the actor's own pending draft. Content stays
	// untouched; the partner has still not approved.
	EditRestaged
	// EditApplied commits the actor's submitted content as the real
	// content and clears all pending markers.
	EditApplied
)

// DeleteVerdict describes what a delete action should do to the item.
type DeleteVerdict int

const (
	// DeleteStaged marks the item as pending deletion.
	DeleteStaged DeleteVerdict = iota
	// DeleteConfirmedPending is the idempotent no-op when the original
	// requester asks again.
	DeleteConfirmedPending
	// DeleteApproved removes the item permanently, likes included.
	DeleteApproved
)

func authorized(st State, actorID int64) bool {
	if actorID == st.AuthorID {
		return true
	}
	return st.PartnerID != nil && *st.PartnerID == actorID
}

// DecideEdit resolves a save action against the item's pending state.
//
// With no pending edit, the save is staged: the submitted title/body become
// the pending draft and the actor becomes the requester — even when the
// actor is the author, their partner must still approve. A save by the
// current requester only overwrites the draft. A save by the other party is
// the approval: their submitted content wins, whether or not it matches the
// draft. A pending deletion blocks edits entirely.
//
// An author with no linked partner edits directly; there is no second party
// to withhold approval.
func DecideEdit(st State, actorID int64) (EditVerdict, error) {
	if !authorized(st, actorID) {
		return 0, ErrNotAllowed
	}
	if st.DeletionRequestedBy != nil {
		return 0, ErrConflict
	}
	if st.PartnerID == nil {
		return EditApplied, nil
	}
	if st.EditRequestedBy == nil {
		return EditStaged, nil
	}
	if *st.EditRequestedBy == actorID {
		return EditRestaged, nil
	}
	return EditApplied, nil
}

// DecideDelete resolves a delete action against the item's pending state.
//
// The first request stages the deletion. The requester asking again is an
// idempotent confirmation. The other party's request is the approval that
// destroys the item. A pending edit blocks deletion requests; cancel the
// edit first. Without a linked partner the deletion is immediate.
func DecideDelete(st State, actorID int64) (DeleteVerdict, error) {
	if !authorized(st, actorID) {
		return 0, ErrNotAllowed
	}
	if st.DeletionRequestedBy == nil {
		if st.EditRequestedBy != nil {
			return 0, ErrConflict
		}
		if st.PartnerID == nil {
			return DeleteApproved, nil
		}
		return DeleteStaged, nil
	}
	if *st.DeletionRequestedBy == actorID {
		return DeleteConfirmedPending, nil
	}
	return DeleteApproved, nil
}

// DecideCancelEdit checks that the actor may withdraw the pending edit.
// Only the original requester can cancel their own draft.
func DecideCancelEdit(st State, actorID int64) error {
	if !authorized(st, actorID) {
		return ErrNotAllowed
	}
	if st.EditRequestedBy == nil || *st.EditRequestedBy != actorID {
		return ErrConflict
	}
	return nil
}
