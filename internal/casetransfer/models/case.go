// Package models holds the case records and transfer values shared across the
// case transfer module.
package models

import "strings"

// Family is the case-type family a record physically lives in. It decides the
// jurisdiction and is derived from the store location, never asserted by callers.
type Family string

const (
	FamilyEnglandWales Family = "ET_EnglandWales"
	FamilyScotland     Family = "ET_Scotland"
)

// IsValid reports whether f is a known family.
func (f Family) IsValid() bool {
	return f == FamilyEnglandWales || f == FamilyScotland
}

func (f Family) String() string { return string(f) }

// HearingStatus is the status of one listed hearing session.
type HearingStatus string

const (
	HearingStatusListed    HearingStatus = "Listed"
	HearingStatusHeard     HearingStatus = "Heard"
	HearingStatusPostponed HearingStatus = "Postponed"
	HearingStatusSettled   HearingStatus = "Settled"
	HearingStatusWithdrawn HearingStatus = "Withdrawn"
	HearingStatusVacated   HearingStatus = "Vacated"
)

// PositionTransferred marks a case whose record was re-created in another family.
const PositionTransferred = "Transferred"

// Case is the unit of transfer. Only the fields this module reads or writes are
// modelled; the store keeps the rest of the document untouched.
type Case struct {
	Reference         string                 `json:"reference"`
	Family            Family                 `json:"family"`
	ManagingOffice    string                 `json:"managing_office"`
	PositionType      string                 `json:"position_type,omitempty"`
	BFActions         []BroughtForwardAction `json:"bf_actions,omitempty"`
	Hearings          []Hearing              `json:"hearings,omitempty"`
	CounterClaimOf    string                 `json:"counter_claim_of,omitempty"`
	CounterClaimLinks []string               `json:"counter_claim_links,omitempty"`
	PendingTransfer   *PendingTransfer       `json:"pending_transfer,omitempty"`
	TransferMarkup    string                 `json:"transfer_markup,omitempty"`
}

// BroughtForwardAction is a follow-up action; it is open until ClearedDate is set.
type BroughtForwardAction struct {
	Action      string `json:"action,omitempty"`
	ClearedDate string `json:"cleared_date,omitempty"`
}

// IsCleared treats a blank date the same as a missing one.
func (a BroughtForwardAction) IsCleared() bool {
	return strings.TrimSpace(a.ClearedDate) != ""
}

type Hearing struct {
	Number   string           `json:"number,omitempty"`
	Sessions []HearingSession `json:"sessions,omitempty"`
}

type HearingSession struct {
	ListedDate string        `json:"listed_date,omitempty"`
	Status     HearingStatus `json:"status,omitempty"`
}

// PendingTransfer is the transfer request recorded on a case before the
// orchestrator runs. It is cleared once a transfer has been attempted.
type PendingTransfer struct {
	DestinationOffice string `json:"destination_office"`
	Reason            string `json:"reason,omitempty"`
}

// IsCounterClaim reports whether c was spawned from another case.
func (c *Case) IsCounterClaim() bool {
	return c.CounterClaimOf != ""
}

// Clone returns a deep copy, used for dispatch snapshots so later mutations of
// the source never leak into an already-built command.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	if c.BFActions != nil {
		out.BFActions = append([]BroughtForwardAction(nil), c.BFActions...)
	}
	if c.Hearings != nil {
		out.Hearings = make([]Hearing, len(c.Hearings))
		for i, h := range c.Hearings {
			out.Hearings[i] = Hearing{Number: h.Number}
			if h.Sessions != nil {
				out.Hearings[i].Sessions = append([]HearingSession(nil), h.Sessions...)
			}
		}
	}
	if c.CounterClaimLinks != nil {
		out.CounterClaimLinks = append([]string(nil), c.CounterClaimLinks...)
	}
	if c.PendingTransfer != nil {
		pt := *c.PendingTransfer
		out.PendingTransfer = &pt
	}
	return &out
}

// Credential is the caller's identity, passed through to every remote call.
type Credential struct {
	Token string
	Actor string
}
