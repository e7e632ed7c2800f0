// Package validator checks transfer pre-conditions on a single case.
package validator

import (
	"fmt"

	"casetransfer/internal/casetransfer/models"
)

// Rule identifies a transfer pre-condition.
type Rule string

const (
	RuleBFActionsCleared Rule = "bf_actions_cleared"
	RuleNoListedHearings Rule = "no_listed_hearings"
)

const (
	BFActionsErrorMsg = "There are one or more open Brought Forward actions that must be cleared before the case %s can be transferred"
	HearingsErrorMsg  = "There are one or more hearings that have the status Listed. These must be updated before the case %s can be transferred"
)

// Failure is one unmet pre-condition on one case.
type Failure struct {
	Reference string
	Rule      Rule
	Message   string
}

// Check returns every unmet pre-condition for c, in rule order.
func Check(c *models.Case) []Failure {
	var failures []Failure
	if !bfActionsCleared(c) {
		failures = append(failures, Failure{
			Reference: c.Reference,
			Rule:      RuleBFActionsCleared,
			Message:   fmt.Sprintf(BFActionsErrorMsg, c.Reference),
		})
	}
	if hasListedHearing(c) {
		failures = append(failures, Failure{
			Reference: c.Reference,
			Rule:      RuleNoListedHearings,
			Message:   fmt.Sprintf(HearingsErrorMsg, c.Reference),
		})
	}
	return failures
}

// Validate returns the user-facing messages for c; empty when c may be transferred.
func Validate(c *models.Case) []string {
	return Messages(Check(c))
}

// CheckGroup runs Check over every member, root first.
func CheckGroup(group *models.TransferGroup) []Failure {
	var failures []Failure
	for _, member := range group.Members() {
		failures = append(failures, Check(member)...)
	}
	return failures
}

// ValidateGroup returns the messages for every member in member order.
func ValidateGroup(group *models.TransferGroup) []string {
	return Messages(CheckGroup(group))
}

// Messages flattens failures into their messages.
func Messages(failures []Failure) []string {
	if len(failures) == 0 {
		return nil
	}
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.Message)
	}
	return out
}

func bfActionsCleared(c *models.Case) bool {
	for _, action := range c.BFActions {
		if !action.IsCleared() {
			return false
		}
	}
	return true
}

func hasListedHearing(c *models.Case) bool {
	for _, hearing := range c.Hearings {
		for _, session := range hearing.Sessions {
			if session.Status == models.HearingStatusListed {
				return true
			}
		}
	}
	return false
}
