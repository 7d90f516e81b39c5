package core

import (
	"context"
	"fmt"

	"exhibitcore/pkg/domain"
)

const lifecycleRuleName = "lifecycle_transition"

// LifecycleTransitionRule blocks moves that undo an exploitation or a
// collection, edits to the creation time, values outside the closed enums,
// and collection fields that disagree with the collection status. Imported
// records and mismatches an exhibit already carried are only warned about,
// since they hold history the register did not produce.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

func (lifecycleTransitionRule) Name() string { return lifecycleRuleName }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(id, format string, args ...any) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     lifecycleRuleName,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf(format, args...),
			EntityID: id,
		})
	}
	for _, change := range changes {
		after := change.After
		if after == nil {
			continue
		}
		if !after.Remarks.Valid() {
			block(after.ID, "exhibit %s has unknown remarks %q", after.SerialNumber, after.Remarks)
		}
		if !after.CollectionStatus.Valid() {
			block(after.ID, "exhibit %s has unknown collection status %q", after.SerialNumber, after.CollectionStatus)
		}
		if before := change.Before; before != nil {
			if before.Remarks == domain.RemarksExploited && after.Remarks != domain.RemarksExploited {
				block(after.ID, "exhibit %s cannot return from %s to %s", before.SerialNumber, before.Remarks, after.Remarks)
			}
			if before.IsCollected() && !after.IsCollected() {
				block(after.ID, "exhibit %s cannot return from %s to %s", before.SerialNumber, before.CollectionStatus, after.CollectionStatus)
			}
			if !before.CreatedAt.Equal(after.CreatedAt) {
				block(after.ID, "exhibit %s creation time is immutable", before.SerialNumber)
			}
		}
		if msg := collectionMismatch(*after); msg != "" {
			severity := domain.SeverityBlock
			inherited := change.Before != nil && collectionMismatch(*change.Before) != ""
			if change.Action == domain.ActionImport || inherited {
				severity = domain.SeverityWarn
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     lifecycleRuleName,
				Severity: severity,
				Message:  fmt.Sprintf("exhibit %s %s", after.SerialNumber, msg),
				EntityID: after.ID,
			})
		}
	}
	return res, nil
}

// collectionMismatch describes how the collection fields disagree with the status, or returns "".
func collectionMismatch(e domain.Exhibit) string {
	hasFields := e.CollectionDate != nil || e.CollectedBy != nil
	complete := e.CollectionDate != nil && e.CollectedBy != nil
	switch {
	case e.IsCollected() && !complete:
		return "is collected without a collection date and collector"
	case !e.IsCollected() && hasFields:
		return "has collection details but is not collected"
	case e.UnexploitationReason != nil && e.Remarks == domain.RemarksExploited:
		return "is exploited but carries an unexploitation reason"
	}
	return ""
}
