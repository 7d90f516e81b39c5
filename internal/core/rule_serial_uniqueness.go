package core

import (
	"context"
	"fmt"

	"exhibitcore/pkg/domain"
)

const serialRuleName = "serial_uniqueness"

// SerialUniquenessRule blocks changes that leave two exhibits sharing an id
// or serial number, and newly created exhibits whose serial is not in the
// SSS-MM-YYYY form. Malformed imported serials only raise a warning.
func SerialUniquenessRule() domain.Rule {
	return serialUniquenessRule{}
}

type serialUniquenessRule struct{}

func (serialUniquenessRule) Name() string { return serialRuleName }

func (serialUniquenessRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	ids := make(map[string]int)
	serials := make(map[string]int)
	for _, e := range view.ListExhibits() {
		ids[e.ID]++
		serials[e.SerialNumber]++
	}
	for _, change := range changes {
		after := change.After
		if after == nil {
			continue
		}
		if ids[after.ID] > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     serialRuleName,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("exhibit id %s is used %d times", after.ID, ids[after.ID]),
				EntityID: after.ID,
			})
		}
		if serials[after.SerialNumber] > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     serialRuleName,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("serial number %s is used %d times", after.SerialNumber, serials[after.SerialNumber]),
				EntityID: after.ID,
			})
		}
		if _, ok := domain.ParseSerial(after.SerialNumber); !ok {
			switch change.Action {
			case domain.ActionCreate:
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     serialRuleName,
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("serial number %q is not in SSS-MM-YYYY form", after.SerialNumber),
					EntityID: after.ID,
				})
			case domain.ActionImport:
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     serialRuleName,
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("imported serial number %q is not in SSS-MM-YYYY form and is ignored by allocation", after.SerialNumber),
					EntityID: after.ID,
				})
			}
		}
	}
	return res, nil
}
