// Package domain defines the exhibit record, its value types, the error
// taxonomy, and the rule evaluation primitives used by exhibitcore.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Remarks records whether forensic examination of an exhibit took place.
type Remarks string

// Exploitation states. The only legal transition is Unexploited to Exploited.
const (
	RemarksUnexploited Remarks = "Unexploited"
	RemarksExploited   Remarks = "Exploited"
)

// ParseRemarks converts a wire value into Remarks.
func ParseRemarks(value string) (Remarks, error) {
	switch r := Remarks(value); r {
	case RemarksUnexploited, RemarksExploited:
		return r, nil
	}
	return "", fmt.Errorf("unknown remarks %q", value)
}

// Valid reports whether r is a known value.
func (r Remarks) Valid() bool {
	_, err := ParseRemarks(string(r))
	return err == nil
}

// UnmarshalJSON rejects values outside the closed set.
func (r *Remarks) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, r, ParseRemarks)
}

// CollectionStatus records whether the submitting party took the exhibit back.
type CollectionStatus string

// Collection states. The only legal transition is NotCollected to Collected.
const (
	StatusNotCollected CollectionStatus = "Not Collected"
	StatusCollected    CollectionStatus = "Collected"
)

// ParseCollectionStatus converts a wire value into CollectionStatus.
func ParseCollectionStatus(value string) (CollectionStatus, error) {
	switch s := CollectionStatus(value); s {
	case StatusNotCollected, StatusCollected:
		return s, nil
	}
	return "", fmt.Errorf("unknown collection status %q", value)
}

// Valid reports whether s is a known value.
func (s CollectionStatus) Valid() bool {
	_, err := ParseCollectionStatus(string(s))
	return err == nil
}

// UnmarshalJSON rejects values outside the closed set.
func (s *CollectionStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ParseCollectionStatus)
}

// UnexploitationReason explains why an exhibit left the unit unexamined.
type UnexploitationReason string

// Recognised unexploitation reasons.
const (
	ReasonInsufficientInformation UnexploitationReason = "Insufficient Information"
	ReasonDeviceDamaged           UnexploitationReason = "Device Damaged"
	ReasonDeviceLocked            UnexploitationReason = "Device Locked"
	ReasonWithdrawnByInvestigator UnexploitationReason = "Withdrawn By Investigator"
	ReasonCaseClosed              UnexploitationReason = "Case Closed"
	ReasonNotSuitable             UnexploitationReason = "Not Suitable For Examination"
)

// UnexploitationReasons lists every accepted reason in display order.
func UnexploitationReasons() []UnexploitationReason {
	return []UnexploitationReason{
		ReasonInsufficientInformation,
		ReasonDeviceDamaged,
		ReasonDeviceLocked,
		ReasonWithdrawnByInvestigator,
		ReasonCaseClosed,
		ReasonNotSuitable,
	}
}

// ParseUnexploitationReason converts a wire value into a reason.
func ParseUnexploitationReason(value string) (UnexploitationReason, error) {
	for _, reason := range UnexploitationReasons() {
		if string(reason) == value {
			return reason, nil
		}
	}
	return "", fmt.Errorf("unknown unexploitation reason %q", value)
}

// UnmarshalJSON rejects values outside the closed set.
func (r *UnexploitationReason) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, r, ParseUnexploitationReason)
}

func unmarshalEnum[T ~string](data []byte, dst *T, parse func(string) (T, error)) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = value
	return nil
}

// Exhibit is one item of physical evidence held by the unit.
type Exhibit struct {
	ID                   string                `json:"id"`
	SerialNumber         string                `json:"serialNumber"`
	DateReceived         Date                  `json:"dateReceived"`
	ReceivingOfficer     string                `json:"receivingOfficer"`
	Examiner             string                `json:"examiner"`
	InvestigatingOfficer string                `json:"investigatingOfficer"`
	Station              string                `json:"station"`
	AccusedPerson        string                `json:"accusedPerson"`
	Description          string                `json:"description"`
	Remarks              Remarks               `json:"remarks"`
	UnexploitationReason *UnexploitationReason `json:"unexploitationReason,omitempty"`
	CollectionStatus     CollectionStatus      `json:"collectionStatus"`
	CollectionDate       *Date                 `json:"collectionDate,omitempty"`
	CollectedBy          *string               `json:"collectedBy,omitempty"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
}

// IsCollected reports whether the exhibit has been handed back.
func (e Exhibit) IsCollected() bool {
	return e.CollectionStatus == StatusCollected
}

// Clone returns a deep copy so optional fields never alias between copies.
func (e Exhibit) Clone() Exhibit {
	cp := e
	if e.UnexploitationReason != nil {
		reason := *e.UnexploitationReason
		cp.UnexploitationReason = &reason
	}
	if e.CollectionDate != nil {
		date := *e.CollectionDate
		cp.CollectionDate = &date
	}
	if e.CollectedBy != nil {
		by := *e.CollectedBy
		cp.CollectedBy = &by
	}
	return cp
}

// CloneExhibits deep copies a collection.
func CloneExhibits(in []Exhibit) []Exhibit {
	if in == nil {
		return nil
	}
	out := make([]Exhibit, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// IndexOf returns the position of the exhibit with the given id, or -1.
func IndexOf(exhibits []Exhibit, id string) int {
	for i := range exhibits {
		if exhibits[i].ID == id {
			return i
		}
	}
	return -1
}

// EntityExhibit identifies exhibit records in changes, violations and audit entries.
const EntityExhibit = "exhibit"

// Change describes one mutation evaluated by the rules engine.
type Change struct {
	Action Action
	Before *Exhibit
	After  *Exhibit
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the mutations captured in the custody trail.
const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionCollect Action = "collect"
	ActionDelete  Action = "delete"
	ActionImport  Action = "import"

	// ActionRead and ActionExport only label audit entries; rules never see them.
	ActionRead   Action = "read"
	ActionExport Action = "export"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock aborts the mutation before anything is saved.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows the save.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("mutation blocked by rule %s: %s", v.Rule, v.Message)
		}
	}
	return "mutation blocked by rules"
}
