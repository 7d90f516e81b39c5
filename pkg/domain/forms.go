package domain

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ExhibitForm carries the caller-supplied intake fields for a new exhibit.
type ExhibitForm struct {
	DateReceived         Date   `json:"dateReceived"`
	ReceivingOfficer     string `json:"receivingOfficer" validate:"required,max=200"`
	Examiner             string `json:"examiner" validate:"required,max=200"`
	InvestigatingOfficer string `json:"investigatingOfficer" validate:"required,max=200"`
	Station              string `json:"station" validate:"required,max=200"`
	AccusedPerson        string `json:"accusedPerson" validate:"required,max=200"`
	Description          string `json:"description" validate:"required,max=4000"`
}

// Normalize trims surrounding whitespace from every text field.
func (f ExhibitForm) Normalize() ExhibitForm {
	f.ReceivingOfficer = strings.TrimSpace(f.ReceivingOfficer)
	f.Examiner = strings.TrimSpace(f.Examiner)
	f.InvestigatingOfficer = strings.TrimSpace(f.InvestigatingOfficer)
	f.Station = strings.TrimSpace(f.Station)
	f.AccusedPerson = strings.TrimSpace(f.AccusedPerson)
	f.Description = strings.TrimSpace(f.Description)
	return f
}

// Validate reports every missing or oversized field as a single ValidationError.
func (f ExhibitForm) Validate() error {
	fields := structFieldErrors(f)
	if f.DateReceived.IsZero() {
		fields = append([]FieldError{{Field: "dateReceived", Rule: "required"}}, fields...)
	}
	if len(fields) > 0 {
		return ValidationError{Fields: fields, Message: "exhibit form rejected"}
	}
	return nil
}

// ExhibitPatch lists the fields an update may change. Identity, serial,
// timestamps and collection fields cannot be patched.
type ExhibitPatch struct {
	DateReceived         *Date    `json:"dateReceived,omitempty"`
	ReceivingOfficer     *string  `json:"receivingOfficer,omitempty"`
	Examiner             *string  `json:"examiner,omitempty"`
	InvestigatingOfficer *string  `json:"investigatingOfficer,omitempty"`
	Station              *string  `json:"station,omitempty"`
	AccusedPerson        *string  `json:"accusedPerson,omitempty"`
	Description          *string  `json:"description,omitempty"`
	Remarks              *Remarks `json:"remarks,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ExhibitPatch) IsEmpty() bool {
	return p == ExhibitPatch{}
}

// Apply merges the patch into e and returns the result. It validates text
// fields and the remarks transition but does not touch UpdatedAt.
func (p ExhibitPatch) Apply(e Exhibit) (Exhibit, error) {
	out := e.Clone()
	var fields []FieldError
	setText := func(dst *string, src *string, name string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if v == "" {
			fields = append(fields, FieldError{Field: name, Rule: "required"})
			return
		}
		*dst = v
	}
	if p.DateReceived != nil {
		if p.DateReceived.IsZero() {
			fields = append(fields, FieldError{Field: "dateReceived", Rule: "required"})
		} else {
			out.DateReceived = *p.DateReceived
		}
	}
	setText(&out.ReceivingOfficer, p.ReceivingOfficer, "receivingOfficer")
	setText(&out.Examiner, p.Examiner, "examiner")
	setText(&out.InvestigatingOfficer, p.InvestigatingOfficer, "investigatingOfficer")
	setText(&out.Station, p.Station, "station")
	setText(&out.AccusedPerson, p.AccusedPerson, "accusedPerson")
	setText(&out.Description, p.Description, "description")
	if p.Remarks != nil && !p.Remarks.Valid() {
		fields = append(fields, FieldError{Field: "remarks", Rule: "oneof"})
	}
	if len(fields) > 0 {
		return e, ValidationError{Fields: fields, Message: "exhibit update rejected"}
	}
	if p.Remarks != nil && *p.Remarks != out.Remarks {
		if out.Remarks == RemarksExploited {
			return e, InvalidTransitionError{ID: e.ID, Field: "remarks", From: string(out.Remarks), To: string(*p.Remarks)}
		}
		out.Remarks = *p.Remarks
		// a recorded reason only explains an unexploited hand-back
		out.UnexploitationReason = nil
	}
	return out, nil
}

// CollectionData carries the facts recorded when an exhibit is handed back.
type CollectionData struct {
	CollectedBy          string                `json:"collectedBy" validate:"required,max=200"`
	CollectionDate       Date                  `json:"collectionDate"`
	UnexploitationReason *UnexploitationReason `json:"unexploitationReason,omitempty"`
}

// Normalize trims the collector name.
func (c CollectionData) Normalize() CollectionData {
	c.CollectedBy = strings.TrimSpace(c.CollectedBy)
	return c
}

// Validate checks the collection facts against the exhibit's current remarks.
func (c CollectionData) Validate(remarks Remarks) error {
	fields := structFieldErrors(c)
	if c.CollectionDate.IsZero() {
		fields = append(fields, FieldError{Field: "collectionDate", Rule: "required"})
	}
	switch {
	case c.UnexploitationReason != nil:
		if _, err := ParseUnexploitationReason(string(*c.UnexploitationReason)); err != nil {
			fields = append(fields, FieldError{Field: "unexploitationReason", Rule: "oneof"})
		}
	case remarks == RemarksUnexploited:
		fields = append(fields, FieldError{Field: "unexploitationReason", Rule: "required_if_unexploited"})
	}
	if len(fields) > 0 {
		return ValidationError{Fields: fields, Message: "collection rejected"}
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

func structFieldErrors(v any) []FieldError {
	err := formValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Rule: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
