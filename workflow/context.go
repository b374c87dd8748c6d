package workflow

import (
	"encoding/json"
	"errors"
)

// Draft is unvalidated, in-progress input for a section along with the
// errors that prevented it from being submitted.
type Draft struct {
	Values map[string]string `json:"values,omitempty"`
	Errors FieldErrors       `json:"errors,omitempty"`
}

func (d *Draft) clone() *Draft {
	if d == nil {
		return nil
	}
	c := &Draft{}
	if d.Values != nil {
		c.Values = make(map[string]string, len(d.Values))
		for k, v := range d.Values {
			c.Values[k] = v
		}
	}
	if d.Errors != nil {
		c.Errors = make(FieldErrors, len(d.Errors))
		for k, v := range d.Errors {
			c.Errors[k] = v
		}
	}
	return c
}

// MachineContext is the data carried by a flow.
// A section record is only written by that section's submit event and
// always contains validated data. FormData holds drafts for sections
// whose last submission failed validation.
type MachineContext struct {
	PrivacyStatement    *PrivacyStatement    `json:"privacyStatement,omitempty"`
	RequestDetails      *RequestDetails      `json:"requestDetails,omitempty"`
	PrimaryDocuments    *PrimaryDocuments    `json:"primaryDocuments,omitempty"`
	SecondaryDocument   *SecondaryDocument   `json:"secondaryDocument,omitempty"`
	CurrentNameInfo     *CurrentNameInfo     `json:"currentNameInfo,omitempty"`
	PersonalInformation *PersonalInformation `json:"personalInformation,omitempty"`
	BirthDetails        *BirthDetails        `json:"birthDetails,omitempty"`
	ParentDetails       *ParentDetails       `json:"parentDetails,omitempty"`
	PreviousSIN         *PreviousSIN         `json:"previousSin,omitempty"`
	ContactInformation  *ContactInformation  `json:"contactInformation,omitempty"`

	FormData map[Section]*Draft `json:"formData,omitempty"`
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Clone returns a deep copy of c.
func (c MachineContext) Clone() MachineContext {
	n := MachineContext{
		PrivacyStatement:   copyPtr(c.PrivacyStatement),
		RequestDetails:     copyPtr(c.RequestDetails),
		PrimaryDocuments:   copyPtr(c.PrimaryDocuments),
		SecondaryDocument:  copyPtr(c.SecondaryDocument),
		CurrentNameInfo:    copyPtr(c.CurrentNameInfo),
		BirthDetails:       copyPtr(c.BirthDetails),
		PreviousSIN:        copyPtr(c.PreviousSIN),
		ContactInformation: copyPtr(c.ContactInformation),
	}
	if c.PersonalInformation != nil {
		pi := *c.PersonalInformation
		pi.FirstNamesPreviouslyUsed = copyStrings(pi.FirstNamesPreviouslyUsed)
		pi.LastNamesPreviouslyUsed = copyStrings(pi.LastNamesPreviouslyUsed)
		n.PersonalInformation = &pi
	}
	if c.ParentDetails != nil {
		n.ParentDetails = &ParentDetails{}
		if c.ParentDetails.Parents != nil {
			n.ParentDetails.Parents = append([]Parent(nil), c.ParentDetails.Parents...)
		}
	}
	if c.FormData != nil {
		n.FormData = make(map[Section]*Draft, len(c.FormData))
		for k, v := range c.FormData {
			n.FormData[k] = v.clone()
		}
	}
	return n
}

// Draft returns the in-progress draft for sec, if any.
func (c MachineContext) Draft(sec Section) *Draft {
	return c.FormData[sec]
}

// Record returns the validated record for sec or nil if none has been submitted.
func (c MachineContext) Record(sec Section) interface{} {
	// typed nil pointers are turned into untyped nils so callers can compare.
	switch sec {
	case SectionPrivacyStatement:
		if c.PrivacyStatement != nil {
			return c.PrivacyStatement
		}
	case SectionRequestDetails:
		if c.RequestDetails != nil {
			return c.RequestDetails
		}
	case SectionPrimaryDocuments:
		if c.PrimaryDocuments != nil {
			return c.PrimaryDocuments
		}
	case SectionSecondaryDocument:
		if c.SecondaryDocument != nil {
			return c.SecondaryDocument
		}
	case SectionCurrentNameInfo:
		if c.CurrentNameInfo != nil {
			return c.CurrentNameInfo
		}
	case SectionPersonalInformation:
		if c.PersonalInformation != nil {
			return c.PersonalInformation
		}
	case SectionBirthDetails:
		if c.BirthDetails != nil {
			return c.BirthDetails
		}
	case SectionParentDetails:
		if c.ParentDetails != nil {
			return c.ParentDetails
		}
	case SectionPreviousSIN:
		if c.PreviousSIN != nil {
			return c.PreviousSIN
		}
	case SectionContactInformation:
		if c.ContactInformation != nil {
			return c.ContactInformation
		}
	}
	return nil
}

// Snapshot is the full serializable condition of a flow at a point in time.
// Snapshots are values: every event produces a new one.
type Snapshot struct {
	State   State          `json:"state"`
	Context MachineContext `json:"context"`
}

// NewSnapshot returns a snapshot at the initial state with an empty context.
func NewSnapshot() Snapshot {
	return Snapshot{State: InitialState}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{State: s.State, Context: s.Context.Clone()}
}

// MarshalBinary converts s into a byte slice.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil value")
	}
	return json.Marshal(s)
}

// UnmarshalBinary converts and loads data into s.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if s == nil {
		return errors.New("nil value")
	}
	var n Snapshot
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if !n.State.Valid() {
		return errors.New("invalid snapshot state: " + string(n.State))
	}
	*s = n
	return nil
}
