package workflow

import (
	"errors"
	"reflect"
	"testing"
)

// happyPath returns a valid submit event for every chain state, in order.
func happyPath() []Event {
	return []Event{
		SubmitPrivacyStatement{Data: PrivacyStatement{AgreedToTerms: true}},
		SubmitRequestDetails{Data: RequestDetails{Scenario: "for-self", Type: "first-time"}},
		SubmitPrimaryDocuments{Data: PrimaryDocuments{
			DocumentType:       "certificate-of-canadian-citizenship",
			RegistrationNumber: "12345678",
			GivenName:          "John",
			LastName:           "Doe",
			DateOfBirth:        "2000-01-01",
		}},
		SubmitSecondaryDocument{Data: SecondaryDocument{DocumentType: "passport", ExpiryDate: "2030-01-01"}},
		SubmitCurrentNameInfo{Data: CurrentNameInfo{PreferredSameAsDocumentName: true}},
		SubmitPersonalInformation{Data: PersonalInformation{
			FirstNamesPreviouslyUsed: []string{"Jon"},
			LastNameAtBirth:          "Doe",
			Gender:                   "male",
		}},
		SubmitBirthDetails{Data: BirthDetails{Country: "CAN", Province: "ON", City: "Ottawa"}},
		SubmitParentDetails{Data: ParentDetails{Parents: []Parent{{GivenName: "Jane", LastName: "Doe"}, {Unavailable: true}}}},
		SubmitPreviousSIN{Data: PreviousSIN{HasPreviousSIN: "no"}},
		SubmitContactInformation{Data: ContactInformation{
			PreferredLanguage:  "en",
			PrimaryPhoneNumber: "+15555550100",
			Country:            "CAN",
			Address:            "123 Main St",
			City:               "Ottawa",
			Province:           "ON",
			PostalCode:         "K1A0B1",
		}},
		SubmitReview{},
	}
}

func TestExampleScenario(t *testing.T) {
	m := Default
	s := NewSnapshot()
	s.Context.FormData = map[Section]*Draft{
		SectionPrivacyStatement: {Values: map[string]string{"agreedToTerms": ""}, Errors: FieldErrors{"agreedToTerms": "required"}},
	}

	s2, err := m.Transition(s, SubmitPrivacyStatement{Data: PrivacyStatement{AgreedToTerms: true}})
	if err != nil {
		t.Fatal(err)
	}
	if want, have := StateRequestDetails, s2.State; want != have {
		t.Errorf("state: want: %v, have: %v", want, have)
	}
	if s2.Context.PrivacyStatement == nil || !s2.Context.PrivacyStatement.AgreedToTerms {
		t.Error("privacy statement not recorded")
	}
	if d := s2.Context.Draft(SectionPrivacyStatement); d != nil {
		t.Errorf("draft not cleared: %v", d)
	}

	// input must be untouched
	if s.State != StatePrivacyStatement || s.Context.PrivacyStatement != nil || s.Context.Draft(SectionPrivacyStatement) == nil {
		t.Error("input snapshot was modified")
	}

	s3, err := m.Transition(s2, Prev{})
	if err != nil {
		t.Fatal(err)
	}
	if want, have := StatePrivacyStatement, s3.State; want != have {
		t.Errorf("state: want: %v, have: %v", want, have)
	}
	if !reflect.DeepEqual(s2.Context, s3.Context) {
		t.Error("prev changed the context")
	}
}

func TestLinearChain(t *testing.T) {
	m := Default
	s := NewSnapshot()
	seen := make(map[State]int)
	for i, ev := range happyPath() {
		seen[s.State]++
		if i < len(chain)-1 && s.State == InitialState && i > 0 {
			t.Fatalf("returned to initial state early at step %d", i)
		}
		var err error
		s, err = m.Transition(s, ev)
		if err != nil {
			t.Fatalf("step %d (%s): %v", i, ev.Name(), err)
		}
	}
	if want, have := InitialState, s.State; want != have {
		t.Errorf("final state: want: %v, have: %v", want, have)
	}
	for _, st := range chain {
		if want, have := 1, seen[st]; want != have {
			t.Errorf("state %s visited: want: %d, have: %d", st, want, have)
		}
	}
	if seen[StateExited] != 0 {
		t.Error("terminal state visited")
	}
	if s.Context.ContactInformation == nil || s.Context.BirthDetails == nil {
		t.Error("context not accumulated")
	}
}

func TestDeterminism(t *testing.T) {
	m := Default
	s := NewSnapshot()
	for _, ev := range happyPath()[:5] {
		a, errA := m.Transition(s, ev)
		b, errB := m.Transition(s, ev)
		if errA != nil || errB != nil {
			t.Fatal(errA, errB)
		}
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("non-deterministic transition for %s", ev.Name())
		}
		s = a
	}
}

func TestSubmitWrongState(t *testing.T) {
	s := NewSnapshot()
	_, err := Default.Transition(s, SubmitBirthDetails{Data: BirthDetails{Country: "CAN"}})
	if !errors.Is(err, ErrUndefinedTransition) {
		t.Fatalf("expected undefined transition, have: %v", err)
	}
	if want, have := CodeUndefinedTransition, CodeOf(err); want != have {
		t.Errorf("code: want: %v, have: %v", want, have)
	}
}

func TestPrevInitialState(t *testing.T) {
	_, err := Default.Transition(NewSnapshot(), Prev{})
	if !errors.Is(err, ErrUndefinedTransition) {
		t.Fatalf("expected undefined transition, have: %v", err)
	}
}

func TestGlobalEvents(t *testing.T) {
	m := Default
	s := NewSnapshot()
	var err error
	for _, ev := range happyPath()[:3] {
		if s, err = m.Transition(s, ev); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("setFormData", func(t *testing.T) {
		draft := Draft{
			Values: map[string]string{"documentType": "passport"},
			Errors: FieldErrors{"expiryDate": "required"},
		}
		s2, err := m.Transition(s, SetFormData{Section: SectionSecondaryDocument, Draft: draft})
		if err != nil {
			t.Fatal(err)
		}
		if want, have := s.State, s2.State; want != have {
			t.Errorf("state: want: %v, have: %v", want, have)
		}
		if !reflect.DeepEqual(&draft, s2.Context.Draft(SectionSecondaryDocument)) {
			t.Error("draft not stored")
		}
		if s2.Context.SecondaryDocument != nil {
			t.Error("draft written into record")
		}

		// a successful submit clears the draft
		s3, err := m.Transition(s2, happyPath()[3])
		if err != nil {
			t.Fatal(err)
		}
		if s3.Context.Draft(SectionSecondaryDocument) != nil {
			t.Error("draft not cleared")
		}
	})

	t.Run("setFormDataUnknownSection", func(t *testing.T) {
		_, err := m.Transition(s, SetFormData{Section: "bogus"})
		if want, have := CodeUnknownSection, CodeOf(err); want != have {
			t.Errorf("code: want: %v, have: %v", want, have)
		}
	})

	t.Run("cancel", func(t *testing.T) {
		s2, err := m.Transition(s, Cancel{})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(NewSnapshot(), s2) {
			t.Errorf("cancel did not reset: %+v", s2)
		}
	})

	t.Run("exit", func(t *testing.T) {
		s2, err := m.Transition(s, Exit{})
		if err != nil {
			t.Fatal(err)
		}
		if want, have := StateExited, s2.State; want != have {
			t.Errorf("state: want: %v, have: %v", want, have)
		}
		if !reflect.DeepEqual(s.Context, s2.Context) {
			t.Error("exit changed the context")
		}
		for _, ev := range []Event{Cancel{}, Prev{}, Exit{}, SetFormData{Section: SectionBirthDetails}} {
			if _, err = m.Transition(s2, ev); !errors.Is(err, ErrTerminalState) {
				t.Errorf("%s in terminal state: have: %v", ev.Name(), err)
			}
		}
	})
}

func TestSubmitDoesNotAliasPayload(t *testing.T) {
	m := Default
	s := NewSnapshot()
	var err error
	for _, ev := range happyPath()[:7] {
		if s, err = m.Transition(s, ev); err != nil {
			t.Fatal(err)
		}
	}
	parents := []Parent{{GivenName: "Jane"}}
	s, err = m.Transition(s, SubmitParentDetails{Data: ParentDetails{Parents: parents}})
	if err != nil {
		t.Fatal(err)
	}
	parents[0].GivenName = "Changed"
	if want, have := "Jane", s.Context.ParentDetails.Parents[0].GivenName; want != have {
		t.Errorf("want: %v, have: %v", want, have)
	}
}

func TestValidate(t *testing.T) {
	if err := Default.Validate(); err != nil {
		t.Fatal(err)
	}

	meta := DefaultMeta()
	delete(meta, StateBirthInfo)
	err := NewMachine(meta).Validate()
	if !errors.Is(err, ErrMissingStateMeta) {
		t.Errorf("expected missing meta error, have: %v", err)
	}
}

func TestSectionForName(t *testing.T) {
	sec, err := SectionForName("birthDetails")
	if err != nil {
		t.Fatal(err)
	}
	if want, have := StateBirthInfo, sec.State(); want != have {
		t.Errorf("want: %v, have: %v", want, have)
	}

	_, err = SectionForName("nope")
	if !errors.Is(err, ErrUnknownSection) {
		t.Errorf("expected unknown section, have: %v", err)
	}
	if want, have := CodeUnknownSection, CodeOf(err); want != have {
		t.Errorf("code: want: %v, have: %v", want, have)
	}

	if want, have := 10, len(Sections()); want != have {
		t.Errorf("sections: want: %d, have: %d", want, have)
	}
}
