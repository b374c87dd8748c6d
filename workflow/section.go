package workflow

import "fmt"

// Section identifies one logical grouping of collected data.
// Each section is owned by exactly one state.
type Section string

const (
	SectionPrivacyStatement    Section = "privacyStatement"
	SectionRequestDetails      Section = "requestDetails"
	SectionPrimaryDocuments    Section = "primaryDocuments"
	SectionSecondaryDocument   Section = "secondaryDocument"
	SectionCurrentNameInfo     Section = "currentNameInfo"
	SectionPersonalInformation Section = "personalInformation"
	SectionBirthDetails        Section = "birthDetails"
	SectionParentDetails       Section = "parentDetails"
	SectionPreviousSIN         Section = "previousSin"
	SectionContactInformation  Section = "contactInformation"
)

var sectionStates = map[Section]State{
	SectionPrivacyStatement:    StatePrivacyStatement,
	SectionRequestDetails:      StateRequestDetails,
	SectionPrimaryDocuments:    StatePrimaryDocs,
	SectionSecondaryDocument:   StateSecondaryDocs,
	SectionCurrentNameInfo:     StateNameInfo,
	SectionPersonalInformation: StatePersonalInfo,
	SectionBirthDetails:        StateBirthInfo,
	SectionParentDetails:       StateParentInfo,
	SectionPreviousSIN:         StatePreviousSINInfo,
	SectionContactInformation:  StateContactInfo,
}

// Sections returns every section in chain order.
func Sections() []Section {
	var r []Section
	for _, s := range chain {
		if sec, ok := SectionForState(s); ok {
			r = append(r, sec)
		}
	}
	return r
}

// SectionForName converts name into a Section.
// An unknown name is an application error identifying the bad name.
func SectionForName(name string) (Section, error) {
	sec := Section(name)
	if _, ok := sectionStates[sec]; !ok {
		return "", NewError(CodeUnknownSection, fmt.Errorf("%w: %q", ErrUnknownSection, name))
	}
	return sec, nil
}

// SectionForState returns the section collected in state s.
// The review and exited states have no section.
func SectionForState(s State) (Section, bool) {
	for sec, st := range sectionStates {
		if st == s {
			return sec, true
		}
	}
	return "", false
}

// State returns the state in which sec is collected.
func (sec Section) State() State {
	return sectionStates[sec]
}

func (sec Section) String() string {
	return string(sec)
}

// FieldErrors maps form field names to validation messages.
type FieldErrors map[string]string

type PrivacyStatement struct {
	AgreedToTerms bool `json:"agreedToTerms"`
}

type RequestDetails struct {
	Scenario string `json:"scenario"`
	Type     string `json:"type"`
}

type PrimaryDocuments struct {
	DocumentType       string `json:"documentType"`
	RegistrationNumber string `json:"registrationNumber"`
	ClientNumber       string `json:"clientNumber,omitempty"`
	GivenName          string `json:"givenName"`
	LastName           string `json:"lastName"`
	DateOfBirth        string `json:"dateOfBirth"`
}

type SecondaryDocument struct {
	DocumentType string `json:"documentType"`
	ExpiryDate   string `json:"expiryDate"`
}

type CurrentNameInfo struct {
	PreferredSameAsDocumentName bool   `json:"preferredSameAsDocumentName"`
	FirstName                   string `json:"firstName,omitempty"`
	MiddleName                  string `json:"middleName,omitempty"`
	LastName                    string `json:"lastName,omitempty"`
}

type PersonalInformation struct {
	FirstNamesPreviouslyUsed []string `json:"firstNamesPreviouslyUsed,omitempty"`
	LastNameAtBirth          string   `json:"lastNameAtBirth"`
	LastNamesPreviouslyUsed  []string `json:"lastNamesPreviouslyUsed,omitempty"`
	Gender                   string   `json:"gender"`
}

type BirthDetails struct {
	Country           string `json:"country"`
	Province          string `json:"province,omitempty"`
	City              string `json:"city,omitempty"`
	FromMultipleBirth bool   `json:"fromMultipleBirth"`
}

type Parent struct {
	Unavailable bool   `json:"unavailable"`
	GivenName   string `json:"givenName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
}

type ParentDetails struct {
	Parents []Parent `json:"parents"`
}

type PreviousSIN struct {
	// HasPreviousSIN is one of "yes", "no" or "unknown".
	HasPreviousSIN        string `json:"hasPreviousSin"`
	SocialInsuranceNumber string `json:"socialInsuranceNumber,omitempty"`
}

type ContactInformation struct {
	PreferredLanguage    string `json:"preferredLanguage"`
	PrimaryPhoneNumber   string `json:"primaryPhoneNumber"`
	SecondaryPhoneNumber string `json:"secondaryPhoneNumber,omitempty"`
	EmailAddress         string `json:"emailAddress,omitempty"`
	Country              string `json:"country"`
	Address              string `json:"address"`
	City                 string `json:"city"`
	Province             string `json:"province,omitempty"`
	PostalCode           string `json:"postalCode,omitempty"`
}
