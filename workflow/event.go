package workflow

// Event is an input to the workflow machine.
// The set of events is closed: only types in this package implement it.
type Event interface {
	// Name returns a stable name for logging and metrics.
	Name() string
	event()
}

// Prev moves the flow to the immediately preceding state.
type Prev struct{}

// Cancel resets the context and returns the flow to the initial state.
type Cancel struct{}

// Exit abandons the flow by moving it to the terminal state.
type Exit struct{}

// SetFormData stashes an unvalidated draft for Section without changing state.
type SetFormData struct {
	Section Section
	Draft   Draft
}

type SubmitPrivacyStatement struct{ Data PrivacyStatement }
type SubmitRequestDetails struct{ Data RequestDetails }
type SubmitPrimaryDocuments struct{ Data PrimaryDocuments }
type SubmitSecondaryDocument struct{ Data SecondaryDocument }
type SubmitCurrentNameInfo struct{ Data CurrentNameInfo }
type SubmitPersonalInformation struct{ Data PersonalInformation }
type SubmitBirthDetails struct{ Data BirthDetails }
type SubmitParentDetails struct{ Data ParentDetails }
type SubmitPreviousSIN struct{ Data PreviousSIN }
type SubmitContactInformation struct{ Data ContactInformation }

// SubmitReview is the final submission from the review state.
type SubmitReview struct{}

func (Prev) Name() string                      { return "prev" }
func (Cancel) Name() string                    { return "cancel" }
func (Exit) Name() string                      { return "exit" }
func (SetFormData) Name() string               { return "setFormData" }
func (SubmitPrivacyStatement) Name() string    { return "submitPrivacyStatement" }
func (SubmitRequestDetails) Name() string      { return "submitRequestDetails" }
func (SubmitPrimaryDocuments) Name() string    { return "submitPrimaryDocuments" }
func (SubmitSecondaryDocument) Name() string   { return "submitSecondaryDocument" }
func (SubmitCurrentNameInfo) Name() string     { return "submitCurrentNameInfo" }
func (SubmitPersonalInformation) Name() string { return "submitPersonalInformation" }
func (SubmitBirthDetails) Name() string        { return "submitBirthDetails" }
func (SubmitParentDetails) Name() string       { return "submitParentDetails" }
func (SubmitPreviousSIN) Name() string         { return "submitPreviousSin" }
func (SubmitContactInformation) Name() string  { return "submitContactInformation" }
func (SubmitReview) Name() string              { return "submitReview" }

func (Prev) event()                      {}
func (Cancel) event()                    {}
func (Exit) event()                      {}
func (SetFormData) event()               {}
func (SubmitPrivacyStatement) event()    {}
func (SubmitRequestDetails) event()      {}
func (SubmitPrimaryDocuments) event()    {}
func (SubmitSecondaryDocument) event()   {}
func (SubmitCurrentNameInfo) event()     {}
func (SubmitPersonalInformation) event() {}
func (SubmitBirthDetails) event()        {}
func (SubmitParentDetails) event()       {}
func (SubmitPreviousSIN) event()         {}
func (SubmitContactInformation) event()  {}
func (SubmitReview) event()              {}
