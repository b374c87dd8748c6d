package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/micromdm/nanointake/engine/storage"
	"github.com/micromdm/nanointake/engine/storage/inmem"
	"github.com/micromdm/nanointake/utils/uuid"
	"github.com/micromdm/nanointake/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const testSession = "3a1f6c1e-4b9c-4d0a-9a53-1f3e2d6b7c80"

func happyPath() []workflow.Event {
	return []workflow.Event{
		workflow.SubmitPrivacyStatement{Data: workflow.PrivacyStatement{AgreedToTerms: true}},
		workflow.SubmitRequestDetails{Data: workflow.RequestDetails{Scenario: "for-self", Type: "first-time"}},
		workflow.SubmitPrimaryDocuments{Data: workflow.PrimaryDocuments{
			DocumentType:       "certificate-of-canadian-citizenship",
			RegistrationNumber: "12345678",
			GivenName:          "John",
			LastName:           "Doe",
			DateOfBirth:        "2000-01-01",
		}},
		workflow.SubmitSecondaryDocument{Data: workflow.SecondaryDocument{DocumentType: "passport", ExpiryDate: "2030-01-01"}},
		workflow.SubmitCurrentNameInfo{Data: workflow.CurrentNameInfo{PreferredSameAsDocumentName: true}},
		workflow.SubmitPersonalInformation{Data: workflow.PersonalInformation{LastNameAtBirth: "Doe", Gender: "male"}},
		workflow.SubmitBirthDetails{Data: workflow.BirthDetails{Country: "CAN", Province: "ON", City: "Ottawa"}},
		workflow.SubmitParentDetails{Data: workflow.ParentDetails{Parents: []workflow.Parent{{GivenName: "Jane", LastName: "Doe"}}}},
		workflow.SubmitPreviousSIN{Data: workflow.PreviousSIN{HasPreviousSIN: "no"}},
		workflow.SubmitContactInformation{Data: workflow.ContactInformation{
			PreferredLanguage:  "en",
			PrimaryPhoneNumber: "+15555550100",
			Country:            "CAN",
			Address:            "123 Main St",
			City:               "Ottawa",
		}},
	}
}

// failStorage wraps a flow storage and fails writes when fail is set.
type failStorage struct {
	storage.FlowStorage
	fail bool
}

var errStoreFailed = errors.New("store failed")

func (s *failStorage) StoreSnapshot(ctx context.Context, sessionID, flowID string, snap *workflow.Snapshot) error {
	if s.fail {
		return errStoreFailed
	}
	return s.FlowStorage.StoreSnapshot(ctx, sessionID, flowID, snap)
}

func TestCreateActor(t *testing.T) {
	ctx := context.Background()
	s := inmem.New()
	e := New(s, WithIDer(uuid.NewStaticIDs("flow-1")))

	flowID := e.NewFlowID()
	if want, have := "flow-1", flowID; want != have {
		t.Errorf("flow id: want: %v, have: %v", want, have)
	}

	a, err := e.CreateActor(ctx, testSession, flowID)
	if err != nil {
		t.Fatal(err)
	}
	if want, have := workflow.InitialState, a.State(); want != have {
		t.Errorf("state: want: %v, have: %v", want, have)
	}

	// the registry entry exists before any event is sent
	snap, err := s.RetrieveSnapshot(ctx, testSession, flowID)
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil {
		t.Fatal("expected stored snapshot")
	}
	if want, have := a.Snapshot(), *snap; !reflect.DeepEqual(want, have) {
		t.Errorf("snapshot: want: %+v, have: %+v", want, have)
	}

	if _, err = e.CreateActor(ctx, testSession, "bad/flow"); !errors.Is(err, ErrInvalidFlowID) {
		t.Errorf("expected invalid flow id error, have: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := New(inmem.New())

	a, err := e.CreateActor(ctx, testSession, "flow-rt")
	if err != nil {
		t.Fatal(err)
	}
	want, err := a.Send(ctx, workflow.SubmitPrivacyStatement{Data: workflow.PrivacyStatement{AgreedToTerms: true}})
	if err != nil {
		t.Fatal(err)
	}

	a2, err := e.LoadActor(ctx, testSession, "flow-rt", "")
	if err != nil {
		t.Fatal(err)
	}
	if a2 == nil {
		t.Fatal("expected actor")
	}
	if have := a2.Snapshot(); !reflect.DeepEqual(want, have) {
		t.Errorf("snapshot not equal:\nwant: %+v\nhave: %+v", want, have)
	}
	if want, have := "flow-rt", a2.ID(); want != have {
		t.Errorf("id: want: %v, have: %v", want, have)
	}
	if want, have := testSession, a2.SessionID(); want != have {
		t.Errorf("session id: want: %v, have: %v", want, have)
	}
}

func TestFlowIsolation(t *testing.T) {
	ctx := context.Background()
	e := New(inmem.New())

	a, err := e.CreateActor(ctx, testSession, "tab-a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.CreateActor(ctx, testSession, "tab-b")
	if err != nil {
		t.Fatal(err)
	}

	evs := happyPath()
	for _, ev := range evs[:3] {
		if _, err = a.Send(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	if _, err = b.Send(ctx, evs[0]); err != nil {
		t.Fatal(err)
	}
	if _, err = b.Send(ctx, workflow.Exit{}); err != nil {
		t.Fatal(err)
	}

	la, err := e.LoadActor(ctx, testSession, "tab-a", "")
	if err != nil {
		t.Fatal(err)
	}
	lb, err := e.LoadActor(ctx, testSession, "tab-b", "")
	if err != nil {
		t.Fatal(err)
	}
	if want, have := workflow.StateSecondaryDocs, la.State(); want != have {
		t.Errorf("tab-a state: want: %v, have: %v", want, have)
	}
	if want, have := workflow.StateExited, lb.State(); want != have {
		t.Errorf("tab-b state: want: %v, have: %v", want, have)
	}
	if lb.Context().PrimaryDocuments != nil {
		t.Error("tab-b observed tab-a context")
	}

	// same flow ID in another session
	other, err := e.LoadActor(ctx, "other-session", "tab-a", "")
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Error("expected no actor in other session")
	}
}

func TestLoadMissing(t *testing.T) {
	e := New(inmem.New())
	a, err := e.LoadActor(context.Background(), testSession, "never-started", "")
	if err != nil {
		t.Fatal(err)
	}
	if a != nil {
		t.Error("expected nil actor")
	}
}

func TestJump(t *testing.T) {
	ctx := context.Background()
	e := New(inmem.New())

	a, err := e.CreateActor(ctx, testSession, "flow-jump")
	if err != nil {
		t.Fatal(err)
	}
	for _, ev := range happyPath() {
		if _, err = a.Send(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	if want, have := workflow.StateReview, a.State(); want != have {
		t.Fatalf("state: want: %v, have: %v", want, have)
	}
	stored := a.Context()

	j, err := e.LoadActor(ctx, testSession, "flow-jump", workflow.StateBirthInfo)
	if err != nil {
		t.Fatal(err)
	}
	if want, have := workflow.StateBirthInfo, j.State(); want != have {
		t.Errorf("state: want: %v, have: %v", want, have)
	}
	if have := j.Context(); !reflect.DeepEqual(stored, have) {
		t.Errorf("context changed by jump:\nwant: %+v\nhave: %+v", stored, have)
	}

	// the jump is persisted
	r, err := e.LoadActor(ctx, testSession, "flow-jump", "")
	if err != nil {
		t.Fatal(err)
	}
	if want, have := workflow.StateBirthInfo, r.State(); want != have {
		t.Errorf("state: want: %v, have: %v", want, have)
	}
}

func TestInvalidTarget(t *testing.T) {
	ctx := context.Background()
	e := New(inmem.New())
	if _, err := e.CreateActor(ctx, testSession, "flow-target"); err != nil {
		t.Fatal(err)
	}
	for _, target := range []workflow.State{workflow.StateExited, "bogus"} {
		_, err := e.LoadActor(ctx, testSession, "flow-target", target)
		if !errors.Is(err, workflow.ErrInvalidTargetState) {
			t.Errorf("%s: expected invalid target error, have: %v", target, err)
		}
		if want, have := workflow.CodeInvalidTargetState, workflow.CodeOf(err); want != have {
			t.Errorf("%s: code: want: %v, have: %v", target, want, have)
		}
	}

	meta := workflow.DefaultMeta()
	delete(meta, workflow.StateBirthInfo)
	e = New(inmem.New(), WithMachine(workflow.NewMachine(meta)))
	_, err := e.LoadActor(ctx, testSession, "flow-target", workflow.StateBirthInfo)
	if want, have := workflow.CodeMissingStateMeta, workflow.CodeOf(err); want != have {
		t.Errorf("code: want: %v, have: %v", want, have)
	}
}

func TestSendRejected(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	s := inmem.New()
	e := New(s, WithMetrics(m))

	a, err := e.CreateActor(ctx, testSession, "flow-rej")
	if err != nil {
		t.Fatal(err)
	}
	before := a.Snapshot()

	_, err = a.Send(ctx, workflow.Prev{})
	if !errors.Is(err, workflow.ErrUndefinedTransition) {
		t.Errorf("expected undefined transition, have: %v", err)
	}
	if have := a.Snapshot(); !reflect.DeepEqual(before, have) {
		t.Error("rejected event changed the actor")
	}
	if want, have := 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("prev", string(workflow.StatePrivacyStatement))); want != have {
		t.Errorf("rejected count: want: %v, have: %v", want, have)
	}

	if _, err = a.Send(ctx, happyPath()[0]); err != nil {
		t.Fatal(err)
	}
	if want, have := 1.0, testutil.ToFloat64(m.transitions.WithLabelValues(
		"submitPrivacyStatement",
		string(workflow.StatePrivacyStatement),
		string(workflow.StateRequestDetails),
	)); want != have {
		t.Errorf("transition count: want: %v, have: %v", want, have)
	}

	if _, err = NewMetrics(reg); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestSendStoreFailure(t *testing.T) {
	ctx := context.Background()
	s := &failStorage{FlowStorage: inmem.New()}
	e := New(s)

	a, err := e.CreateActor(ctx, testSession, "flow-fail")
	if err != nil {
		t.Fatal(err)
	}
	s.fail = true
	if _, err = a.Send(ctx, happyPath()[0]); !errors.Is(err, errStoreFailed) {
		t.Errorf("expected store error, have: %v", err)
	}
	if want, have := workflow.InitialState, a.State(); want != have {
		t.Errorf("state: want: %v, have: %v", want, have)
	}
	if a.Context().PrivacyStatement != nil {
		t.Error("failed write changed the actor context")
	}
}

func TestFinalSubmitHook(t *testing.T) {
	ctx := context.Background()
	hookErr := errors.New("submission rejected")

	var calls int
	var seen workflow.Snapshot
	fail := true
	hook := func(_ context.Context, flowID string, s workflow.Snapshot) error {
		calls++
		seen = s
		if fail {
			return hookErr
		}
		return nil
	}
	e := New(inmem.New(), WithFinalSubmitHook(hook))

	a, err := e.CreateActor(ctx, testSession, "flow-hook")
	if err != nil {
		t.Fatal(err)
	}
	for _, ev := range happyPath() {
		if _, err = a.Send(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	if _, err = a.Send(ctx, workflow.SubmitReview{}); !errors.Is(err, hookErr) {
		t.Errorf("expected hook error, have: %v", err)
	}
	if want, have := workflow.StateReview, a.State(); want != have {
		t.Errorf("state: want: %v, have: %v", want, have)
	}
	if want, have := workflow.StateReview, seen.State; want != have {
		t.Errorf("hook snapshot state: want: %v, have: %v", want, have)
	}

	fail = false
	snap, err := a.Send(ctx, workflow.SubmitReview{})
	if err != nil {
		t.Fatal(err)
	}
	if want, have := workflow.InitialState, snap.State; want != have {
		t.Errorf("state: want: %v, have: %v", want, have)
	}
	if snap.Context.ContactInformation == nil {
		t.Error("expected context to be kept after final submission")
	}
	if want, have := 2, calls; want != have {
		t.Errorf("hook calls: want: %v, have: %v", want, have)
	}
}

func TestWorker(t *testing.T) {
	ctx := context.Background()
	s := inmem.New()
	e := New(s)
	if _, err := e.CreateActor(ctx, testSession, "flow-w"); err != nil {
		t.Fatal(err)
	}

	w := NewWorker(s, WithWorkerSessionTTL(time.Hour))
	if err := w.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}
	a, err := e.LoadActor(ctx, testSession, "flow-w", "")
	if err != nil {
		t.Fatal(err)
	}
	if a == nil {
		t.Fatal("session expired before its ttl")
	}

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err = w.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}
	a, err = e.LoadActor(ctx, testSession, "flow-w", "")
	if err != nil {
		t.Fatal(err)
	}
	if a != nil {
		t.Error("expected session to be expired")
	}
}
