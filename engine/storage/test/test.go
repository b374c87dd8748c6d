package test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/micromdm/nanointake/engine/storage"
	"github.com/micromdm/nanointake/workflow"
)

// testSnapshot returns a snapshot a few states into the workflow with a draft.
func testSnapshot(t *testing.T) *workflow.Snapshot {
	t.Helper()
	s := workflow.NewSnapshot()
	var err error
	for _, ev := range []workflow.Event{
		workflow.SubmitPrivacyStatement{Data: workflow.PrivacyStatement{AgreedToTerms: true}},
		workflow.SubmitRequestDetails{Data: workflow.RequestDetails{Scenario: "for-self", Type: "first-time"}},
		workflow.SetFormData{
			Section: workflow.SectionPrimaryDocuments,
			Draft: workflow.Draft{
				Values: map[string]string{"givenName": "John"},
				Errors: workflow.FieldErrors{"lastName": "required"},
			},
		},
	} {
		if s, err = workflow.Default.Transition(s, ev); err != nil {
			t.Fatal(err)
		}
	}
	return &s
}

func TestFlowStorage(t *testing.T, newStorage func() storage.AllStorage) {
	s := newStorage()
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		snap, err := s.RetrieveSnapshot(ctx, "sess-missing", "flow-missing")
		if err != nil {
			t.Fatal(err)
		}
		if snap != nil {
			t.Errorf("expected nil snapshot, have: %+v", snap)
		}
	})

	t.Run("roundTrip", func(t *testing.T) {
		want := testSnapshot(t)
		if err := s.StoreSnapshot(ctx, "sess-rt", "flow-rt", want); err != nil {
			t.Fatal(err)
		}
		have, err := s.RetrieveSnapshot(ctx, "sess-rt", "flow-rt")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(want, have) {
			t.Errorf("snapshot not equal:\nwant: %+v\nhave: %+v", want, have)
		}

		// overwrite
		next, err := workflow.Default.Transition(*have, workflow.Prev{})
		if err != nil {
			t.Fatal(err)
		}
		if err = s.StoreSnapshot(ctx, "sess-rt", "flow-rt", &next); err != nil {
			t.Fatal(err)
		}
		have, err = s.RetrieveSnapshot(ctx, "sess-rt", "flow-rt")
		if err != nil {
			t.Fatal(err)
		}
		if want, have := workflow.StateRequestDetails, have.State; want != have {
			t.Errorf("state: want: %v, have: %v", want, have)
		}
	})

	t.Run("isolation", func(t *testing.T) {
		a := testSnapshot(t)
		b := workflow.NewSnapshot()
		if err := s.StoreSnapshot(ctx, "sess-iso", "flow-a", a); err != nil {
			t.Fatal(err)
		}
		if err := s.StoreSnapshot(ctx, "sess-iso", "flow-b", &b); err != nil {
			t.Fatal(err)
		}
		// same flow id in a different session
		if err := s.StoreSnapshot(ctx, "sess-iso-2", "flow-a", &b); err != nil {
			t.Fatal(err)
		}

		haveA, err := s.RetrieveSnapshot(ctx, "sess-iso", "flow-a")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(a, haveA) {
			t.Error("flow-a changed by writes to other flows")
		}
		haveB, err := s.RetrieveSnapshot(ctx, "sess-iso", "flow-b")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(&b, haveB) {
			t.Error("flow-b not equal")
		}
		haveA2, err := s.RetrieveSnapshot(ctx, "sess-iso-2", "flow-a")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(&b, haveA2) {
			t.Error("flow-a in second session not equal")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		snap := workflow.NewSnapshot()
		if err := s.StoreSnapshot(ctx, "", "flow", &snap); !errors.Is(err, storage.ErrMissingSessionID) {
			t.Errorf("expected missing session id error, have: %v", err)
		}
		if err := s.StoreSnapshot(ctx, "sess", "", &snap); !errors.Is(err, storage.ErrMissingFlowID) {
			t.Errorf("expected missing flow id error, have: %v", err)
		}
		if err := s.StoreSnapshot(ctx, "sess", "flow", nil); !errors.Is(err, storage.ErrNilSnapshot) {
			t.Errorf("expected nil snapshot error, have: %v", err)
		}
		if _, err := s.RetrieveSnapshot(ctx, "", "flow"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("expire", func(t *testing.T) {
		testExpire(t, newStorage())
	})
}

func testExpire(t *testing.T, s storage.AllStorage) {
	ctx := context.Background()
	snap := workflow.NewSnapshot()

	for _, id := range [][2]string{{"sess-exp-1", "f1"}, {"sess-exp-1", "f2"}, {"sess-exp-2", "f1"}} {
		if err := s.StoreSnapshot(ctx, id[0], id[1], &snap); err != nil {
			t.Fatal(err)
		}
	}

	// nothing was last seen an hour ago
	if _, err := s.ExpireSessions(ctx, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	have, err := s.RetrieveSnapshot(ctx, "sess-exp-1", "f2")
	if err != nil {
		t.Fatal(err)
	}
	if have == nil {
		t.Fatal("session expired too early")
	}

	ct, err := s.ExpireSessions(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if ct < 2 {
		t.Errorf("expired sessions: want at least: 2, have: %d", ct)
	}
	for _, id := range [][2]string{{"sess-exp-1", "f1"}, {"sess-exp-1", "f2"}, {"sess-exp-2", "f1"}} {
		have, err := s.RetrieveSnapshot(ctx, id[0], id[1])
		if err != nil {
			t.Fatal(err)
		}
		if have != nil {
			t.Errorf("flow %s/%s not expired", id[0], id[1])
		}
	}
}
