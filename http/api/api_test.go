package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/micromdm/nanointake/workflow"
)

func TestJSONError(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
		want   int
		code   string
	}{
		{errors.New("plain"), 0, http.StatusInternalServerError, ""},
		{
			fmt.Errorf("editing: %w", workflow.NewError(workflow.CodeUnknownSection, workflow.ErrUnknownSection)),
			http.StatusBadRequest,
			http.StatusBadRequest,
			workflow.CodeUnknownSection,
		},
	} {
		rec := httptest.NewRecorder()
		JSONError(rec, tc.err, tc.status)
		if want, have := tc.want, rec.Code; want != have {
			t.Errorf("status: want: %v, have: %v", want, have)
		}
		var body struct {
			Err  string `json:"error"`
			Code string `json:"code"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if want, have := tc.err.Error(), body.Err; want != have {
			t.Errorf("error: want: %v, have: %v", want, have)
		}
		if want, have := tc.code, body.Code; want != have {
			t.Errorf("code: want: %v, have: %v", want, have)
		}
	}
}
