package commands

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/service"
)

func TestParseTaskID(t *testing.T) {
	cases := []struct {
		args    []string
		want    int64
		wantErr bool
	}{
		{[]string{"1"}, 1, false},
		{[]string{"#42"}, 42, false},
		{[]string{"0"}, 0, true},
		{[]string{"-3"}, 0, true},
		{[]string{"#"}, 0, true},
		{[]string{"1.5"}, 0, true},
		{[]string{"abc"}, 0, true},
	}

	for _, tc := range cases {
		got, err := ParseTaskID(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error, got %d", tc.args, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.args, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %d, got %d", tc.args, tc.want, got)
		}
	}

	if _, err := ParseTaskID(nil); !errors.Is(err, ErrTaskIDRequired) {
		t.Errorf("expected ErrTaskIDRequired, got %v", err)
	}
}

func TestReportError(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{fmt.Errorf("task 3: %w", service.ErrNotFound), exitcode.UserError, "error: task not found: 3\n"},
		{fmt.Errorf("%w: title is required", service.ErrInvalid), exitcode.UserError, "error: invalid task: title is required\n"},
		{service.ErrUnauthorized, exitcode.AuthError, "error: auth error: unauthorized (run: taskdesk login)\n"},
		{errors.New("request timed out"), exitcode.BackendError, "error: backend error: request timed out\n"},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		if code := reportError(&buf, 3, tc.err); code != tc.code {
			t.Errorf("%v: expected exit code %d, got %d", tc.err, tc.code, code)
		}
		if buf.String() != tc.msg {
			t.Errorf("%v: expected %q, got %q", tc.err, tc.msg, buf.String())
		}
	}
}
