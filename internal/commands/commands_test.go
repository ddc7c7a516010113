package commands_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/output"
	"taskdesk/internal/service"
	"taskdesk/internal/testutil"
)

// runCommand runs cmd against svc and returns stdout, stderr and the exit code.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}

	var s service.Service
	if svc != nil {
		s = svc
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, s, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskdesk 0.1.0\n" {
		t.Errorf("expected %q, got %q", "taskdesk 0.1.0\n", stdout)
	}
}

func TestHelpCommand_ListsEveryCommand(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	for _, cmd := range commands.DefaultRegistry.All() {
		if !strings.Contains(stdout, cmd.Usage()) {
			t.Errorf("help output is missing %q", cmd.Usage())
		}
	}
	if !strings.Contains(stdout, "--url <url>") {
		t.Error("help output is missing the common flags")
	}
}

func TestRegistry_Aliases(t *testing.T) {
	cases := map[string]string{
		"ls":     "list",
		"create": "add",
		"delete": "rm",
		"reopen": "undone",
		"web":    "serve",
		"api":    "server",
	}
	for alias, name := range cases {
		cmd, ok := commands.DefaultRegistry.Find(alias)
		if !ok {
			t.Errorf("alias %q not registered", alias)
			continue
		}
		if cmd.Name() != name {
			t.Errorf("alias %q: expected %q, got %q", alias, name, cmd.Name())
		}
	}
}

func TestListCommand_EmptyState(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected empty-state message, got %q", stdout)
	}

	stdout, _, _ = runCommand(t, &commands.ListCmd{}, svc, nil, true)
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
}

func TestListCommand_NewestFirst(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", "2%", false)
	svc.AddTask("Walk dog", "", true)

	stdout, _, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   2  [x] Walk dog\n   1  [ ] Buy milk\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_OpenOnly(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", "", false)
	svc.AddTask("Walk dog", "", true)

	cmd := &commands.ListCmd{}
	cmd.SetOpenOnly(true)
	stdout, _, _ := runCommand(t, cmd, svc, nil, false)

	if stdout != "   1  [ ] Buy milk\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestListCommand_Errors(t *testing.T) {
	cases := []struct {
		err    error
		code   int
		stderr string
	}{
		{service.ErrUnauthorized, exitcode.AuthError, "error: auth error: unauthorized (run: taskdesk login)\n"},
		{errors.New("connection refused"), exitcode.BackendError, "error: backend error: connection refused\n"},
	}

	for _, tc := range cases {
		svc := testutil.NewFakeService()
		svc.ListTasksErr = tc.err

		stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)
		if code != tc.code {
			t.Errorf("%v: expected exit code %d, got %d", tc.err, tc.code, code)
		}
		if stdout != "" {
			t.Errorf("%v: expected no stdout, got %q", tc.err, stdout)
		}
		if stderr != tc.stderr {
			t.Errorf("%v: expected %q, got %q", tc.err, tc.stderr, stderr)
		}
	}
}

func TestShowCommand(t *testing.T) {
	prev := output.Location
	output.Location = time.UTC
	t.Cleanup(func() { output.Location = prev })

	svc := testutil.NewFakeService()
	task := svc.AddTask("Buy milk", "2%", true)

	stdout, _, code := runCommand(t, &commands.ShowCmd{}, svc, []string{fmt.Sprint(task.ID)}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   1  [x] Buy milk\n        2%\n        created 2026-01-02 15:04\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestAddCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	cmd := &commands.AddCmd{}
	cmd.SetDescription("from the corner shop")

	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Buy", "milk"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d: %s", exitcode.Success, code, stderr)
	}
	if stdout != "created 1\n" {
		t.Errorf("expected %q, got %q", "created 1\n", stdout)
	}

	tasks, _ := svc.ListTasks(context.Background())
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "Buy milk" || tasks[0].Description != "from the corner shop" || tasks[0].Completed {
		t.Errorf("unexpected task %+v", tasks[0])
	}
}

func TestAddCommand_Validation(t *testing.T) {
	cases := []struct {
		args   []string
		stderr string
	}{
		{nil, "error: title required\n"},
		{[]string{" ", ""}, "error: title required\n"},
		{[]string{strings.Repeat("x", service.MaxTitleLength+1)}, "error: invalid task: title longer than 100 characters\n"},
	}

	for _, tc := range cases {
		svc := testutil.NewFakeService()

		stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, tc.args, false)
		if code != exitcode.UserError {
			t.Errorf("%q: expected exit code %d, got %d", tc.args, exitcode.UserError, code)
		}
		if stdout != "" {
			t.Errorf("%q: expected no stdout, got %q", tc.args, stdout)
		}
		if stderr != tc.stderr {
			t.Errorf("%q: expected %q, got %q", tc.args, tc.stderr, stderr)
		}
		if tasks, _ := svc.ListTasks(context.Background()); len(tasks) != 0 {
			t.Errorf("%q: expected no task created", tc.args)
		}
	}
}

func TestEditCommand_KeepsUnchangedFields(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("Draft", "keep me", true)

	cmd := &commands.EditCmd{}
	cmd.SetTitle("Final")
	stdout, _, code := runCommand(t, cmd, svc, []string{"#1"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected ok, got %q", stdout)
	}

	got, _ := svc.GetTask(context.Background(), task.ID)
	if got.ID != task.ID || got.Title != "Final" || got.Description != "keep me" || !got.Completed {
		t.Errorf("unexpected task after edit %+v", got)
	}
	if !got.Timestamp.Equal(task.Timestamp) {
		t.Errorf("timestamp changed: %v -> %v", task.Timestamp, got.Timestamp)
	}
}

func TestEditCommand_ClearDescription(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("Draft", "remove me", false)

	cmd := &commands.EditCmd{}
	cmd.SetDescription("")
	_, _, code := runCommand(t, cmd, svc, []string{"1"}, true)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	got, _ := svc.GetTask(context.Background(), task.ID)
	if got.Description != "" || got.Title != "Draft" {
		t.Errorf("unexpected task after edit %+v", got)
	}
}

func TestEditCommand_Errors(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Draft", "", false)

	_, stderr, code := runCommand(t, &commands.EditCmd{}, svc, []string{"1"}, false)
	if code != exitcode.UserError || stderr != "error: nothing to change (use --title or --description)\n" {
		t.Errorf("no flags: got %d %q", code, stderr)
	}

	cmd := &commands.EditCmd{}
	cmd.SetTitle("   ")
	_, stderr, code = runCommand(t, cmd, svc, []string{"1"}, false)
	if code != exitcode.UserError || stderr != "error: invalid task: title is required\n" {
		t.Errorf("blank title: got %d %q", code, stderr)
	}
	if n := svc.Calls("UpdateTask"); n != 1 {
		t.Errorf("expected the blank title to reach the service once, got %d", n)
	}

	cmd = &commands.EditCmd{}
	cmd.SetTitle("x")
	_, stderr, code = runCommand(t, cmd, svc, []string{"42"}, false)
	if code != exitcode.UserError || stderr != "error: task not found: 42\n" {
		t.Errorf("unknown task: got %d %q", code, stderr)
	}
}

func TestRmCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", "", false)
	svc.AddTask("Walk dog", "", false)

	stdout, _, code := runCommand(t, &commands.RmCmd{}, svc, []string{"1"}, false)
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("expected ok, got %d %q", code, stdout)
	}

	tasks, _ := svc.ListTasks(context.Background())
	if len(tasks) != 1 || tasks[0].Title != "Walk dog" {
		t.Errorf("unexpected tasks after rm: %+v", tasks)
	}

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"1"}, false)
	if code != exitcode.UserError || stderr != "error: task not found: 1\n" {
		t.Errorf("second rm: got %d %q", code, stderr)
	}
}

func TestDoneUndoneToggle(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("Buy milk", "2%", false)
	id := []string{fmt.Sprint(task.ID)}

	completed := func() bool {
		got, _ := svc.GetTask(context.Background(), task.ID)
		if got.Title != "Buy milk" || got.Description != "2%" {
			t.Errorf("toggle changed more than completed: %+v", got)
		}
		return got.Completed
	}

	if _, _, code := runCommand(t, &commands.DoneCmd{}, svc, id, false); code != exitcode.Success || !completed() {
		t.Error("done did not complete the task")
	}
	// done is idempotent
	if _, _, code := runCommand(t, &commands.DoneCmd{}, svc, id, false); code != exitcode.Success || !completed() {
		t.Error("second done changed the task")
	}
	if _, _, code := runCommand(t, &commands.UndoneCmd{}, svc, id, false); code != exitcode.Success || completed() {
		t.Error("undone did not reopen the task")
	}
	if _, _, code := runCommand(t, &commands.ToggleCmd{}, svc, id, false); code != exitcode.Success || !completed() {
		t.Error("toggle did not flip the task")
	}
	if _, _, code := runCommand(t, &commands.ToggleCmd{}, svc, id, false); code != exitcode.Success || completed() {
		t.Error("second toggle did not flip the task back")
	}
}

func TestToggleCommand_NotFound(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := runCommand(t, &commands.ToggleCmd{}, svc, []string{"9"}, false)
	if code != exitcode.UserError || stderr != "error: task not found: 9\n" {
		t.Errorf("got %d %q", code, stderr)
	}
	if n := svc.Calls("ToggleTask"); n != 0 {
		t.Errorf("expected no toggle call for a missing task, got %d", n)
	}
}

func TestTaskIDCommands_BadArgs(t *testing.T) {
	cmds := []commands.Command{
		&commands.ShowCmd{},
		&commands.RmCmd{},
		&commands.DoneCmd{},
		&commands.UndoneCmd{},
		&commands.ToggleCmd{},
	}
	cases := []struct {
		args   []string
		stderr string
	}{
		{nil, "error: task id required\n"},
		{[]string{"abc"}, "error: invalid task id: abc\n"},
		{[]string{"1", "2"}, "error: unexpected argument: 2\n"},
	}

	for _, cmd := range cmds {
		for _, tc := range cases {
			svc := testutil.NewFakeService()
			svc.AddTask("Buy milk", "", false)

			_, stderr, code := runCommand(t, cmd, svc, tc.args, false)
			if code != exitcode.UserError {
				t.Errorf("%s %q: expected exit code %d, got %d", cmd.Name(), tc.args, exitcode.UserError, code)
			}
			if stderr != tc.stderr {
				t.Errorf("%s %q: expected %q, got %q", cmd.Name(), tc.args, tc.stderr, stderr)
			}
		}
	}
}
