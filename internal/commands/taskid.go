package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/service"
)

// ErrTaskIDRequired indicates no task id was provided.
var ErrTaskIDRequired = errors.New("task id required")

// ParseTaskID parses the task id from the first positional argument.
// Ids are positive integers, optionally written with a leading '#'.
func ParseTaskID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, ErrTaskIDRequired
	}
	raw := args[0]
	if len(raw) > 1 && raw[0] == '#' {
		raw = raw[1:]
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// parseTaskIDArg parses the id and reports errors. ok is false on failure.
func parseTaskIDArg(args []string, errOut io.Writer) (id int64, code int, ok bool) {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 0, exitcode.UserError, false
	}
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return 0, exitcode.UserError, false
	}
	return id, exitcode.Success, true
}

// reportError prints err and maps it to an exit code.
func reportError(errOut io.Writer, id int64, err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: task not found: %d\n", id)
		return exitcode.UserError
	case errors.Is(err, service.ErrInvalid):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: auth error: %v (run: taskdesk login)\n", err)
		return exitcode.AuthError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
