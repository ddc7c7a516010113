// Package exitcode defines exit codes for the CLI.
package exitcode

// Process exit codes.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid task, task not found).
	UserError = 1

	// AuthError indicates an rejected or missing credentials.
	AuthError = 2

	// BackendError indicates a task API, network or store failure.
	BackendError = 3
)
