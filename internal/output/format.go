// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskdesk/internal/service"
)

const (
	// EmptyList is printed when there are no tasks.
	EmptyList = "no tasks found"

	// TimeLayout renders timestamps in local time.
	TimeLayout = "2006-01-02 15:04"
)

// Location is where timestamps are rendered. Tests pin it to UTC.
var Location = time.Local

// FormatTask formats a task line for the list.
// Format: "{ID:>4}  [x] {TITLE}\n" with "[ ]" for open tasks.
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", task.ID, checkbox(task.Completed), normalizeTitle(task.Title))
}

// FormatTaskDetail formats one task with its description and timestamp.
func FormatTaskDetail(w io.Writer, task service.Task) {
	FormatTask(w, task)
	if desc := strings.TrimSpace(task.Description); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "        %s\n", strings.TrimRight(line, "\r"))
		}
	}
	fmt.Fprintf(w, "        created %s\n", FormatTimestamp(task.Timestamp))
}

// FormatTimestamp renders t in Location, or "-" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(Location).Format(TimeLayout)
}

func checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
