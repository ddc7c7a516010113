package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest title a backend accepts, in characters.
const MaxTitleLength = 100

// Task represents a single task item.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Timestamp   time.Time `json:"timestamp"`
}

// Draft is the input for creating a task.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate checks the fields a user can edit.
func (t Task) Validate() error {
	return validateTitle(t.Title)
}

// Validate checks the draft title.
func (d Draft) Validate() error {
	return validateTitle(d.Title)
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title longer than %d characters", ErrInvalid, MaxTitleLength)
	}
	return nil
}
