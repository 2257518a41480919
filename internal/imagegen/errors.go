package imagegen

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrEmptyPrompt        = errors.New("prompt is required")
	ErrPromptTooLong      = errors.New("prompt too long")
	ErrProhibitedContent  = errors.New("prompt contains prohibited content")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrInvalidPrompt      = errors.New("prompt rejected by image service")
	ErrServiceRateLimited = errors.New("image service rate limited")
	ErrServiceUnavailable = errors.New("image service unavailable")
	ErrLedgerUnavailable  = errors.New("usage ledger unavailable")
)

const (
	WindowDaily   = "daily"
	WindowMonthly = "monthly"
)

// QuotaError reports which window was exhausted. It matches ErrQuotaExceeded.
type QuotaError struct {
	Window string
	Used   int
	Limit  int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded: used %d of %d", e.Window, e.Used, e.Limit)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// PromptLengthError reports a prompt over the plan cap. It matches
// ErrPromptTooLong.
type PromptLengthError struct {
	Length int
	Max    int
}

func (e *PromptLengthError) Error() string {
	return fmt.Sprintf("prompt is %d characters, maximum is %d", e.Length, e.Max)
}

func (e *PromptLengthError) Is(target error) bool {
	return target == ErrPromptTooLong
}
