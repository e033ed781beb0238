package upload

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// RejectionCode distinguishes the policy outcomes a caller may want to map
// to different responses.
type RejectionCode string

const (
	// CodeBanned: the account has an active ban record.
	CodeBanned RejectionCode = "banned"
	// CodeUnsafe: the moderation oracle flagged the content.
	CodeUnsafe RejectionCode = "unsafe"
	// CodeModerationError: the security check itself failed. The upload is
	// rejected but no violation is recorded.
	CodeModerationError RejectionCode = "moderation_error"
)

// PolicyError is an expected business rejection, surfaced to the caller
// with a human-readable reason. It is never logged as a system error.
type PolicyError struct {
	Code   RejectionCode
	Reason string
}

func (e *PolicyError) Error() string {
	return e.Reason
}

// QuotaExceededError reports a quota rejection with the numbers the user
// needs to act on it.
type QuotaExceededError struct {
	QuotaBytes int64
	UsageBytes int64
	FileBytes  int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded: limit %s, usage %s, file %s",
		humanize.IBytes(uint64(e.QuotaBytes)),
		humanize.IBytes(uint64(e.UsageBytes)),
		humanize.IBytes(uint64(e.FileBytes)))
}
