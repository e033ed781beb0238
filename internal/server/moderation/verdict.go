package moderation

// Status is the three-way outcome of a moderation check.
type Status string

const (
	StatusSafe   Status = "safe"
	StatusUnsafe Status = "unsafe"
	// StatusError marks an infrastructure fault during the check. It must
	// never be collapsed into safe or unsafe: the caller rejects the upload
	// without counting a violation against the user.
	StatusError Status = "error"
)

// Verdict is a per-upload decision input; it is never persisted.
type Verdict struct {
	Status Status
	Reason string
}
