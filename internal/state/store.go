// Package state caches check results in SQLite so unchanged files are not
// parsed again.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Status is the outcome of checking one file.
type Status string

// Check statuses.
const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// CheckRun records one invocation of the check command.
type CheckRun struct {
	ID          string
	Dialect     string
	StartedAt   time.Time
	CompletedAt *time.Time
	Files       int
	Failures    int
}

// CheckResult is the cached outcome for a file at a given content hash.
type CheckResult struct {
	FilePath    string
	ContentHash string
	Dialect     string
	Status      Status
	Message     string
	CheckedAt   time.Time
}

// OK reports whether the file parsed.
func (r *CheckResult) OK() bool {
	return r.Status == StatusOK
}

// HashContent returns the hex SHA-256 of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
