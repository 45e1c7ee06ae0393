package timer

import "time"

// Test-only access to package internals for the external timer_test package,
// which cannot live in package timer without an import cycle via internal/db.

var NextCronDuration = nextCronDuration

func SetNow(f func() time.Time) (restore func()) {
	orig := now
	now = f
	return func() { now = orig }
}
