package prefixcache

import "github.com/cockroachdb/errors"

// assertf builds an assertion-failure error. Callers either return it (Verify)
// or panic with it when invariantsEnabled.
func assertf(format string, args ...interface{}) error {
	return errors.AssertionFailedf(format, args...)
}

// mustHold panics with the given assertion when cond is false. It is a no-op
// unless invariantsEnabled.
func mustHold(cond bool, format string, args ...interface{}) {
	if invariantsEnabled && !cond {
		panic(assertf(format, args...))
	}
}
