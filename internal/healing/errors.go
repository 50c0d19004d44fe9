// File: internal/healing/errors.go
package healing

import "errors"

var (
	// ErrNoCandidates means the page holds no element with the golden's
	// tag, so there is nothing to score. Healing cannot proceed.
	ErrNoCandidates = errors.New("healing: no candidate elements found")

	// ErrVerificationFailed means a synthesized locator did not resolve
	// back to an element. The resolution is discarded rather than handing
	// the caller a locator that was never seen working.
	ErrVerificationFailed = errors.New("healing: synthesized locator failed verification")

	// ErrNoGolden means a broken locator has no stored snapshot to heal
	// against, usually because its first capture failed.
	ErrNoGolden = errors.New("healing: no golden reference for locator")
)
