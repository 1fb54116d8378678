package pqseal

import (
	"io"
	"time"
)

// timeNow is the clock used for envelope timestamps and drift checks.
// Overridable for testing.
var timeNow = time.Now

// setRandReaderForTesting sets the random reader used by key generation.
// Returns a function to restore the original reader.
func setRandReaderForTesting(r io.Reader) func() {
	original := randReader
	randReader = r
	return func() { randReader = original }
}

// setTimeForTesting pins the clock to a fixed instant. Returns a function
// to restore the real clock.
func setTimeForTesting(t time.Time) func() {
	original := timeNow
	timeNow = func() time.Time { return t }
	return func() { timeNow = original }
}
