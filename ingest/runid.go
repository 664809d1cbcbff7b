package ingest

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

// newRunID builds a sortable run identifier: a UTC timestamp plus a short
// base58 suffix so two runs started within the same second stay distinct.
func newRunID(now time.Time) string {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// nanoseconds rather than aborting a batch run over an id.
		return fmt.Sprintf("run-%s-%d", now.UTC().Format("20060102-150405"), now.Nanosecond())
	}
	return fmt.Sprintf("run-%s-%s", now.UTC().Format("20060102-150405"), base58.Encode(suffix))
}
