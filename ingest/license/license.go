// Package license implements the run-wide license-risk gate.
//
// Risk levels form a total order low < medium < high. A source is admissible
// when its declared risk does not exceed the run's configured ceiling; the
// check happens before the adapter is invoked, so inadmissible sources cost
// no network or parse work.
package license

import (
	"strings"

	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
)

// rank positions in the total order. Unknown levels rank above high so a
// corrupted risk label never slips past a stricter ceiling.
func rank(r types.LicenseRisk) int {
	switch r {
	case types.LicenseRiskLow:
		return 0
	case types.LicenseRiskMedium:
		return 1
	case types.LicenseRiskHigh:
		return 2
	default:
		return 3
	}
}

// IsAdmissible reports whether a source with sourceRisk may run under
// ceilingRisk.
func IsAdmissible(sourceRisk, ceilingRisk types.LicenseRisk) bool {
	return rank(sourceRisk) <= rank(ceilingRisk)
}

// Normalize maps an arbitrary case-insensitive string to one of the three
// levels, or to fallback if unrecognized.
func Normalize(raw string, fallback types.LicenseRisk) types.LicenseRisk {
	switch types.LicenseRisk(strings.ToLower(strings.TrimSpace(raw))) {
	case types.LicenseRiskLow:
		return types.LicenseRiskLow
	case types.LicenseRiskMedium:
		return types.LicenseRiskMedium
	case types.LicenseRiskHigh:
		return types.LicenseRiskHigh
	default:
		return fallback
	}
}

// SkipReason is the structured reason recorded when a source is excluded by
// the gate, e.g. "license_risk_high".
func SkipReason(sourceRisk types.LicenseRisk) string {
	return "license_risk_" + string(sourceRisk)
}
