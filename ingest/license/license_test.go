package license

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
)

func TestIsAdmissible(t *testing.T) {
	tests := []struct {
		source   types.LicenseRisk
		ceiling  types.LicenseRisk
		expected bool
	}{
		{types.LicenseRiskLow, types.LicenseRiskLow, true},
		{types.LicenseRiskHigh, types.LicenseRiskLow, false},
		{types.LicenseRiskMedium, types.LicenseRiskHigh, true},
		{types.LicenseRiskLow, types.LicenseRiskHigh, true},
		{types.LicenseRiskMedium, types.LicenseRiskLow, false},
		{types.LicenseRiskHigh, types.LicenseRiskHigh, true},
	}

	for _, tt := range tests {
		got := IsAdmissible(tt.source, tt.ceiling)
		assert.Equal(t, tt.expected, got, "IsAdmissible(%s, %s)", tt.source, tt.ceiling)
	}
}

func TestIsAdmissible_UnknownRiskNeverPasses(t *testing.T) {
	// A corrupted label must not sneak under any ceiling below the top
	assert.False(t, IsAdmissible(types.LicenseRisk("??"), types.LicenseRiskHigh))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw      string
		expected types.LicenseRisk
	}{
		{"low", types.LicenseRiskLow},
		{"LOW", types.LicenseRiskLow},
		{"  Medium ", types.LicenseRiskMedium},
		{"high", types.LicenseRiskHigh},
		{"", types.LicenseRiskHigh},
		{"unknown", types.LicenseRiskHigh},
	}

	for _, tt := range tests {
		got := Normalize(tt.raw, types.LicenseRiskHigh)
		assert.Equal(t, tt.expected, got, "Normalize(%q)", tt.raw)
	}
}

func TestSkipReason(t *testing.T) {
	assert.Equal(t, "license_risk_high", SkipReason(types.LicenseRiskHigh))
	assert.Equal(t, "license_risk_medium", SkipReason(types.LicenseRiskMedium))
}
