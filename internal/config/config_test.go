package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvCodes_UpperCases(t *testing.T) {
	t.Setenv("HOURS_BANK_DEDUCTING_CODES", " bh, f47 ,,Bh2")

	assert.Equal(t, []string{"BH", "F47", "BH2"}, getEnvCodes("HOURS_BANK_DEDUCTING_CODES", "BH"))
}

func TestGetEnvCodes_Fallback(t *testing.T) {
	t.Setenv("FULL_DAY_ABSENCE_CODES", "")

	assert.Equal(t, []string{"F50"}, getEnvCodes("FULL_DAY_ABSENCE_CODES", "f50"))
}
