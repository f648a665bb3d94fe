package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExceedsScale(t *testing.T) {
	cases := map[string]bool{
		"1":         false,
		"0.0001":    false,
		"1.500000":  false,
		"-2.1234":   false,
		"0.00001":   true,
		"10.12345":  true,
		"-0.000051": true,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ExceedsScale(decimal.RequireFromString(raw)), raw)
	}
}
