package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnquote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"double quotes", `"Chainlink"`, "Chainlink"},
		{"single quotes", `'Chainlink'`, "Chainlink"},
		{"unquoted passes through", "Chainlink", "Chainlink"},
		{"mismatched quotes untouched", `"Chainlink'`, `"Chainlink'`},
		{"only one strip", `""Chainlink""`, `"Chainlink"`},
		{"empty string", "", ""},
		{"single quote char", `"`, `"`},
		{"empty quoted", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unquote(tt.in))
		})
	}
}

func TestNormalizeOracles(t *testing.T) {
	got := NormalizeOracles([]string{"TWAP", "Chainlink", "TWAP", "Band"})
	assert.Equal(t, []string{"Band", "Chainlink", "TWAP"}, got)
}

func TestNormalizeOracles_Empty(t *testing.T) {
	got := NormalizeOracles(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeBreakdown_DropsEmptyAndSorts(t *testing.T) {
	got := NormalizeBreakdown([]BreakdownEntry{
		{Name: "Pyth", Type: "secondary"},
		{Name: "", Type: ""},
		{Name: "Chainlink", Type: "primary"},
		{Name: "Chainlink", Type: "fallback"},
		{Name: "", Type: "primary"},
	})

	assert.Equal(t, []BreakdownEntry{
		{Name: "", Type: "primary"},
		{Name: "Chainlink", Type: "fallback"},
		{Name: "Chainlink", Type: "primary"},
		{Name: "Pyth", Type: "secondary"},
	}, got)
}
