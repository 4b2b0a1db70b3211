package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		description string
		raw         string
		expected    string
	}{
		{"Should replace the national trunk prefix with the country code", "0821234567", "+27821234567"},
		{"Should leave an international number untouched", "+27821234567", "+27821234567"},
		{"Should prepend the country code to a bare local number", "821234567", "+27821234567"},
		{"Should strip spaces and dashes before normalizing", "082 123-4567", "+27821234567"},
		{"Should strip parentheses before normalizing", "(082) 123 4567", "+27821234567"},
		{"Should return empty for whitespace-only input", "   ", ""},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			assert.Equal(t, c.expected, Normalize(c.raw, "27"))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once := Normalize("0821234567", "27")
	twice := Normalize(once, "27")
	assert.Equal(t, once, twice)
}
