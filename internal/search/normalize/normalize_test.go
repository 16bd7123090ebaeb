package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "persian digits",
			input:    "۰۱۲۳۴۵۶۷۸۹",
			expected: "0123456789",
		},
		{
			name:     "arabic-indic digits",
			input:    "٠١٢٣٤٥٦٧٨٩",
			expected: "0123456789",
		},
		{
			name:     "mixed glyphs inside persian text",
			input:    "خانه ۲ خوابه تا ٣ تومن",
			expected: "خانه 2 خوابه تا 3 تومن",
		},
		{
			name:     "latin digits pass through",
			input:    "apartment 3 rooms 120m",
			expected: "apartment 3 rooms 120m",
		},
		{
			name:     "no digits at all",
			input:    "ویلا نوساز سنددار",
			expected: "ویلا نوساز سنددار",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Digits(tt.input))
		})
	}
}

func TestDigits_Idempotent(t *testing.T) {
	inputs := []string{
		"۰۱۲۳۴۵۶۷۸۹",
		"آپارتمان ۲ خوابه بین ۱۸۰۰ تا ۲۵۰۰ تومن",
		"plain latin 42",
		"",
	}

	for _, in := range inputs {
		once := Digits(in)
		assert.Equal(t, once, Digits(once), "normalize must be idempotent for %q", in)
	}
}
