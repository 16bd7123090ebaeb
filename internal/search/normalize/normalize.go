// Package normalize converts Persian and Arabic-Indic digit glyphs to their
// Latin equivalents. Pure, total, idempotent.
package normalize

import "strings"

var digitReplacer = strings.NewReplacer(
	// Persian digits (Extended Arabic-Indic, U+06F0..U+06F9)
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	// Arabic-Indic digits (U+0660..U+0669)
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// Digits replaces every Persian or Arabic-Indic digit with its Latin
// equivalent and leaves all other characters untouched.
func Digits(text string) string {
	return digitReplacer.Replace(text)
}
