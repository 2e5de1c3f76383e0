package sequence

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// decodeText converts meta event text to UTF-8. Text that is not valid
// UTF-8 is treated as Shift_JIS, which Japanese sequencers write.
func decodeText(s string) string {
	if utf8.ValidString(s) {
		return strings.TrimSpace(s)
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().String(s)
	if err != nil {
		return strings.TrimSpace(strings.ToValidUTF8(s, "?"))
	}
	return strings.TrimSpace(decoded)
}
