package source

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decode turns raw bytes into valid UTF-8 text. It never fails: input that is
// not valid UTF-8 is read as ISO-8859-1, one byte per character, and lossy is
// reported so callers can flag the file.
func Decode(raw []byte) (text []byte, lossy bool) {
	if utf8.Valid(raw) {
		return raw, false
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// latin-1 maps every byte, the decoder cannot fail in practice
		out = make([]byte, 0, len(raw)*2)
		for _, b := range raw {
			out = utf8.AppendRune(out, rune(b))
		}
	}
	return out, true
}

// DecodeString is Decode for callers that hold text as a string.
func DecodeString(raw []byte) (string, bool) {
	text, lossy := Decode(raw)
	return string(text), lossy
}
