package image

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"sem-view/internal/semmeta"

	"golang.org/x/text/encoding/charmap"
)

// ParseCZSEM decodes the text block stored in TIFF tag 34118.
//
// The block is a sequence of lines. A line in upper case names a key
// (e.g. "AP_IMAGE_PIXEL_SIZE"); the following line holds "Label = value"
// (or "Label :value"). A value of the form "<number> <unit>" is split into
// value and unit. Unparseable lines are skipped.
func ParseCZSEM(raw []byte) semmeta.Block {
	raw = bytes.TrimRight(raw, "\x00")
	text := decodeLatin1(raw)

	block := make(semmeta.Block)
	key := ""
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		if isUpper(line) {
			key = strings.ToLower(strings.TrimSpace(line))
			continue
		}
		if key == "" {
			continue
		}

		label, value, ok := strings.Cut(line, "=")
		if !ok {
			label, value, ok = strings.Cut(line, ":")
		}
		if !ok {
			continue
		}

		value = strings.TrimSpace(value)
		unit := ""
		if parts := strings.Fields(value); len(parts) == 2 && isNumber(parts[0]) {
			value, unit = parts[0], parts[1]
		}
		block[key] = semmeta.Labeled(strings.TrimSpace(label), value, unit)
		key = ""
	}
	return block
}

// isUpper reports whether s has at least one letter and no lower-case letters.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// decodeLatin1 converts the block to UTF-8. Instruments write Latin-1, so
// the micro sign arrives as the single byte 0xB5. Valid UTF-8 is kept as is.
func decodeLatin1(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
