package unicode

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/tinytoy-sec/onfiprobe/pkg/log"
)

// ONFIToUTF8 decodes a space padded ISO-8859-1 string field such as the
// manufacturer or model.
func ONFIToUTF8(input []byte) string {
	output, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), input)
	if err != nil {
		log.Errorf("unable to decode ONFI string: %v", err)
		return string(input)
	}
	// Padding is spaces per the standard, some parts use NULs.
	return string(bytes.TrimRight(output, " \x00"))
}

// UTF8ToONFI encodes input into an n byte space padded ISO-8859-1 field.
// Unrepresentable runes are replaced and overlong input is truncated.
func UTF8ToONFI(input string, n int) []byte {
	e := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	output, _, err := transform.Bytes(e, []byte(input))
	if err != nil {
		log.Errorf("unable to encode ONFI string: %v", err)
		output = []byte(input)
	}
	field := bytes.Repeat([]byte{' '}, n)
	copy(field, output)
	return field
}
