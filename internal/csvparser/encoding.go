package csvparser

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is one candidate text encoding tried on an upload.
type Encoding struct {
	Name   string
	Decode func(data []byte) (string, error)
}

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	errNoBOM      = errors.New("no UTF-8 byte order mark")
	errInvalidUTF = errors.New("invalid UTF-8 sequence")
	errUndefined  = errors.New("byte undefined in Windows-1252")
)

// Bytes Windows-1252 leaves unassigned. x/text maps them to C1 controls, so
// they are rejected up front to keep Latin-1 as the last resort.
var undefined1252 = []byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}

// DefaultEncodings returns the candidate encodings in trial order.
func DefaultEncodings() []Encoding {
	return []Encoding{
		{Name: "utf-8-sig", Decode: decodeUTF8BOM},
		{Name: "utf-8", Decode: decodeUTF8},
		{Name: "windows-1252", Decode: decodeWindows1252},
		{Name: "latin-1", Decode: decodeLatin1},
	}
}

func decodeUTF8BOM(data []byte) (string, error) {
	if !bytes.HasPrefix(data, utf8BOM) {
		return "", errNoBOM
	}
	if !utf8.Valid(data) {
		return "", errInvalidUTF
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errInvalidUTF
	}
	return string(data), nil
}

func decodeWindows1252(data []byte) (string, error) {
	for _, b := range data {
		if bytes.IndexByte(undefined1252, b) >= 0 {
			return "", errUndefined
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeLatin1(data []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
