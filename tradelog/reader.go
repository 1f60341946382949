package tradelog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported values for Options.Encoding.
const (
	EncodingAuto        = "auto"
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingWindows1251 = "windows-1251"
)

// ErrMalformedInput is returned when the delimiter or the header of the
// trade log cannot be recognised.
var ErrMalformedInput = errors.New("malformed trade log")

// decode converts raw export bytes to UTF-8. The analytics tool writes
// either UTF-16 with a BOM or a Windows-1251 code page depending on version.
func decode(raw []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingAuto:
	case EncodingUTF8, "utf8":
		return bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")), nil
	case EncodingUTF16, "utf16":
		return transformAll(raw, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	case EncodingWindows1251, "cp1251":
		return transformAll(raw, charmap.Windows1251.NewDecoder())
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}

	switch {
	case bytes.HasPrefix(raw, []byte{0xff, 0xfe}), bytes.HasPrefix(raw, []byte{0xfe, 0xff}):
		return transformAll(raw, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case bytes.HasPrefix(raw, []byte("\xef\xbb\xbf")):
		return raw[3:], nil
	case utf8.Valid(raw):
		return raw, nil
	}
	return transformAll(raw, charmap.Windows1251.NewDecoder())
}

func transformAll(raw []byte, t transform.Transformer) ([]byte, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), t))
	if err != nil {
		return nil, fmt.Errorf("decode trade log: %w", err)
	}
	return out, nil
}

// readRecords parses the table with comma, falling back to semicolon when
// the comma parse yields a single column. comma forces a delimiter.
func readRecords(text []byte, name string, comma rune) ([][]string, error) {
	if comma != 0 {
		recs, err := parseCSV(text, comma)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedInput, name, err)
		}
		if columns(recs) <= 1 {
			return nil, fmt.Errorf("%w: %s: single column with delimiter %q", ErrMalformedInput, name, comma)
		}
		return recs, nil
	}

	var lastErr error
	for _, c := range []rune{',', ';'} {
		recs, err := parseCSV(text, c)
		if err != nil {
			lastErr = err
			continue
		}
		if columns(recs) > 1 {
			return recs, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedInput, name, lastErr)
	}
	return nil, fmt.Errorf("%w: %s: a single column with both ',' and ';'", ErrMalformedInput, name)
}

func parseCSV(text []byte, comma rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func columns(recs [][]string) int {
	if len(recs) == 0 {
		return 0
	}
	return len(recs[0])
}
