package core

// decode.go turns uploaded bytes into text before tokenization.
//
// Files exported from spreadsheet tools arrive in many encodings. The caller
// names one (a WHATWG label such as "utf-8" or "windows-1251") and a fallback
// is tried when the bytes are not valid in the requested encoding. A byte
// order mark always wins over the requested label, the same way browsers
// treat it.

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Default encodings.
const (
	DefaultEncoding         = "utf-8"
	DefaultFallbackEncoding = "windows-1251"
)

// ErrUnknownEncoding is returned when neither the requested nor the fallback
// label names a supported encoding.
var ErrUnknownEncoding = errors.New("unknown encoding")

var errInvalidBytes = errors.New("invalid byte sequence")

// DecodeOptions selects the encoding used to read a file.
type DecodeOptions struct {
	Encoding string // Requested label (default: utf-8)
	Fallback string // Used when Encoding is unknown or does not fit the bytes (default: windows-1251)
}

func (o DecodeOptions) withDefaults() DecodeOptions {
	if o.Encoding == "" {
		o.Encoding = DefaultEncoding
	}
	if o.Fallback == "" {
		o.Fallback = DefaultFallbackEncoding
	}
	return o
}

// DecodeInfo reports how a file was decoded.
type DecodeInfo struct {
	Requested string `json:"requested"`
	Used      string `json:"used"`
	FellBack  bool   `json:"fellBack"`
}

// Decode converts data to a string.
//
// The requested encoding is tried first, then the fallback. If both labels
// are known but neither fits, invalid sequences are replaced with U+FFFD and
// the text is returned as UTF-8.
func Decode(data []byte, opts DecodeOptions) (string, DecodeInfo, error) {
	opts = opts.withDefaults()
	info := DecodeInfo{Requested: opts.Encoding}

	data, bomLabel := stripBOM(data)
	requested := opts.Encoding
	if bomLabel != "" {
		requested = bomLabel
	}

	text, name, errReq := decodeAs(data, requested)
	if errReq == nil {
		info.Used = name
		return text, info, nil
	}

	info.FellBack = true
	text, name, errFb := decodeAs(data, opts.Fallback)
	if errFb == nil {
		info.Used = name
		return text, info, nil
	}

	if errors.Is(errReq, ErrUnknownEncoding) && errors.Is(errFb, ErrUnknownEncoding) {
		return "", info, fmt.Errorf("%w: %q and %q", ErrUnknownEncoding, opts.Encoding, opts.Fallback)
	}

	info.Used = DefaultEncoding
	return string(sanitizeUTF8(data)), info, nil
}

// SupportedEncoding reports whether label names an encoding Decode can use.
func SupportedEncoding(label string) bool {
	_, err := htmlindex.Get(label)
	return err == nil
}

// decodeAs decodes data with the encoding named by label and returns the
// canonical encoding name.
func decodeAs(data []byte, label string) (string, string, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}

	if name == "utf-8" {
		if !utf8.Valid(data) {
			return "", name, errInvalidBytes
		}
		return string(data), name, nil
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", name, fmt.Errorf("%w: %v", errInvalidBytes, err)
	}
	return string(out), name, nil
}

// Byte order marks and the encodings they imply.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// stripBOM removes a leading byte order mark. The returned label is empty
// when there was none.
func stripBOM(data []byte) ([]byte, string) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8"
	case bytes.HasPrefix(data, bomUTF16LE):
		return data[len(bomUTF16LE):], "utf-16le"
	case bytes.HasPrefix(data, bomUTF16BE):
		return data[len(bomUTF16BE):], "utf-16be"
	}
	return data, ""
}

// sanitizeUTF8 replaces invalid UTF-8 bytes with the replacement character.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}

	return buf.Bytes()
}
