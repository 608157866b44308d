package runner

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// encodingFor resolves a charset name to an encoding. An empty name means
// UTF-8.
func encodingFor(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return enc, nil
}

// decodeBytes decodes process output in the named charset. Decoding problems
// are replaced, never fatal: invalid bytes become U+FFFD and an unknown
// charset falls back to raw bytes.
func decodeBytes(name string, data []byte) string {
	enc, err := encodingFor(name)
	if err != nil {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError))
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError))
	}
	return string(out)
}

// decodeReader wraps r with an incremental decoder for the named charset,
// keeping multi-byte sequences intact across read boundaries.
func decodeReader(r io.Reader, name string) io.Reader {
	enc, err := encodingFor(name)
	if err != nil {
		return r
	}
	return transform.NewReader(r, enc.NewDecoder())
}
