// Package decode turns an uploaded byte buffer into text using the first
// encoding of a fixed priority list that accepts it.
package decode

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// LossyEncoding names the result of the last-resort fallback.
const LossyEncoding = "utf-8-lossy"

var errInvalid = errors.New("invalid byte sequence")

// Strategy is one named decode attempt.
type Strategy struct {
	Name   string
	Decode func([]byte) (string, error)
}

// Result is the decoded text and the encoding that produced it.
type Result struct {
	Text     string
	Encoding string
}

var known = map[string]Strategy{
	"utf-8":        {Name: "utf-8", Decode: decodeUTF8},
	"iso-8859-1":   {Name: "iso-8859-1", Decode: charmapDecoder(charmap.ISO8859_1)},
	"windows-1252": {Name: "windows-1252", Decode: charmapDecoder(charmap.Windows1252)},
	"ascii":        {Name: "ascii", Decode: decodeASCII},
}

var aliases = map[string]string{
	"utf8":     "utf-8",
	"latin-1":  "iso-8859-1",
	"latin1":   "iso-8859-1",
	"cp1252":   "windows-1252",
	"us-ascii": "ascii",
}

// Lookup resolves an encoding name or alias.
func Lookup(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		n = a
	}
	s, ok := known[n]
	if !ok {
		return Strategy{}, fmt.Errorf("decode: unknown encoding %q", name)
	}
	return s, nil
}

// Decoder tries its strategies in order and stops at the first success.
type Decoder struct {
	strategies []Strategy
}

// NewDecoder builds a chain from encoding names. Order is significant.
func NewDecoder(names ...string) (*Decoder, error) {
	d := &Decoder{strategies: make([]Strategy, 0, len(names))}
	for _, n := range names {
		s, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		d.strategies = append(d.strategies, s)
	}
	return d, nil
}

// Encodings lists the chain in evaluation order.
func (d *Decoder) Encodings() []string {
	out := make([]string, len(d.strategies))
	for i, s := range d.strategies {
		out[i] = s.Name
	}
	return out
}

// Decode never fails: when every strategy rejects the buffer it falls back to
// lenient UTF-8 with replacement characters stripped.
func (d *Decoder) Decode(b []byte) Result {
	for _, s := range d.strategies {
		text, err := s.Decode(b)
		if err == nil {
			return Result{Text: text, Encoding: s.Name}
		}
	}
	lenient := strings.ToValidUTF8(string(b), string(utf8.RuneError))
	return Result{
		Text:     strings.ReplaceAll(lenient, string(utf8.RuneError), ""),
		Encoding: LossyEncoding,
	}
}

func decodeUTF8(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("utf-8: %w", errInvalid)
	}
	return string(b), nil
}

func decodeASCII(b []byte) (string, error) {
	for i, c := range b {
		if c >= utf8.RuneSelf {
			return "", fmt.Errorf("ascii: byte 0x%02x at offset %d: %w", c, i, errInvalid)
		}
	}
	return string(b), nil
}

func charmapDecoder(cm *charmap.Charmap) func([]byte) (string, error) {
	return func(b []byte) (string, error) {
		out, err := cm.NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("%s: %w", cm, err)
		}
		return string(out), nil
	}
}
