// FILE: lixenwraith/fanlog/sanitizer/sanitizer.go
// Package sanitizer rewrites untrusted message text before it reaches a sink,
// using bitwise filter flags paired with transforms.
// A Sanitizer holds no scratch state and is safe for concurrent use once built.
package sanitizer

import (
	"encoding/hex"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable uint64 = 1 << iota // Runes not printable per strconv.IsPrint
	FilterControl                         // unicode.IsControl
	FilterWhitespace                      // unicode.IsSpace
	FilterShellSpecial                    // '`', '$', ';', '|', '&', '>', '<', '(', ')', '#'
)

// Transform flags
const (
	TransformStrip      uint64 = 1 << iota // Drop the rune
	TransformHexEncode                     // Replace with "<XXYY>" of its UTF-8 bytes
	TransformJSONEscape                    // Backslash escape, \u00XX for other controls
)

// PolicyPreset names a pre-configured rule set
type PolicyPreset string

const (
	PolicyRaw   PolicyPreset = "raw"
	PolicyTxt   PolicyPreset = "txt"
	PolicyJSON  PolicyPreset = "json"
	PolicyShell PolicyPreset = "shell"
)

type rule struct {
	filter    uint64
	transform uint64
}

var policyRules = map[PolicyPreset][]rule{
	PolicyRaw:   {},
	PolicyTxt:   {{filter: FilterNonPrintable, transform: TransformHexEncode}},
	PolicyJSON:  {{filter: FilterControl, transform: TransformJSONEscape}},
	PolicyShell: {{filter: FilterShellSpecial | FilterWhitespace, transform: TransformStrip}},
}

// Sanitizer applies rules in insertion order; the first matching rule wins
type Sanitizer struct {
	rules []rule
	json  bool // Quote and backslash are escaped in addition to matched runes
}

// New returns a passthrough sanitizer
func New() *Sanitizer {
	return &Sanitizer{}
}

// ForPolicy returns a sanitizer built from a single preset
func ForPolicy(preset PolicyPreset) *Sanitizer {
	return New().Policy(preset)
}

// Rule appends a custom rule
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy appends the rules of a preset
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	if preset == PolicyJSON {
		s.json = true
	}
	return s
}

// Append appends the sanitized form of str to dst
func (s *Sanitizer) Append(dst []byte, str string) []byte {
	if len(s.rules) == 0 && !s.json {
		return append(dst, str...)
	}
	// Copy clean runs in one append
	start := 0
	for i, r := range str {
		if !s.needsRewrite(r) {
			continue
		}
		dst = append(dst, str[start:i]...)
		dst = s.rewrite(dst, r)
		_, w := utf8.DecodeRuneInString(str[i:])
		start = i + w
	}
	return append(dst, str[start:]...)
}

// Sanitize returns the sanitized string
func (s *Sanitizer) Sanitize(str string) string {
	return string(s.Append(make([]byte, 0, len(str)), str))
}

func (s *Sanitizer) needsRewrite(r rune) bool {
	if s.json && (r == '"' || r == '\\') {
		return true
	}
	for _, rl := range s.rules {
		if matchesFilter(r, rl.filter) {
			return true
		}
	}
	return false
}

func (s *Sanitizer) rewrite(dst []byte, r rune) []byte {
	if s.json && (r == '"' || r == '\\') {
		return append(dst, '\\', byte(r))
	}
	for _, rl := range s.rules {
		if matchesFilter(r, rl.filter) {
			return applyTransform(dst, r, rl.transform)
		}
	}
	return utf8.AppendRune(dst, r)
}

func matchesFilter(r rune, mask uint64) bool {
	if mask&FilterNonPrintable != 0 && !strconv.IsPrint(r) {
		return true
	}
	if mask&FilterControl != 0 && unicode.IsControl(r) {
		return true
	}
	if mask&FilterWhitespace != 0 && unicode.IsSpace(r) {
		return true
	}
	if mask&FilterShellSpecial != 0 {
		switch r {
		case '`', '$', ';', '|', '&', '>', '<', '(', ')', '#':
			return true
		}
	}
	return false
}

func applyTransform(dst []byte, r rune, mask uint64) []byte {
	switch {
	case mask&TransformStrip != 0:
		return dst

	case mask&TransformHexEncode != 0:
		var rb [utf8.UTFMax]byte
		n := utf8.EncodeRune(rb[:], r)
		dst = append(dst, '<')
		dst = hex.AppendEncode(dst, rb[:n])
		return append(dst, '>')

	case mask&TransformJSONEscape != 0:
		switch r {
		case '\n':
			return append(dst, '\\', 'n')
		case '\r':
			return append(dst, '\\', 'r')
		case '\t':
			return append(dst, '\\', 't')
		case '\b':
			return append(dst, '\\', 'b')
		case '\f':
			return append(dst, '\\', 'f')
		case '"', '\\':
			return append(dst, '\\', byte(r))
		}
		if r < 0x20 || r == 0x7f {
			const hexDigits = "0123456789abcdef"
			return append(dst, '\\', 'u', '0', '0', hexDigits[r>>4], hexDigits[r&0xf])
		}
		return utf8.AppendRune(dst, r)
	}
	return utf8.AppendRune(dst, r)
}
