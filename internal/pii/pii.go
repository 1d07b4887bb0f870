// Package pii masks obvious personally identifiable information before text
// is shown to the safety classifier.
package pii

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Redacted replaces every detected email address or phone number.
const Redacted = "[REDACTED]"

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// A phone number is an optional '+', a digit, at least six digits,
// parentheses, hyphens or spaces, and a closing digit, bounded by word
// boundaries on both sides.
const phoneMinMiddle = 6

// Mask replaces email addresses and then phone-like digit runs in text with
// Redacted. The second return value reports whether anything was replaced.
//
// Phone numbers are matched against the already email-masked text, so digits
// that were part of an email address are not matched a second time.
func Mask(text string) (string, bool) {
	masked, hadEmail := replaceAll(emailPattern, text)
	masked, hadPhone := maskPhones(masked)
	return masked, hadEmail || hadPhone
}

func replaceAll(re *regexp.Regexp, s string) (string, bool) {
	if !re.MatchString(s) {
		return s, false
	}
	return re.ReplaceAllLiteralString(s, Redacted), true
}

// maskPhones is hand-written rather than a regexp because RE2's \b only
// knows ASCII word characters; a digit run glued to "é" must not match.
func maskPhones(s string) (string, bool) {
	var b strings.Builder
	last, found := 0, false
	for i := 0; i < len(s); {
		if end, ok := phoneAt(s, i); ok {
			b.WriteString(s[last:i])
			b.WriteString(Redacted)
			last, i, found = end, end, true
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	if !found {
		return s, false
	}
	b.WriteString(s[last:])
	return b.String(), true
}

// phoneAt reports the end offset of the longest phone number starting at
// byte offset i.
func phoneAt(s string, i int) (int, bool) {
	if !boundary(s, i) {
		return 0, false
	}
	j := i
	if j < len(s) && s[j] == '+' {
		j++
	}
	if j >= len(s) || !isASCIIDigit(rune(s[j])) {
		return 0, false
	}

	// Runes after the leading digit that may belong to the number, with
	// their end offsets.
	type cell struct {
		r   rune
		end int
	}
	var run []cell
	for p := j + 1; p < len(s); {
		r, size := utf8.DecodeRuneInString(s[p:])
		if !isPhoneRune(r) {
			break
		}
		p += size
		run = append(run, cell{r, p})
	}

	// Longest first: the closing digit must be preceded by at least
	// phoneMinMiddle runes and followed by a word boundary.
	for k := len(run) - 1; k >= phoneMinMiddle; k-- {
		if isASCIIDigit(run[k].r) && boundary(s, run[k].end) {
			return run[k].end, true
		}
	}
	return 0, false
}

// boundary reports whether byte offset i sits between a word rune and a
// non-word rune, treating any Unicode letter or number as a word rune.
func boundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isPhoneRune(r rune) bool {
	switch {
	case isASCIIDigit(r), r == '(', r == ')', r == '-':
		return true
	case r >= 0x1c && r <= 0x1f:
		return true
	}
	return unicode.IsSpace(r)
}
