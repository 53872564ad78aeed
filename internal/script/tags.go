package script

import "regexp"

// tagPattern matches the inline markup tags allowed inside dialogue text:
// italic, quote, bold, size, and hyperlink with an optional attribute.
var tagPattern = regexp.MustCompile(`\{/?i\}|\{/?q\}|\{/?b\}|\{/?size\}|\{/?a(=[A-Za-z0-9:/?.=&#_-]+)?\}`)

// Token is one piece of a scanned dialogue segment: a markup tag kept
// verbatim, a lone separating space, or a translatable text span.
type Token struct {
	// Tag holds the literal tag text (e.g. "{i}"). Empty for non-tag tokens.
	Tag string
	// Space marks a single separating space directly after a tag.
	Space bool
	// Unit holds the translatable text span. Nil for tag and space tokens.
	Unit *Unit
}

// ScanTags splits s into an alternating sequence of tag, space and text
// tokens. Tags are never translated and are written back verbatim at their
// original position. A single space immediately following a tag becomes its
// own token so reassembly keeps the original spacing; text after the final
// tag is handled the same way.
func ScanTags(s string) []Token {
	matches := tagPattern.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return []Token{{Unit: NewUnit(s)}}
	}

	var tokens []Token
	if lead := s[:matches[0][0]]; lead != "" {
		tokens = append(tokens, Token{Unit: NewUnit(lead)})
	}
	for i, m := range matches {
		tokens = append(tokens, Token{Tag: s[m[0]:m[1]]})

		end := len(s)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		span := s[m[1]:end]
		if span == "" {
			continue
		}
		if span[0] == ' ' {
			tokens = append(tokens, Token{Space: true})
			span = span[1:]
		}
		if span != "" {
			tokens = append(tokens, Token{Unit: NewUnit(span)})
		}
	}
	return tokens
}

// StripTags removes every markup tag from s.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}
