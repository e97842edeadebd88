// Package mergetag finds and substitutes {{namespace:field}} tokens in email
// template content. Tokens are free-form: anything between {{ and }} that
// contains no closing brace. Unknown tokens pass through unchanged.
package mergetag

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Tag is a parsed token. Namespace is empty when the token has no colon.
type Tag struct {
	Raw       string `json:"raw"`
	Namespace string `json:"namespace,omitempty"`
	Field     string `json:"field"`
}

// Key returns the lookup key, "namespace:field" or just "field".
func (t Tag) Key() string {
	if t.Namespace == "" {
		return t.Field
	}
	return t.Namespace + ":" + t.Field
}

// Parse splits a raw token such as "{{ deal:loan_amount }}".
func Parse(raw string) (Tag, bool) {
	if !tokenPattern.MatchString(raw) || tokenPattern.FindString(raw) != raw {
		return Tag{}, false
	}
	inner := strings.TrimSpace(raw[2 : len(raw)-2])
	tag := Tag{Raw: raw, Field: inner}
	if ns, field, ok := strings.Cut(inner, ":"); ok {
		tag.Namespace = strings.TrimSpace(ns)
		tag.Field = strings.TrimSpace(field)
	}
	return tag, true
}

// Find returns every token in s in order of appearance.
func Find(s string) []Tag {
	matches := tokenPattern.FindAllString(s, -1)
	tags := make([]Tag, 0, len(matches))
	for _, m := range matches {
		if tag, ok := Parse(m); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Segment is a run of plain text or a single token, used to render tokens
// as chips inside header fields.
type Segment struct {
	Text  string `json:"text"`
	IsTag bool   `json:"is_tag"`
	Tag   *Tag   `json:"tag,omitempty"`
}

// Split breaks s into alternating text and token segments. Concatenating
// the Text of every segment yields s.
func Split(s string) []Segment {
	var out []Segment
	last := 0
	for _, loc := range tokenPattern.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			out = append(out, Segment{Text: s[last:loc[0]]})
		}
		raw := s[loc[0]:loc[1]]
		tag, _ := Parse(raw)
		out = append(out, Segment{Text: raw, IsTag: true, Tag: &tag})
		last = loc[1]
	}
	if last < len(s) {
		out = append(out, Segment{Text: s[last:]})
	}
	return out
}

// Render replaces every token whose key is in values. It returns the
// rendered string and the raw tokens left unresolved.
func Render(s string, values map[string]string) (string, []string) {
	var unresolved []string
	seen := map[string]bool{}
	out := tokenPattern.ReplaceAllStringFunc(s, func(raw string) string {
		tag, ok := Parse(raw)
		if ok {
			if v, found := values[tag.Key()]; found {
				return v
			}
		}
		if !seen[raw] {
			seen[raw] = true
			unresolved = append(unresolved, raw)
		}
		return raw
	})
	return out, unresolved
}

// Insert places a token for key at byte offset pos of s, clamping pos to
// the string bounds.
func Insert(s, key string, pos int) string {
	if pos < 0 {
		pos = 0
	}
	if pos > len(s) {
		pos = len(s)
	}
	return s[:pos] + "{{" + key + "}}" + s[pos:]
}
