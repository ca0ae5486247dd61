// Package names extracts candidate human names from the noisy display
// strings participants use in the virtual classroom, e.g. "IH02/구마적" or
// "주강사_유승수".
package names

import (
	"regexp"
	"strings"
)

// DefaultRoleKeywords are segments that name a role rather than a person, so
// "주강사_유승수" resolves to the personal name.
var DefaultRoleKeywords = []string{
	"조교", "주강사", "멘토", "매니저", "코치", "개발자",
	"학생", "수강생", "교육생", "강사", "관리자", "운영자",
	"팀장", "회장", "강의", "실습", "프로젝트", "팀",
}

var delimiters = regexp.MustCompile(`[/_\-|\s.()@{}\[\]!*]+`)

// Segments splits a raw display string on its delimiter set, dropping empty
// parts.
func Segments(raw string) []string {
	cleaned := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "*"))
	var parts []string
	for _, part := range delimiters.Split(cleaned, -1) {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func isHangul(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7A3
}

// hangulOnly strips everything outside the Hangul syllable range; an empty
// result means the segment held no Korean characters.
func hangulOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isHangul(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hangulParts(segments []string, roleKeywords []string) (filtered, all []string) {
	roles := make(map[string]struct{}, len(roleKeywords))
	for _, keyword := range roleKeywords {
		roles[keyword] = struct{}{}
	}

	for _, segment := range segments {
		korean := hangulOnly(segment)
		if korean == "" {
			continue
		}
		all = append(all, korean)
		if _, isRole := roles[korean]; !isRole {
			filtered = append(filtered, korean)
		}
	}
	return filtered, all
}

// ExtractSubjectName returns the single best name guess for a raw display
// string: the last non-role Hangul segment, falling back to the last Hangul
// segment, then the first segment of any kind.
func ExtractSubjectName(raw string, roleKeywords []string) string {
	segments := Segments(raw)
	filtered, all := hangulParts(segments, roleKeywords)

	if len(filtered) > 0 {
		return filtered[len(filtered)-1]
	}
	if len(all) > 0 {
		return all[len(all)-1]
	}
	if len(segments) > 0 {
		return segments[0]
	}
	return strings.TrimSpace(raw)
}

// Candidates returns every plausible name in resolution order. Hangul
// segments come back reversed since the personal name usually trails the
// role prefix; a string with no Hangul yields the cleaned original as its
// sole candidate.
func Candidates(raw string, roleKeywords []string) []string {
	segments := Segments(raw)
	filtered, all := hangulParts(segments, roleKeywords)

	target := filtered
	if len(target) == 0 {
		target = all
	}
	if len(target) == 0 {
		cleaned := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "*"))
		if cleaned == "" {
			return nil
		}
		return []string{cleaned}
	}

	out := make([]string, 0, len(target))
	for i := len(target) - 1; i >= 0; i-- {
		out = append(out, target[i])
	}
	return out
}
