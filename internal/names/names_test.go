package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegments(t *testing.T) {
	assert.Equal(t, []string{"IH02", "구마적"}, Segments("IH02/구마적"))
	assert.Equal(t, []string{"주강사", "유승수"}, Segments("주강사_유승수"))
	assert.Equal(t, []string{"현우", "조교"}, Segments("*현우_조교*"))
	assert.Equal(t, []string{"김철수"}, Segments("  김철수  "))
	assert.Empty(t, Segments("***"))
	assert.Empty(t, Segments(""))
}

func TestExtractSubjectName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"IH02/구마적", "구마적"},
		{"주강사_유승수", "유승수"},
		{"현우_조교", "현우"},
		{"조교_주강사", "주강사"}, // every segment is a role; keep the last Hangul one
		{"김철수", "김철수"},
		{"OH12-박영희(팀)", "박영희"},
		{"john", "john"}, // no Hangul at all
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ExtractSubjectName(tc.raw, DefaultRoleKeywords), "raw=%q", tc.raw)
	}
}

func TestCandidatesOrder(t *testing.T) {
	// Personal name trails the prefix, so it must come first.
	assert.Equal(t, []string{"구마적", "한국"}, Candidates("한국IT/구마적", DefaultRoleKeywords))
	assert.Equal(t, []string{"유승수"}, Candidates("주강사_유승수", DefaultRoleKeywords))
}

func TestCandidatesFallbacks(t *testing.T) {
	// Role-only strings fall back to the unfiltered Hangul segments.
	assert.Equal(t, []string{"멘토"}, Candidates("멘토", DefaultRoleKeywords))

	// No Hangul at all: the cleaned raw string is the only candidate.
	assert.Equal(t, []string{"jane-doe"}, Candidates("*jane-doe*", DefaultRoleKeywords))

	assert.Nil(t, Candidates("  ", DefaultRoleKeywords))
}

func TestHangulOnlyStripsCompatibilityJamo(t *testing.T) {
	// Stray jamo (outside the syllable block) and digits are dropped.
	assert.Equal(t, "김철수", hangulOnly("김철수2ㅋ"))
	assert.Equal(t, "", hangulOnly("abc123"))
}
