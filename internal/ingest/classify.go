package ingest

import (
	"regexp"
	"strings"

	"github.com/Baehyeonu/classwatch/internal/names"
	"github.com/Baehyeonu/classwatch/internal/types"
)

// Classification rules are ordered: camera transitions are checked before
// join/leave since camera status arrives in dedicated formats, and leave
// before join since leave phrasings can embed join keywords. Within a kind
// the Korean rule is checked first.
//
// Example input: "[오후 2:48] :no_entry_sign: *현우_조교* 님의 카메라가 off 되었습니다"
var classifyRules = []struct {
	kind types.EventKind
	re   *regexp.Regexp
}{
	{types.EventCameraOn, regexp.MustCompile(`\*?([^\s\[\]:]+?)\*?\s*님(?:의|이)?\s*카메라(?:를|가)\s*(?:켰습니다|on\s*되었습니다)`)},
	{types.EventCameraOn, regexp.MustCompile(`(?i)\*?([^\s\[\]:]+?)\*?\s+turned\s+(?:on\s+(?:their|the)\s+camera|(?:their|the)\s+camera\s+on)`)},
	{types.EventCameraOff, regexp.MustCompile(`\*?([^\s\[\]:]+?)\*?\s*님(?:의|이)?\s*카메라(?:를|가)\s*(?:껐습니다|off\s*되었습니다)`)},
	{types.EventCameraOff, regexp.MustCompile(`(?i)\*?([^\s\[\]:]+?)\*?\s+turned\s+(?:off\s+(?:their|the)\s+camera|(?:their|the)\s+camera\s+off)`)},
	{types.EventLeave, regexp.MustCompile(`\*?([^\s\[\]:]+?)\*?\s*님이?\s*.*(?:퇴장|접속\s*종료|접속을\s*종료|나갔습니다)`)},
	{types.EventLeave, regexp.MustCompile(`(?i)\*?([^\s\[\]:]+?)\*?\s+(?:left|disconnected\s+from)\s+the\s+(?:room|class|session)`)},
	{types.EventJoin, regexp.MustCompile(`\*?([^\s\[\]:]+?)\*?\s*님이?\s*.*(?:입장|접속했습니다|들어왔습니다)`)},
	{types.EventJoin, regexp.MustCompile(`(?i)\*?([^\s\[\]:]+?)\*?\s+(?:joined|entered)\s+the\s+(?:room|class|session)`)},
}

// Classify matches text against the ordered pattern rules. The returned
// subject is the raw captured display string, untrimmed of role prefixes.
func Classify(text string) (types.EventKind, string, bool) {
	for _, rule := range classifyRules {
		if m := rule.re.FindStringSubmatch(text); m != nil {
			subject := strings.Trim(strings.TrimSpace(m[1]), "*")
			if subject != "" {
				return rule.kind, subject, true
			}
		}
	}
	return "", "", false
}

// Ignorable reports whether any delimiter-separated segment of the raw
// subject exactly matches an ignore keyword (case-insensitive). Used to
// filter test and bot traffic out of the stream.
func Ignorable(rawSubject string, ignoreKeywords []string) bool {
	if len(ignoreKeywords) == 0 {
		return false
	}

	ignored := make(map[string]struct{}, len(ignoreKeywords))
	for _, keyword := range ignoreKeywords {
		ignored[strings.ToLower(keyword)] = struct{}{}
	}

	for _, segment := range names.Segments(rawSubject) {
		if _, exists := ignored[strings.ToLower(segment)]; exists {
			return true
		}
	}
	return false
}
