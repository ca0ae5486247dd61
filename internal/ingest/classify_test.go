package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baehyeonu/classwatch/internal/types"
)

func TestClassifyCameraTransitions(t *testing.T) {
	tests := []struct {
		text    string
		kind    types.EventKind
		subject string
	}{
		{"*구마적* 님이 카메라를 켰습니다", types.EventCameraOn, "구마적"},
		{"[오후 2:48] :white_check_mark: *현우_조교* 님의 카메라가 on 되었습니다", types.EventCameraOn, "현우_조교"},
		{"*구마적* 님이 카메라를 껐습니다", types.EventCameraOff, "구마적"},
		{"[오후 2:48] :no_entry_sign: *현우_조교* 님의 카메라가 off 되었습니다", types.EventCameraOff, "현우_조교"},
		{"김철수 turned off their camera", types.EventCameraOff, "김철수"},
		{"김철수 turned on the camera", types.EventCameraOn, "김철수"},
	}
	for _, tc := range tests {
		kind, subject, ok := Classify(tc.text)
		require.True(t, ok, "text=%q", tc.text)
		assert.Equal(t, tc.kind, kind, "text=%q", tc.text)
		assert.Equal(t, tc.subject, subject, "text=%q", tc.text)
	}
}

func TestClassifyPresenceTransitions(t *testing.T) {
	tests := []struct {
		text    string
		kind    types.EventKind
		subject string
	}{
		{"*IH02/구마적* 님이 입장했습니다", types.EventJoin, "IH02/구마적"},
		{"박영희 님이 회의에 접속했습니다", types.EventJoin, "박영희"},
		{"*IH02/구마적* 님이 퇴장했습니다", types.EventLeave, "IH02/구마적"},
		{"박영희 님이 접속을 종료했습니다", types.EventLeave, "박영희"},
		{"jane joined the room", types.EventJoin, "jane"},
		{"jane left the session", types.EventLeave, "jane"},
	}
	for _, tc := range tests {
		kind, subject, ok := Classify(tc.text)
		require.True(t, ok, "text=%q", tc.text)
		assert.Equal(t, tc.kind, kind, "text=%q", tc.text)
		assert.Equal(t, tc.subject, subject, "text=%q", tc.text)
	}
}

func TestClassifyLeaveBeatsJoinPhrasing(t *testing.T) {
	// "입장" can appear inside leave notices; the leave rule must win.
	kind, _, ok := Classify("박영희 님이 재입장 없이 퇴장했습니다")
	require.True(t, ok)
	assert.Equal(t, types.EventLeave, kind)
}

func TestClassifyUnrelatedText(t *testing.T) {
	for _, text := range []string{
		"오늘 과제 제출 기한은 6시입니다",
		"hello everyone",
		"",
	} {
		_, _, ok := Classify(text)
		assert.False(t, ok, "text=%q", text)
	}
}

func TestIgnorable(t *testing.T) {
	keywords := []string{"테스트", "bot"}

	assert.True(t, Ignorable("테스트_계정", keywords))
	assert.True(t, Ignorable("Class-BOT", keywords))
	assert.False(t, Ignorable("구마적", keywords))
	assert.False(t, Ignorable("구마적", nil))
}
