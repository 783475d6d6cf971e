package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailCarriesErrorText(t *testing.T) {
	resp := Fail(errors.New("disk full"))
	assert.False(t, resp.Success)
	assert.Equal(t, "disk full", resp.Error)

	resp = Fail(nil)
	assert.NotEmpty(t, resp.Error)
}

func TestResponseDecode(t *testing.T) {
	resp, err := OK(map[string]int{"a": 1})
	require.NoError(t, err)

	var out map[string]int
	ok, err := resp.Decode(&out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, out["a"])

	nullResp, err := OK(nil)
	require.NoError(t, err)
	ok, err = nullResp.Decode(&out)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Fail(errors.New("boom")).Decode(&out)
	assert.EqualError(t, err, "boom")
}

func TestSessionLinesNullsWhenEmpty(t *testing.T) {
	raw, err := json.Marshal(SessionLines{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines":null,"fileName":null}`, string(raw))
	assert.False(t, SessionLines{}.Loaded())
	assert.True(t, SessionLines{Lines: []string{}}.Loaded())
}

func TestMessageRoundTripKeepsEmptyLines(t *testing.T) {
	raw, err := json.Marshal(Message{Action: ActionCacheNovelForSession, Lines: []string{}})
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.NotNil(t, msg.Lines)
	assert.Empty(t, msg.Lines)
}

func TestPositionAcceptsPixelStrings(t *testing.T) {
	tests := map[string]Position{
		`{"left":10,"top":20}`:         {Left: 10, Top: 20},
		`{"left":"10px","top":"20px"}`: {Left: 10, Top: 20},
		`{"left":"12.6px","top":null}`: {Left: 13, Top: 0},
		`{}`:                           {},
	}
	for in, want := range tests {
		var got Position
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}

	var p Position
	assert.Error(t, json.Unmarshal([]byte(`{"left":"wide"}`), &p))
}

func TestNotificationWireShape(t *testing.T) {
	raw, err := json.Marshal(Notification{Action: ActionLocaleChanged, Locale: "zh-CN"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"localeChanged","locale":"zh-CN"}`, string(raw))

	raw, err = json.Marshal(Notification{Action: ActionNovelLinesUpdated, FileName: "empty.txt"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"novelLinesUpdated","lines":[],"fileName":"empty.txt"}`, string(raw))

	raw, err = json.Marshal(Notification{Action: ActionNovelLinesUpdated, Lines: []string{"a"}, FileName: "f.txt"})
	require.NoError(t, err)
	var back Notification
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, []string{"a"}, back.Lines)
	assert.Equal(t, "f.txt", back.FileName)
}
