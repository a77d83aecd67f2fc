package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func TestDecodeRecognizedTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Message
	}{
		{
			name:  "subscribe",
			input: `{"type":"subscribe","chatId":"7"}`,
			want:  Subscribe{ChatID: "7"},
		},
		{
			name:  "unsubscribe",
			input: `{"type":"unsubscribe","chatId":"7"}`,
			want:  Unsubscribe{ChatID: "7"},
		},
		{
			name:  "chat message without user",
			input: `{"type":"chat_message","chatId":"7","content":"hi"}`,
			want:  ChatMessage{ChatID: "7", Content: "hi"},
		},
		{
			name:  "chat message with user and timestamp",
			input: `{"type":"chat_message","chatId":"7","userId":"u1","userName":"Ada","content":"hi","createdAt":"2025-03-14T09:26:53.589Z"}`,
			want:  ChatMessage{ChatID: "7", UserID: "u1", UserName: "Ada", Content: "hi", CreatedAt: stamp},
		},
		{
			name:  "system message without chat",
			input: `{"type":"system_message","userName":"System","content":"hello"}`,
			want:  SystemMessage{UserName: "System", Content: "hello"},
		},
		{
			name:  "unknown fields are ignored",
			input: `{"type":"subscribe","chatId":"7","extra":true}`,
			want:  Subscribe{ChatID: "7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"not json", `hello`, ErrMalformedFrame},
		{"truncated object", `{"type":"subscribe"`, ErrMalformedFrame},
		{"json array", `[1,2,3]`, ErrMalformedFrame},
		{"non-string type", `{"type":5}`, ErrMalformedFrame},
		{"missing type", `{"chatId":"7"}`, ErrMalformedFrame},
		{"bad timestamp", `{"type":"chat_message","chatId":"7","content":"x","createdAt":"yesterday"}`, ErrMalformedFrame},
		{"bogus type", `{"type":"bogus"}`, ErrUnknownMessageType},
		{"subscribe without chat", `{"type":"subscribe"}`, ErrMissingField},
		{"unsubscribe without chat", `{"type":"unsubscribe","chatId":""}`, ErrMissingField},
		{"chat message without chat", `{"type":"chat_message","content":"hi"}`, ErrMissingField},
		{"chat message without content", `{"type":"chat_message","chatId":"7"}`, ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	messages := []Message{
		Subscribe{ChatID: "7"},
		Unsubscribe{ChatID: "room-a"},
		ChatMessage{ChatID: "7", Content: "hi"},
		ChatMessage{ChatID: "7", UserID: "u1", UserName: "Ada", Content: "hello there", CreatedAt: stamp},
		SystemMessage{UserName: SystemUserName, Content: "Error processing your message"},
		Notice("7", "Ada joined the chat", stamp),
	}

	for _, m := range messages {
		t.Run(string(m.Type()), func(t *testing.T) {
			data, err := Encode(m)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	m := ChatMessage{ChatID: "7", UserID: "u1", UserName: "Ada", Content: "hi", CreatedAt: stamp}

	first, err := Encode(m)
	require.NoError(t, err)
	second, err := Encode(m)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.JSONEq(t,
		`{"type":"chat_message","chatId":"7","userId":"u1","userName":"Ada","content":"hi","createdAt":"2025-03-14T09:26:53.589Z"}`,
		string(first))
}

func TestEncodeOmitsUnsetOptionalFields(t *testing.T) {
	data, err := Encode(SystemMessage{UserName: SystemUserName, Content: "oops"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "chatId")
	assert.NotContains(t, fields, "createdAt")
	assert.Equal(t, "system_message", fields["type"])
}

func TestFormatTimeUsesUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	local := time.Date(2025, 3, 14, 10, 26, 53, 589_123_456, loc)

	assert.Equal(t, "2025-03-14T09:26:53.589123456Z", FormatTime(local))
	assert.Equal(t, "2025-03-14T09:26:53.589Z", FormatTime(stamp))
	assert.Equal(t, "", FormatTime(time.Time{}))
}

func TestRoundTripKeepsFullTimestampPrecision(t *testing.T) {
	now := time.Now().UTC()
	m := ChatMessage{ChatID: "7", Content: "hi", CreatedAt: now}

	data, err := Encode(m)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	local := time.Date(2025, 3, 14, 9, 26, 53, 589_123_456, time.FixedZone("CET", 3600))
	data, err = Encode(Notice("7", "hello", local))
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	notice, ok := decoded.(SystemMessage)
	require.True(t, ok)
	assert.True(t, notice.CreatedAt.Equal(local), "got %s, want %s", notice.CreatedAt, local)
}

func TestEncodeRejectsNil(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrUnknownMessageType)
}
