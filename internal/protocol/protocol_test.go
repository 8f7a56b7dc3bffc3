package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Encode(t *testing.T) {
	assert.Equal(t, "join:general\n", string(New(TagJoin, "general").Encode()))
	assert.Equal(t, "leave:\n", string(New(TagLeave, "").Encode()))
	assert.Equal(t, len("sendall:hi\n"), New(TagSendAll, "hi").Len())
}

func TestMessage_Fits(t *testing.T) {
	// "sendall:" + payload + "\n" is 9 bytes of overhead.
	assert.True(t, New(TagSendAll, strings.Repeat("x", MaxLen-9)).Fits())
	assert.False(t, New(TagSendAll, strings.Repeat("x", MaxLen-8)).Fits())
}

func TestDecode_RoundTrip(t *testing.T) {
	cases := []Message{
		{TagErr, "You must join a room first"},
		{TagOK, ""},
		{TagSLogin, "alice"},
		{TagRLogin, "bob"},
		{TagJoin, "general"},
		{TagLeave, ""},
		{TagSendAll, "hello, world: with colons"},
		{TagSendUser, "bob:psst"},
		{TagQuit, ""},
		{TagDelivery, "general:alice:hi"},
		{TagEmpty, ""},
		{TagSendAll, strings.Repeat("y", MaxLen-9)},
	}
	for _, want := range cases {
		t.Run(string(want.Tag), func(t *testing.T) {
			got, err := Decode(want.Encode())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecode_Trims(t *testing.T) {
	got, err := Decode([]byte("sendall:   padded text \t\r\n"))
	require.NoError(t, err)
	assert.Equal(t, New(TagSendAll, "padded text"), got)
}

func TestDecode_CarriageReturn(t *testing.T) {
	got, err := Decode([]byte("join:general\r\n"))
	require.NoError(t, err)
	assert.Equal(t, New(TagJoin, "general"), got)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too long", "sendall:" + strings.Repeat("x", MaxLen) + "\n"},
		{"no terminator", "join:general"},
		{"empty", ""},
		{"embedded newline", "sendall:one\ntwo\n"},
		{"embedded carriage return", "sendall:one\rtwo\n"},
		{"no colon", "quit\n"},
		{"unknown tag", "shout:hello\n"},
		{"tag with leading space", " join:general\n"},
		{"tag case", "JOIN:general\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.line))
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}
}

func TestDecode_LengthBoundary(t *testing.T) {
	line := "sendall:" + strings.Repeat("z", MaxLen-9) + "\n"
	require.Len(t, line, MaxLen)
	_, err := Decode([]byte(line))
	assert.NoError(t, err)

	line = "sendall:" + strings.Repeat("z", MaxLen-8) + "\n"
	_, err = Decode([]byte(line))
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestTag_Known(t *testing.T) {
	assert.True(t, TagDelivery.Known())
	assert.False(t, Tag("error").Known())
	assert.False(t, Tag("").Known())
}

func TestParseDelivery(t *testing.T) {
	payload := DeliveryPayload("general", "alice", "hi: there")
	assert.Equal(t, "general:alice:hi: there", payload)

	room, sender, text, ok := ParseDelivery(payload)
	require.True(t, ok)
	assert.Equal(t, "general", room)
	assert.Equal(t, "alice", sender)
	assert.Equal(t, "hi: there", text)

	_, _, _, ok = ParseDelivery("general-only")
	assert.False(t, ok)
	_, _, _, ok = ParseDelivery("general:alice")
	assert.False(t, ok)
}
