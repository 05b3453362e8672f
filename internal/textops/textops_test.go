package textops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		mode Mode
		in   string
		want string
	}{
		{Upper, "hello world", "HELLO WORLD"},
		{Lower, "Hello World", "hello world"},
		{Title, "hello WORLD again", "Hello World Again"},
		{Sentence, "hELLO World. bye", "Hello world. bye"},
		{Camel, "hello big world", "helloBigWorld"},
		{Camel, "Hello World", "helloWorld"},
		{Pascal, "hello big world", "HelloBigWorld"},
		{Snake, "Hello  Big World", "hello_big_world"},
		{Kebab, "Hello Big\tWorld", "hello-big-world"},
		{Sentence, "", ""},
	}
	for _, tt := range tests {
		got, err := Convert(tt.in, tt.mode)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s(%q)", tt.mode, tt.in)
	}
}

func TestConvertUnknownMode(t *testing.T) {
	_, err := Convert("x", Mode("shout"))
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("UPPERCASE")
	require.NoError(t, err)
	assert.Equal(t, Upper, m)

	m, err = ParseMode("kebab")
	require.NoError(t, err)
	assert.Equal(t, Kebab, m)

	_, err = ParseMode("zigzag")
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	text := "Hello there. How are you?\n\nFine!"
	got := Count(text)
	assert.Equal(t, Stats{
		Characters:         32,
		CharactersNoSpaces: 26,
		Words:              6,
		Sentences:          3,
		Paragraphs:         2,
	}, got)
}

func TestCountEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Count(""))
	assert.Equal(t, 0, Count("   \n ").Words)
}

func TestCountRunes(t *testing.T) {
	got := Count("héllo wörld")
	assert.Equal(t, 11, got.Characters)
	assert.Equal(t, 10, got.CharactersNoSpaces)
	assert.Equal(t, 2, got.Words)
}
