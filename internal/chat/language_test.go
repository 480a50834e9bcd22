package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageTag(t *testing.T) {
	tests := map[string]string{
		"English":   "en-in",
		" hindi ":   "hi",
		"PUNJABI":   "pa",
		"Bengali":   "bn",
		"Tamil":     "ta",
		"Telugu":    "te",
		"Marathi":   "mr",
		"Gujarati":  "gu",
		"Kannada":   "kn",
		"Malayalam": "ml",
		"Odia":      "en-in",
		"":          "en-in",
	}
	for in, want := range tests {
		assert.Equal(t, want, LanguageTag(in), in)
	}
}

func TestWhisperCode(t *testing.T) {
	tests := map[string]string{
		"en-in": "en",
		"EN":    "en",
		"hi":    "hi",
		"pa":    "pa",
		"ta-IN": "ta",
		"te":    "te",
		"or":    "en",
		"":      "en",
	}
	for in, want := range tests {
		assert.Equal(t, want, WhisperCode(in), in)
	}
}

func TestCommandArgs(t *testing.T) {
	args, err := commandArgs("ffplay -nodisp {file}", "/tmp/a.bin")
	assert.NoError(t, err)
	assert.Equal(t, []string{"ffplay", "-nodisp", "/tmp/a.bin"}, args)

	args, err = commandArgs("aplay", "/tmp/a.bin")
	assert.NoError(t, err)
	assert.Equal(t, []string{"aplay", "/tmp/a.bin"}, args)

	args, err = commandArgs("sox -d out={file}", "/x.m4a")
	assert.NoError(t, err)
	assert.Equal(t, []string{"sox", "-d", "out=/x.m4a"}, args)

	_, err = commandArgs("  ", "/x")
	assert.Error(t, err)
}
