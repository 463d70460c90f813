package sieve_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cortexmemory/cortex/internal/sieve"
)

func TestBuildWindow_EmptyMessagesReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", sieve.BuildWindow(nil, 10, 1000, 100))
}

func TestBuildWindow_KeepsOnlyLastNMessages(t *testing.T) {
	msgs := []sieve.Message{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
	}
	out := sieve.BuildWindow(msgs, 2, 1000, 100)
	assert.NotContains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.Contains(t, out, "three")
}

func TestBuildWindow_TruncatesProportionallyWithFloor(t *testing.T) {
	long := strings.Repeat("x", 5000)
	short := "hi"
	msgs := []sieve.Message{
		{Role: "user", Content: long},
		{Role: "assistant", Content: short},
	}
	out := sieve.BuildWindow(msgs, 10, 500, 50)
	assert.Less(t, len(out), len(long)+len(short)+50)
	assert.Contains(t, out, "hi")
}

func TestBuildWindow_LabelsRoles(t *testing.T) {
	msgs := []sieve.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}
	out := sieve.BuildWindow(msgs, 10, 1000, 100)
	assert.Contains(t, out, "[USER] hello")
	assert.Contains(t, out, "[ASSISTANT] hi there")
}
