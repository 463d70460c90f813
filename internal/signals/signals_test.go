package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/domain"
)

func TestDetect_Name(t *testing.T) {
	sigs := Detect("My name is Alex and I work at Acme Corp.")
	require.NotEmpty(t, sigs)

	var gotIdentity, gotFact bool
	for _, s := range sigs {
		if s.Category == domain.CategoryIdentity {
			gotIdentity = true
			assert.Contains(t, s.Content, "Alex")
		}
		if s.Category == domain.CategoryFact {
			gotFact = true
			assert.Contains(t, s.Content, "Acme")
		}
	}
	assert.True(t, gotIdentity, "expected an identity signal")
	assert.True(t, gotFact, "expected a works-at fact signal")
}

func TestDetect_Correction(t *testing.T) {
	sigs := Detect("Actually my name is Alexander, not Alex.")
	require.NotEmpty(t, sigs)

	found := false
	for _, s := range sigs {
		if s.Category == domain.CategoryCorrection {
			found = true
			assert.Contains(t, s.Content, "Alexander")
		}
	}
	assert.True(t, found)
}

func TestDetect_NoSignal(t *testing.T) {
	sigs := Detect("The weather today is unusually mild for October.")
	assert.Empty(t, sigs)
}

func TestIsSmallTalk(t *testing.T) {
	cases := map[string]bool{
		"hi":                  true,
		"Hello!":              true,
		"how's it going?":     true,
		"thanks so much":      true,
		"My name is Alex":     false,
		"":                    false,
		"   ":                 false,
		"你好":                  true,
		"我喜欢咖啡":              false,
	}
	for input, want := range cases {
		assert.Equal(t, want, IsSmallTalk(input), "input=%q", input)
	}
}
