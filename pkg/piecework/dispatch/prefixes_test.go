package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixes_FirstMatchWins(t *testing.T) {
	p := NewPrefixes("!", "!!")

	prefix, ok := p.Match("!!ping")
	assert.True(t, ok)
	assert.Equal(t, "!", prefix)

	p = NewPrefixes("!!", "!")
	prefix, ok = p.Match("!!ping")
	assert.True(t, ok)
	assert.Equal(t, "!!", prefix, "configuration order decides")
}

func TestPrefixes_NoMatch(t *testing.T) {
	p := NewPrefixes("!")
	_, ok := p.Match("hello !ping")
	assert.False(t, ok)

	_, ok = NewPrefixes().Match("!ping")
	assert.False(t, ok)
}

func TestPrefixes_AddDedupes(t *testing.T) {
	p := NewPrefixes("!", "", "!")
	p.Add("?", "!", "bot, ")

	assert.Equal(t, []string{"!", "?", "bot, "}, p.List())
	assert.Equal(t, 3, p.Len())
}

func TestOwners(t *testing.T) {
	o := NewOwners("1", "2", "1", "")
	o.Add("3", "2")

	assert.Equal(t, []string{"1", "2", "3"}, o.List())
	assert.Equal(t, 3, o.Len())
	assert.True(t, o.Has("2"))
	assert.False(t, o.Has("4"))
	assert.False(t, o.Has(""))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "not_command", OutcomeNotCommand.String())
	assert.Equal(t, "cooldown", OutcomeCooldown.String())
	assert.Equal(t, "private_restricted", OutcomePrivateRestricted.String())
	assert.Equal(t, "invoked", OutcomeInvoked.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", Outcome(-1).String())
}
