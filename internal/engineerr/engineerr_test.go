package engineerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatsMessage(t *testing.T) {
	err := New(NotFound, "card %s not found", "base1-4")
	assert.Equal(t, NotFound, err.Kind)
	assert.Equal(t, "card base1-4 not found", err.Msg)
	assert.Equal(t, "NOT_FOUND: card base1-4 not found", err.Error())
}

func TestIs_MatchesByKindOnly(t *testing.T) {
	err := New(PreconditionFailed, "deck is empty")
	assert.True(t, errors.Is(err, KindOnly(PreconditionFailed)))
	assert.False(t, errors.Is(err, KindOnly(Conflict)))
}

func TestIs_IgnoresMessageDifferences(t *testing.T) {
	a := New(Internal, "first message")
	b := New(Internal, "a completely different message")
	assert.True(t, errors.Is(a, b))
}

func TestIs_RejectsNonEngineErrTargets(t *testing.T) {
	err := New(NotFound, "x")
	assert.False(t, errors.Is(err, errors.New("plain error")))
}
