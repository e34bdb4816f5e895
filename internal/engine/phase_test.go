package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseNamesRoundTrip(t *testing.T) {
	for _, p := range Phases() {
		parsed, err := ParsePhase(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	_, err := ParsePhase("finished")
	assert.Error(t, err)
	assert.Equal(t, "phase(42)", Phase(42).String())
}

func TestPhaseJSON(t *testing.T) {
	b, err := json.Marshal(PhaseChanged{From: PhaseVotingClosed, To: PhaseTallied})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"voting_closed","to":"tallied"}`, string(b))

	var evt PhaseChanged
	require.NoError(t, json.Unmarshal(b, &evt))
	assert.Equal(t, PhaseTallied, evt.To)
}

func TestTransitionTable(t *testing.T) {
	for _, p := range Phases() {
		next, ok := NextPhase(p)
		if p.Terminal() {
			assert.False(t, ok)
			continue
		}
		assert.True(t, ok)
		assert.Equal(t, p+1, next)
	}
	assert.Equal(t, hookTally, transitions[PhaseVotingClosed].hook)
	assert.Equal(t, hookCloseOut, transitions[PhaseCollectingClosed].hook)
}

func TestErrorKindMatching(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", wrongPhase(PhaseVotingOpen, PhaseRegistering))
	assert.True(t, errors.Is(err, ErrWrongPhase))
	assert.False(t, errors.Is(err, ErrAlreadyVoted))
	assert.Equal(t, KindWrongPhase, KindOf(err))
	assert.Contains(t, err.Error(), "voting_open")
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
