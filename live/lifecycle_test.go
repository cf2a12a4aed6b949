package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateCreated, "created"},
		{StateSubscribed, "subscribed"},
		{StateStarted, "started"},
		{StateStreaming, "streaming"},
		{StateStopping, "stopping"},
		{StateStopped, "stopped"},
		{StateDisposed, "disposed"},
		{StateFaulted, "faulted"},
		{State(99), "unknown"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.state.String())
	}
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StateCreated.Terminal())
	assert.False(t, StateStreaming.Terminal())
	assert.False(t, StateStopping.Terminal())
	assert.True(t, StateStopped.Terminal())
	assert.True(t, StateDisposed.Terminal())
	assert.True(t, StateFaulted.Terminal())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "continue", ActionContinue.String())
	assert.Equal(t, "stop", ActionStop.String())
	assert.Equal(t, "unknown", Action(7).String())
}
