package live

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestEvaluator(h ExceptionHandler) *policyEvaluator {
	return &policyEvaluator{handler: h, logger: slog.New(slog.DiscardHandler)}
}

func TestEvaluateWithoutHandlerContinues(t *testing.T) {
	p := newTestEvaluator(nil)
	assert.Equal(t, ActionContinue, p.evaluate(errors.New("anything")))
}

func TestEvaluateHonorsHandlerVerdict(t *testing.T) {
	var seen error
	p := newTestEvaluator(func(err error) Action {
		seen = err
		return ActionStop
	})

	streamErr := errors.New("gateway said no")
	assert.Equal(t, ActionStop, p.evaluate(streamErr))
	assert.Equal(t, streamErr, seen)
}

func TestEvaluatePanickingHandlerStops(t *testing.T) {
	p := newTestEvaluator(func(error) Action {
		panic("handler bug")
	})
	assert.Equal(t, ActionStop, p.evaluate(errors.New("boom")))
}
