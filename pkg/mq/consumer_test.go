package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestConsumerStopIsIdempotent(t *testing.T) {
	c := &Consumer{logger: zap.NewNop()}

	assert.NotPanics(t, func() {
		c.Stop()
		c.Stop()
	})
	assert.False(t, c.IsConnected())
}

func TestStartConsumingRequiresHandler(t *testing.T) {
	c := &Consumer{logger: zap.NewNop()}

	err := c.StartConsuming()
	assert.ErrorContains(t, err, "handler not set")
}
