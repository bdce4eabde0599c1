package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeConn bool

func (c fakeConn) Connected() bool { return bool(c) }

func TestSelectSource(t *testing.T) {
	sim := NewSimulator(nil, 0, discardLogger())
	consumer := NewSMSConsumer(&fakeSubscriber{}, "sms.incoming.raw.*", "g", discardLogger())

	assert.Same(t, consumer, SelectSource(consumer, fakeConn(true), sim, discardLogger()))
	assert.Same(t, sim, SelectSource(consumer, fakeConn(false), sim, discardLogger()))
	assert.Same(t, sim, SelectSource(nil, nil, sim, discardLogger()))
}
