package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFakeClientDeliversMatchingSubscriptions(t *testing.T) {
	c := NewFakeClient()

	var got []byte
	err := c.Subscribe("elevator/+/status", 1, func(topic string, payload []byte) {
		got = payload
	})
	assert.NoError(t, err)

	err = c.Publish("elevator/2/status", 1, true, []byte("online"))
	assert.NoError(t, err)

	assert.Equal(t, []byte("online"), got)

	last, ok := c.LastPublished("elevator/2/status")
	assert.True(t, ok)
	assert.Equal(t, []byte("online"), last.Payload)
	assert.True(t, last.Retained)
}

func TestFakeClientIgnoresNonMatchingSubscriptions(t *testing.T) {
	c := NewFakeClient()

	called := false
	err := c.Subscribe("floor/+/waiting_count", 0, func(topic string, payload []byte) {
		called = true
	})
	assert.NoError(t, err)

	err = c.Publish("elevator/2/status", 1, true, []byte("online"))
	assert.NoError(t, err)

	assert.False(t, called)
}
