package pcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingListener struct{ count int }

func (c *countingListener) NotifyChanged() { c.count++ }

func TestNotifierActivateEdgeTriggered(t *testing.T) {
	var activations, deactivations int
	n := &Notifier{
		OnActivate:   func() { activations++ },
		OnDeactivate: func() { deactivations++ },
	}

	n.Activate()
	n.Activate()
	n.Activate()
	assert.Equal(t, 1, activations, "handleActivate must fire only on the 0->1 edge")

	n.Deactivate()
	n.Deactivate()
	assert.Equal(t, 0, deactivations, "handleDeactivate must not fire until the count reaches zero")
	n.Deactivate()
	assert.Equal(t, 1, deactivations)
}

func TestNotifierDeactivateTooManyTimesPanics(t *testing.T) {
	n := &Notifier{}
	n.Activate()
	n.Deactivate()
	assert.Panics(t, func() { n.Deactivate() })
}

func TestNotifierPublishOnlyWhenActive(t *testing.T) {
	n := &Notifier{}
	l := &countingListener{}
	n.AddListener(l)

	n.PublishChange()
	assert.Equal(t, 0, l.count, "inactive notifiers must not publish")

	n.Activate()
	n.PublishChange()
	assert.Equal(t, 1, l.count)
}

func TestNotifierAddListenerDeduplicates(t *testing.T) {
	n := &Notifier{}
	l := &countingListener{}
	n.AddListener(l)
	n.AddListener(l)
	require.Len(t, n.listeners, 1)
}

func TestNotifierNoOrphanListeners(t *testing.T) {
	n := &Notifier{}
	l := &countingListener{}
	n.AddListener(l)
	assert.Panics(t, func() { n.CheckNoOrphanListeners() })

	n.RemoveListener(l)
	assert.NotPanics(t, func() { n.CheckNoOrphanListeners() })
}
