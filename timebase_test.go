package pcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadlineTimebaseFiresAtArmedTime(t *testing.T) {
	tb := NewDeadlineTimebase()
	defer tb.Stop()

	tb.SetTimer(time.Now().Add(10 * time.Millisecond))
	select {
	case <-tb.Wake():
	case <-time.After(time.Second):
		t.Fatal("timebase did not wake within 1s of a 10ms deadline")
	}
}

func TestDeadlineTimebaseZeroTimeDisarms(t *testing.T) {
	tb := NewDeadlineTimebase()
	defer tb.Stop()

	tb.SetTimer(time.Now().Add(5 * time.Millisecond))
	tb.SetTimer(time.Time{})

	select {
	case <-tb.Wake():
		t.Fatal("disarmed timebase must not wake")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeadlineTimebaseRearmReplacesPriorTimer(t *testing.T) {
	tb := NewDeadlineTimebase()
	defer tb.Stop()

	tb.SetTimer(time.Now().Add(time.Hour))
	tb.SetTimer(time.Now().Add(5 * time.Millisecond))

	select {
	case <-tb.Wake():
	case <-time.After(time.Second):
		t.Fatal("rearmed deadline did not fire")
	}
}

func TestTickTimebaseFiresRepeatedly(t *testing.T) {
	tb := NewTickTimebase(5 * time.Millisecond)
	defer tb.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-tb.Wake():
		case <-time.After(time.Second):
			t.Fatalf("tick %d did not arrive", i)
		}
	}
}

func TestActiveTimebaseDefaultsToNilThenInstalled(t *testing.T) {
	assert.Nil(t, ActiveTimebase())
	tb := NewDeadlineTimebase()
	defer tb.Stop()
	SetActiveTimebase(tb)
	require.Equal(t, tb, ActiveTimebase())
	SetActiveTimebase(nil)
}
