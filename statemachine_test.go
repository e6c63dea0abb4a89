package pcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionInactiveToWaitingByDefault(t *testing.T) {
	n := NewNode("n", EmptyNode)
	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateWaiting, tr.To)
}

func TestTransitionInactiveAncestorExitSkipsToFinished(t *testing.T) {
	n := NewNode("n", EmptyNode)
	flag := NewVariable(BooleanType)
	flag.Activate()
	flag.SetValue(BooleanValue(true))
	n.SetCondition(AncestorExitCondition, flag)

	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateFinished, tr.To)
	assert.Equal(t, OutcomeInterrupted, tr.Outcome)
}

func TestTransitionInactiveAncestorInvariantFailsParent(t *testing.T) {
	n := NewNode("n", EmptyNode)
	inv := NewVariable(BooleanType)
	inv.Activate()
	inv.SetValue(BooleanValue(false))
	n.SetCondition(AncestorInvariantCondition, inv)

	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateFinished, tr.To)
	assert.Equal(t, FailureParentFailed, tr.Failure)
}

func TestTransitionWaitingSkipConditionSkips(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateWaiting
	skip := NewVariable(BooleanType)
	skip.Activate()
	skip.SetValue(BooleanValue(true))
	n.SetCondition(SkipCondition, skip)

	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateFinished, tr.To)
	assert.Equal(t, OutcomeSkipped, tr.Outcome)
}

func TestTransitionWaitingPreConditionFalseEndsIteration(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateWaiting
	pre := NewVariable(BooleanType)
	pre.Activate()
	pre.SetValue(BooleanValue(false))
	n.SetCondition(PreCondition, pre)

	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateIterationEnded, tr.To)
	assert.Equal(t, FailurePreConditionFailed, tr.Failure)
}

func TestTransitionWaitingDefaultStartConditionStartsImmediately(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateWaiting
	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateExecuting, tr.To)
}

func TestTransitionExecutingStaysUntilEndConditionMet(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateExecuting
	_, ok := NextTransition(n)
	assert.False(t, ok, "no EndCondition and bodyComplete false means no transition yet")

	n.bodyComplete = true
	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateIterationEnded, tr.To)
	assert.Equal(t, OutcomeSuccess, tr.Outcome)
}

func TestTransitionExecutingInvariantFalseFails(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateExecuting
	inv := NewVariable(BooleanType)
	inv.Activate()
	inv.SetValue(BooleanValue(false))
	n.SetCondition(InvariantCondition, inv)

	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateFailing, tr.To)
	assert.Equal(t, FailureInvariantConditionFailed, tr.Failure)
}

func TestTransitionExecutingPostConditionFalseFails(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateExecuting
	n.bodyComplete = true
	post := NewVariable(BooleanType)
	post.Activate()
	post.SetValue(BooleanValue(false))
	n.SetCondition(PostCondition, post)

	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateIterationEnded, tr.To)
	assert.Equal(t, OutcomeFailure, tr.Outcome)
	assert.Equal(t, FailurePostConditionFailed, tr.Failure)
}

func TestTransitionIterationEndedRepeatsWhenConditionHolds(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateIterationEnded
	repeat := NewVariable(BooleanType)
	repeat.Activate()
	repeat.SetValue(BooleanValue(true))
	n.SetCondition(RepeatCondition, repeat)

	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateWaiting, tr.To)
}

func TestTransitionIterationEndedFinishesByDefault(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateIterationEnded
	n.outcome = OutcomeSuccess
	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateFinished, tr.To)
	assert.Equal(t, OutcomeSuccess, tr.Outcome)
}

func TestTransitionFailingWaitsForAbortAck(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateFailing
	n.failure = FailureExitedWithError
	_, ok := NextTransition(n)
	assert.False(t, ok)

	n.abortAcked = true
	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateIterationEnded, tr.To)
	assert.Equal(t, FailureExitedWithError, tr.Failure)
}

func TestTransitionFinishingWaitsForAbortAck(t *testing.T) {
	n := NewNode("n", EmptyNode)
	n.state = StateFinishing
	_, ok := NextTransition(n)
	assert.False(t, ok)

	n.abortAcked = true
	tr, ok := NextTransition(n)
	require.True(t, ok)
	assert.Equal(t, StateFinished, tr.To)
}
