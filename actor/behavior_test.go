package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBehaviorStackBecomeUnbecome(t *testing.T) {
	var b behaviorStack
	original := func(ctx Context, msg Message) {}
	busy := func(ctx Context, msg Message) {}

	b.reset(original)
	assert.Equal(t, 1, len(b.frames))

	b.become(busy, false)
	assert.Equal(t, 2, len(b.frames))

	b.unbecome()
	assert.Equal(t, 1, len(b.frames))

	// unbecome at the bottom frame is a no-op: the original is never popped.
	b.unbecome()
	assert.Equal(t, 1, len(b.frames))
}

func TestBehaviorStackUnbecomeAllCollapsesToOriginal(t *testing.T) {
	var b behaviorStack
	original := func(ctx Context, msg Message) {}
	b.reset(original)

	b.become(func(ctx Context, msg Message) {}, false)
	b.become(func(ctx Context, msg Message) {}, false)
	b.become(func(ctx Context, msg Message) {}, false)
	assert.Equal(t, 4, len(b.frames))

	b.unbecomeAll()
	assert.Equal(t, 1, len(b.frames))
}

func TestBehaviorStackBecomeReplaceSwapsTopInPlace(t *testing.T) {
	var b behaviorStack
	original := func(ctx Context, msg Message) {}
	b.reset(original)

	first := func(ctx Context, msg Message) {}
	b.become(first, false)
	assert.Equal(t, 2, len(b.frames))

	second := func(ctx Context, msg Message) {}
	b.become(second, true)
	assert.Equal(t, 2, len(b.frames))

	b.unbecome()
	assert.Equal(t, 1, len(b.frames))
}
