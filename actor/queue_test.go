package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMsgQueueFIFO(t *testing.T) {
	var q msgQueue
	q.push(Message{Tag: 1})
	q.push(Message{Tag: 2})
	q.push(Message{Tag: 3})

	assert.Equal(t, 3, q.length())

	m, ok := q.pop()
	assert.True(t, ok)
	assert.Equal(t, Tag(1), m.Tag)

	m, ok = q.pop()
	assert.True(t, ok)
	assert.Equal(t, Tag(2), m.Tag)

	m, ok = q.pop()
	assert.True(t, ok)
	assert.Equal(t, Tag(3), m.Tag)

	_, ok = q.pop()
	assert.False(t, ok)
}

func TestMsgQueuePushFrontPreservesOrderAheadOfExisting(t *testing.T) {
	var q msgQueue
	q.push(Message{Tag: 10})
	q.push(Message{Tag: 11})

	q.pushFront([]Message{{Tag: 1}, {Tag: 2}})

	var got []Tag
	for {
		m, ok := q.pop()
		if !ok {
			break
		}
		got = append(got, m.Tag)
	}
	assert.Equal(t, []Tag{1, 2, 10, 11}, got)
}

func TestCellQueueFIFO(t *testing.T) {
	var q cellQueue
	a := &cell{}
	b := &cell{}
	q.push(a)
	q.push(b)

	got, ok := q.pop()
	assert.True(t, ok)
	assert.Same(t, a, got)

	got, ok = q.pop()
	assert.True(t, ok)
	assert.Same(t, b, got)

	_, ok = q.pop()
	assert.False(t, ok)
}
