package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfIsStableAndInRange(t *testing.T) {
	for _, n := range []int{1, 4, 16} {
		i := Of("books", n)
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, n)
		assert.Equal(t, i, Of("books", n))
	}
}

func TestOfEmptyCollectionIsShardZero(t *testing.T) {
	assert.Equal(t, 0, Of("", 8))
}

func TestQueuePushPopFIFO(t *testing.T) {
	q := NewQueue()
	q.Push(1)
	q.Push(2)
	q.Push(3)
	assert.Equal(t, 3, q.Len())

	id, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, uint64(1), id)

	id, ok = q.Pop()
	assert.True(t, ok)
	assert.Equal(t, uint64(2), id)

	assert.Equal(t, 1, q.Len())
}

func TestQueuePopEmpty(t *testing.T) {
	q := NewQueue()
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestSetEnqueueRoutesByCollection(t *testing.T) {
	s := NewSet(4)
	s.Enqueue("books", 42)

	want := Of("books", 4)
	depths := s.Depths()
	assert.Equal(t, 1, depths[want])

	for i, d := range depths {
		if i != want {
			assert.Equal(t, 0, d)
		}
	}
}

func TestSetQueueWrapsIndex(t *testing.T) {
	s := NewSet(3)
	assert.Same(t, s.Queue(0), s.Queue(3))
}
