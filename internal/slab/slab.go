// Package slab stores singly linked nodes in a growable array.
//
// Nodes are addressed by index rather than pointer.
// Released slots are threaded onto an intrusive free list
// and reused by later allocations; a bitset marks which
// slots are live so that a release of a free slot is
// reported instead of corrupting the free list.
package slab

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

type (
	constError string
	// Node is a slot of a [Slab].
	Node[Key comparable, Value any] struct {
		Key   Key
		Value Value
		// Next is the index of the following node, or [Nil].
		Next int
	}
	// Slab owns every [Node] allocated from it.
	// The zero value is an empty, unbounded slab.
	Slab[Key comparable, Value any] struct {
		nodes    []Node[Key, Value]
		live     bitset.BitSet
		freeHead int
		freeLen  int
		limit    int
	}
)

// Nil is the index of no node.
const Nil = -1

const (
	// ErrExhausted is returned by [Slab.Alloc]
	// when the slab's limit has been reached.
	ErrExhausted = constError("slab exhausted")
	// ErrNotLive is returned by [Slab.Release]
	// for slots that are not currently allocated.
	ErrNotLive = constError("slot is not live")
)

func (errStr constError) Error() string { return string(errStr) }

// New returns a slab that holds at most limit live nodes.
// A limit of 0 is unbounded.
func New[Key comparable, Value any](limit int) *Slab[Key, Value] {
	return &Slab[Key, Value]{
		freeHead: Nil,
		limit:    max(limit, 0),
	}
}

// Alloc stores a node and returns its index.
// Indices returned by Alloc remain valid until released,
// but pointers returned by [Slab.Node] may not survive
// the next call to Alloc.
func (s *Slab[Key, Value]) Alloc(key Key, value Value, next int) (int, error) {
	if s.limit > 0 && s.Len() >= s.limit {
		return Nil, fmt.Errorf(
			"%w: %d of %d nodes in use",
			ErrExhausted, s.Len(), s.limit)
	}
	node := Node[Key, Value]{
		Key:   key,
		Value: value,
		Next:  next,
	}
	var index int
	if s.freeLen > 0 && s.freeHead != Nil {
		index = s.freeHead
		s.freeHead = s.nodes[index].Next
		s.freeLen--
		s.nodes[index] = node
	} else {
		index = len(s.nodes)
		s.nodes = append(s.nodes, node)
	}
	s.live.Set(uint(index))
	return index, nil
}

// Release returns the slot at index to the free list.
func (s *Slab[Key, Value]) Release(index int) error {
	if !s.Live(index) {
		return fmt.Errorf("%w: %d", ErrNotLive, index)
	}
	s.live.Clear(uint(index))
	s.nodes[index] = Node[Key, Value]{Next: s.freeHead}
	s.freeHead = index
	s.freeLen++
	return nil
}

// Live reports whether index refers to an allocated slot.
func (s *Slab[_, _]) Live(index int) bool {
	return index >= 0 &&
		index < len(s.nodes) &&
		s.live.Test(uint(index))
}

// Node returns the node stored at index.
// index must be live.
func (s *Slab[Key, Value]) Node(index int) *Node[Key, Value] {
	return &s.nodes[index]
}

// Len returns the number of live nodes.
func (s *Slab[_, _]) Len() int {
	return len(s.nodes) - s.freeLen
}

// Cap returns the number of slots backing the slab, live or free.
func (s *Slab[_, _]) Cap() int { return len(s.nodes) }

// Limit returns the maximum number of live nodes, or 0 if unbounded.
func (s *Slab[_, _]) Limit() int { return s.limit }
