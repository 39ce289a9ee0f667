// Package chain implements singly linked bucket chains over a [slab.Slab].
//
// A chain is identified by the index of its head node;
// an empty chain is represented by [slab.Nil].
// Functions that change the head return the new head,
// which the caller must store.
package chain

import (
	"iter"

	"github.com/djdv/go-tlbcache/internal/slab"
)

// Store is the node storage shared by every chain of a table.
type Store[Key comparable, Value any] = slab.Slab[Key, Value]

// Push allocates a node for key and value,
// links it in front of head, and returns it as the new head.
// If allocation fails, head is returned unchanged with the error.
func Push[Key comparable, Value any](
	store *Store[Key, Value], head int,
	key Key, value Value,
) (int, error) {
	node, err := store.Alloc(key, value, head)
	if err != nil {
		return head, err
	}
	return node, nil
}

// Find returns the index of the first node at or after
// head whose key matches, or [slab.Nil].
func Find[Key comparable, Value any](store *Store[Key, Value], head int, key Key) int {
	for index := head; index != slab.Nil; {
		node := store.Node(index)
		if node.Key == key {
			return index
		}
		index = node.Next
	}
	return slab.Nil
}

// UnlinkNext removes the node following prev from the chain
// and returns its index. The node is not released.
// prev must have a successor.
func UnlinkNext[Key comparable, Value any](store *Store[Key, Value], prev int) int {
	var (
		before  = store.Node(prev)
		removed = before.Next
	)
	before.Next = store.Node(removed).Next
	return removed
}

// EvictAfter scans the chain following head for
// the first node whose key matches, splices it out,
// and releases it. head itself is never compared.
// It reports whether a node was evicted.
func EvictAfter[Key comparable, Value any](store *Store[Key, Value], head int, key Key) (bool, error) {
	for prev := head; prev != slab.Nil; {
		next := store.Node(prev).Next
		if next == slab.Nil {
			break
		}
		if store.Node(next).Key == key {
			return true, store.Release(UnlinkNext(store, prev))
		}
		prev = next
	}
	return false, nil
}

// Remove releases the first node matching key and
// returns the new head along with whether a node was found.
func Remove[Key comparable, Value any](
	store *Store[Key, Value], head int, key Key,
) (int, bool, error) {
	if head == slab.Nil {
		return head, false, nil
	}
	if node := store.Node(head); node.Key == key {
		next := node.Next
		return next, true, store.Release(head)
	}
	removed, err := EvictAfter(store, head, key)
	return head, removed, err
}

// Release returns every node of the chain to the store
// and reports how many were released.
// Release stops at the first node that could not be released.
func Release[Key comparable, Value any](store *Store[Key, Value], head int) (int, error) {
	var released int
	for index := head; index != slab.Nil; released++ {
		if !store.Live(index) {
			// Reports [slab.ErrNotLive] without touching the slot.
			return released, store.Release(index)
		}
		next := store.Node(index).Next
		if err := store.Release(index); err != nil {
			return released, err
		}
		index = next
	}
	return released, nil
}

// Len computes the number of nodes in the chain.
// It executes in time proportional to the number of nodes.
func Len[Key comparable, Value any](store *Store[Key, Value], head int) int {
	n := 0
	for index := head; index != slab.Nil; index = store.Node(index).Next {
		n++
	}
	return n
}

// All returns an iterator over the chain's key/value pairs,
// starting at head.
// The node just yielded may be removed during iteration;
// any other modification of the chain is undefined.
func All[Key comparable, Value any](store *Store[Key, Value], head int) iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		for index := head; index != slab.Nil; {
			var (
				node = store.Node(index)
				next = node.Next
			)
			if !yield(node.Key, node.Value) {
				return
			}
			index = next
		}
	}
}
