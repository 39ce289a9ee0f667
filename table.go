package tlbcache

import (
	"errors"
	"fmt"
	"iter"

	"github.com/bits-and-blooms/bitset"
	"github.com/djdv/go-tlbcache/internal/chain"
	"github.com/djdv/go-tlbcache/internal/hashindex"
	"github.com/djdv/go-tlbcache/internal/slab"
)

type (
	// table is one direction of the cache: an array of
	// bucket chain heads over an entry slab it owns.
	table[Page, Value Unsigned] struct {
		store    *chain.Store[Page, Value]
		index    hashindex.Index
		access   Access
		heads    []int
		occupied bitset.BitSet // Buckets whose head is not [slab.Nil].
	}
	// Stats describes the shape of a table.
	Stats struct {
		// Entries is the number of live entries.
		Entries int
		// Buckets is the configured bucket count.
		Buckets int
		// OccupiedBuckets is the number of buckets with a non-empty chain.
		OccupiedBuckets int
		// LongestChain is the length of the longest bucket chain.
		LongestChain int
		// Slots is the number of storage slots backing
		// the table, including released ones awaiting reuse.
		Slots int
	}
)

// reset installs the index and empties every bucket head.
// It does not release entries; any table being reset
// must be new or torn down.
func (t *table[Page, Value]) reset(access Access, index hashindex.Index, limit int) {
	if t.store == nil {
		t.store = slab.New[Page, Value](limit)
	}
	if debugging {
		assert(t.store.Len() == 0,
			"reset of a table with live entries")
	}
	t.access = access
	t.index = index
	t.heads = make([]int, index.Buckets())
	for bucket := range t.heads {
		t.heads[bucket] = slab.Nil
	}
	t.occupied.ClearAll()
}

func (t *table[Page, _]) bucket(page Page) int {
	return t.index.Bucket(uint64(page))
}

// lookup returns the value stored for page, or 0.
func (t *table[Page, Value]) lookup(page Page) Value {
	if t.heads == nil {
		return 0
	}
	entry := chain.Find(t.store, t.heads[t.bucket(page)], page)
	if entry == slab.Nil {
		return 0
	}
	return t.store.Node(entry).Value
}

// upsert links a new entry for page at the head of its bucket,
// then evicts the entry it supersedes, if any.
// If the entry cannot be allocated the table is unchanged.
func (t *table[Page, Value]) upsert(page Page, value Value) error {
	bucket := t.bucket(page)
	head, err := chain.Push(t.store, t.heads[bucket], page, value)
	if err != nil {
		if !errors.Is(err, slab.ErrExhausted) ||
			chain.Find(t.store, t.heads[bucket], page) == slab.Nil {
			return allocationError(t.access, err)
		}
		// Full, but the superseded entry's slot can be reused.
		return t.replace(bucket, page, value)
	}
	t.heads[bucket] = head
	t.occupied.Set(uint(bucket))
	if _, err := chain.EvictAfter(t.store, head, page); err != nil {
		return releaseError(t.access, bucket, err)
	}
	if debugging {
		assert(t.count(bucket, page) == 1,
			"upsert left duplicate entries for a page")
	}
	return nil
}

// replace releases the entry for page before linking its successor.
// The entry must exist.
func (t *table[Page, Value]) replace(bucket int, page Page, value Value) error {
	head, _, err := chain.Remove(t.store, t.heads[bucket], page)
	if err != nil {
		return releaseError(t.access, bucket, err)
	}
	t.heads[bucket] = head
	if head, err = chain.Push(t.store, head, page, value); err != nil {
		if head == slab.Nil {
			t.occupied.Clear(uint(bucket))
		}
		return allocationError(t.access, err)
	}
	t.heads[bucket] = head
	return nil
}

// invalidate releases the entry for page, if present.
func (t *table[Page, _]) invalidate(page Page) (bool, error) {
	if t.heads == nil {
		return false, nil
	}
	bucket := t.bucket(page)
	head, removed, err := chain.Remove(t.store, t.heads[bucket], page)
	if err != nil {
		return removed, releaseError(t.access, bucket, err)
	}
	t.heads[bucket] = head
	if head == slab.Nil {
		t.occupied.Clear(uint(bucket))
	}
	if debugging {
		assert(t.count(bucket, page) == 0,
			"invalidate left an entry for a page")
	}
	return removed, nil
}

// teardown releases every entry of every bucket
// and returns how many were released.
// Calling teardown on an empty table does nothing.
func (t *table[_, _]) teardown() (int, error) {
	var (
		released int
		errs     []error
	)
	for bucket, head := range t.heads {
		count, err := chain.Release(t.store, head)
		released += count
		if err != nil {
			errs = append(errs, releaseError(t.access, bucket, err))
		}
		t.heads[bucket] = slab.Nil
	}
	t.occupied.ClearAll()
	if debugging && len(errs) == 0 {
		assert(t.len() == 0,
			"teardown left live entries")
	}
	return released, errors.Join(errs...)
}

// count returns the number of entries for page in bucket.
func (t *table[Page, Value]) count(bucket int, page Page) int {
	var n int
	for key := range chain.All(t.store, t.heads[bucket]) {
		if key == page {
			n++
		}
	}
	return n
}

func (t *table[_, _]) len() int {
	if t.store == nil {
		return 0
	}
	return t.store.Len()
}

func (t *table[_, _]) occupiedBuckets() iter.Seq[int] {
	return func(yield func(int) bool) {
		for bucket, ok := t.occupied.NextSet(0); ok; bucket, ok = t.occupied.NextSet(bucket + 1) {
			if !yield(int(bucket)) {
				return
			}
		}
	}
}

func (t *table[Page, Value]) entries() iter.Seq2[Page, Value] {
	return func(yield func(Page, Value) bool) {
		for bucket := range t.occupiedBuckets() {
			for page, value := range chain.All(t.store, t.heads[bucket]) {
				if !yield(page, value) {
					return
				}
			}
		}
	}
}

func (t *table[_, _]) stats() Stats {
	stats := Stats{
		Entries: t.len(),
		Buckets: len(t.heads),
	}
	if t.store != nil {
		stats.Slots = t.store.Cap()
	}
	for bucket := range t.occupiedBuckets() {
		stats.OccupiedBuckets++
		stats.LongestChain = max(stats.LongestChain,
			chain.Len(t.store, t.heads[bucket]))
	}
	return stats
}

// verify checks that every live entry is reachable from
// the bucket its page hashes to, exactly once per page.
func (t *table[Page, _]) verify() error {
	var reachable int
	for bucket, head := range t.heads {
		if (head != slab.Nil) != t.occupied.Test(uint(bucket)) {
			return fmt.Errorf(
				"%w: %s table bucket %d occupancy is out of date",
				ErrInvariantViolation, t.access, bucket)
		}
		seen := make(map[Page]int)
		for page := range chain.All(t.store, head) {
			if home := t.bucket(page); home != bucket {
				return fmt.Errorf(
					"%w: %s table page %v is in bucket %d but hashes to %d",
					ErrInvariantViolation, t.access, page, bucket, home)
			}
			seen[page]++
			reachable++
		}
		for page, count := range seen {
			if count > 1 {
				return duplicateError(t.access, page, bucket, count)
			}
		}
	}
	if live := t.len(); live != reachable {
		return fmt.Errorf(
			"%w: %s table has %d live entries but %d are reachable",
			ErrInvariantViolation, t.access, live, reachable)
	}
	return nil
}
