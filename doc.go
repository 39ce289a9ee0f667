// Package tlbcache implements a [Cache] of virtual page translations
// for an emulated memory subsystem.
//
// A cache keeps two independent tables, one consulted for reads and
// one for writes, since the two translations of a page may differ.
// Each table is a fixed array of hash buckets, and each bucket is a
// singly linked chain of entries. Chains are unbounded; heavily skewed
// address spaces can produce chains thousands of entries long.
//
// The following is a summary intended for maintainers.
//
// Glossary and invariants:
//
//   - Page
//
//     Virtual page number supplied by the caller.
//     Compared only for equality, and shifted to select a bucket.
//
//   - Value
//
//     Opaque translation for a page, typically a physical frame number.
//     0 is returned for misses, so a cached 0 cannot be told apart from
//     a missing translation.
//
//   - Bucket
//
//     bucket(page) = (page >> shift) & (buckets-1),
//     where shift = addressWidth - log2(buckets).
//     The index keeps the high bits of the page number.
//
//   - Chain
//
//     Entries of one bucket, most recently set first.
//
//   - One entry per page
//
//     Within a table, no two live entries share a page.
//
// Operations:
//
//   - Lookup
//
//     Scans the page's chain from its head and returns the first match.
//
//   - Upsert
//
//     Links a new entry at the head of the chain,
//     then scans the rest of the chain for the entry it supersedes.
//     At most one such entry can exist, so the scan stops at the first
//     match, which is spliced out and released.
//     If the new entry cannot be allocated, the table is unchanged.
//
//   - Teardown
//
//     Releases every entry of every bucket, visiting each bucket once.
//
// Storage:
//
// Entries live in a per-table slab addressed by index.
// Released slots are kept on a free list and reused by later upserts,
// and a bitset of live slots catches releases of slots that are not live.
// [WithEntryLimit] bounds the slab, which is how allocation failures
// surface as [ErrAllocation].
//
// Build with the `tlbcache_debug` tag to assert the invariants
// after every upsert, invalidation, and teardown.
// [Cache.Verify] performs the same checks on demand.
package tlbcache
