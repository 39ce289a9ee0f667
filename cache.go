package tlbcache

import (
	"iter"
	"log/slog"
	"unsafe"

	"github.com/djdv/go-tlbcache/internal/hashindex"
)

type (
	// Unsigned is the set of types usable as page numbers and values.
	Unsigned interface {
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
	}
	// Access selects the read or write table of a [Cache].
	// Methods taking an Access panic on values other than [Read] and [Write].
	Access uint8
	// Cache holds separate page translations for read and write accesses.
	// Concurrent access must be guarded by the caller.
	// Constructed by [New], or by calling [Cache.Initialize]
	// on the zero value.
	Cache[Page, Value Unsigned] struct {
		log    *slog.Logger
		tables [accessModes]table[Page, Value]
		limit  int
		state  lifecycle
	}
	lifecycle uint8
)

const (
	// Read selects translations used for loads.
	Read Access = iota
	// Write selects translations used for stores.
	Write
	accessModes
)

const (
	uninitialized lifecycle = iota
	initialized
	tornDown
)

func (access Access) String() string {
	switch access {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "invalid"
	}
}

// New creates an initialized [Cache].
// bucketCount must be a power of two, and addressWidth
// is the number of significant bits in a page number;
// it may not exceed the bit size of Page.
func New[Page, Value Unsigned](bucketCount, addressWidth int, options ...Option) (*Cache[Page, Value], error) {
	settings := settings{
		log: discardLogger(),
	}
	for _, apply := range options {
		apply(&settings)
	}
	cache := &Cache[Page, Value]{
		log:   settings.log,
		limit: settings.entryLimit,
	}
	if err := cache.Initialize(bucketCount, addressWidth); err != nil {
		return nil, err
	}
	return cache, nil
}

// Initialize configures the hash index and empties both tables.
// It may be called on the zero value, or after [Cache.Teardown]
// to reuse the cache, possibly with a different configuration.
func (c *Cache[Page, Value]) Initialize(bucketCount, addressWidth int) error {
	if c.state == initialized {
		return ErrInitialized
	}
	index, err := hashindex.New(bucketCount, addressWidth)
	if err != nil {
		return err
	}
	if pageBits := int(unsafe.Sizeof(Page(0))) * 8; addressWidth > pageBits {
		return pageWidthError(addressWidth, pageBits)
	}
	if c.log == nil {
		c.log = discardLogger()
	}
	for access := range accessModes {
		c.tables[access].reset(access, index, c.limit)
	}
	c.state = initialized
	c.log.Debug("translation cache initialized",
		"buckets", index.Buckets(),
		"address_width", index.AddressWidth(),
		"shift", index.Shift(),
		"entry_limit", c.limit,
	)
	return nil
}

// Teardown releases every entry of both tables.
// Lookups return 0 until the cache is initialized again.
// Calling Teardown more than once has no further effect.
func (c *Cache[_, _]) Teardown() {
	if c.state != initialized {
		return
	}
	for access := range accessModes {
		table := &c.tables[access]
		released, err := table.teardown()
		if err != nil {
			if debugging {
				assert(false, err.Error())
			}
			c.log.Error("translation cache teardown",
				"access", access,
				"released", released,
				"error", err,
			)
			continue
		}
		c.log.Debug("translation cache teardown",
			"access", access,
			"released", released,
			"slots", table.store.Cap(),
		)
	}
	c.state = tornDown
}

// Get returns the translation cached for page in the access table,
// or 0 if there is none.
// A cached value of 0 is indistinguishable from a miss.
func (c *Cache[Page, Value]) Get(access Access, page Page) Value {
	if c.state != initialized {
		return 0
	}
	return c.tables[access].lookup(page)
}

// Set caches value as the translation for page in the access table,
// replacing any previous translation for page.
// If storage for the entry could not be obtained,
// the returned error wraps [ErrAllocation]
// and the table is left unchanged.
func (c *Cache[Page, Value]) Set(access Access, page Page, value Value) error {
	if c.state != initialized {
		return ErrNotInitialized
	}
	if err := c.tables[access].upsert(page, value); err != nil {
		c.log.Warn("translation not cached",
			"access", access,
			"page", uint64(page),
			"error", err,
		)
		return err
	}
	return nil
}

// Load returns the translation cached for page if there is one.
// Otherwise, it calls walk, caches and returns the value on success.
// If walk returns an error, the value is not cached.
// If the value could not be cached, it is returned along with the error.
func (c *Cache[Page, Value]) Load(access Access, page Page, walk func() (Value, error)) (Value, error) {
	if c.state != initialized {
		return 0, ErrNotInitialized
	}
	if value := c.tables[access].lookup(page); value != 0 {
		return value, nil
	}
	value, err := walk()
	if err != nil {
		return value, err
	}
	return value, c.Set(access, page, value)
}

// Invalidate removes the translation for page from the access table
// and reports whether one was present.
func (c *Cache[Page, _]) Invalidate(access Access, page Page) bool {
	if c.state != initialized {
		return false
	}
	removed, err := c.tables[access].invalidate(page)
	if err != nil {
		if debugging {
			assert(false, err.Error())
		}
		c.log.Error("translation invalidation",
			"access", access,
			"page", uint64(page),
			"error", err,
		)
	}
	return removed
}

// GetForRead is equivalent to [Cache.Get] with [Read].
func (c *Cache[Page, Value]) GetForRead(page Page) Value { return c.Get(Read, page) }

// GetForWrite is equivalent to [Cache.Get] with [Write].
func (c *Cache[Page, Value]) GetForWrite(page Page) Value { return c.Get(Write, page) }

// SetForRead is equivalent to [Cache.Set] with [Read].
func (c *Cache[Page, Value]) SetForRead(page Page, value Value) error {
	return c.Set(Read, page, value)
}

// SetForWrite is equivalent to [Cache.Set] with [Write].
func (c *Cache[Page, Value]) SetForWrite(page Page, value Value) error {
	return c.Set(Write, page, value)
}

// LoadForRead is equivalent to [Cache.Load] with [Read].
func (c *Cache[Page, Value]) LoadForRead(page Page, walk func() (Value, error)) (Value, error) {
	return c.Load(Read, page, walk)
}

// LoadForWrite is equivalent to [Cache.Load] with [Write].
func (c *Cache[Page, Value]) LoadForWrite(page Page, walk func() (Value, error)) (Value, error) {
	return c.Load(Write, page, walk)
}

// InvalidateForRead is equivalent to [Cache.Invalidate] with [Read].
func (c *Cache[Page, _]) InvalidateForRead(page Page) bool { return c.Invalidate(Read, page) }

// InvalidateForWrite is equivalent to [Cache.Invalidate] with [Write].
func (c *Cache[Page, _]) InvalidateForWrite(page Page) bool { return c.Invalidate(Write, page) }

// Len returns the number of translations in the access table.
func (c *Cache[_, _]) Len(access Access) int {
	return c.tables[access].len()
}

// Stats describes the bucket distribution of the access table.
func (c *Cache[_, _]) Stats(access Access) Stats {
	return c.tables[access].stats()
}

// Entries returns an iterator over the (unordered)
// translations of the access table.
// The translation just yielded may be invalidated during iteration;
// any other change to the table while iterating is undefined.
func (c *Cache[Page, Value]) Entries(access Access) iter.Seq2[Page, Value] {
	return c.tables[access].entries()
}

// Verify checks both tables for duplicate, misplaced,
// or unreachable entries. Any error wraps [ErrInvariantViolation].
func (c *Cache[_, _]) Verify() error {
	for access := range accessModes {
		if err := c.tables[access].verify(); err != nil {
			return err
		}
	}
	return nil
}
