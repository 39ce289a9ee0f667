package tlbcache

import (
	"fmt"

	"github.com/djdv/go-tlbcache/internal/hashindex"
)

type constError string

const (
	// ErrAllocation may be returned from the Set and Load methods
	// when storage for a new entry could not be obtained.
	// The cache is left unchanged.
	ErrAllocation = constError("entry allocation failed")
	// ErrInvariantViolation is returned from [Cache.Verify]
	// when a table holds more than one entry for a page.
	ErrInvariantViolation = constError("table invariant violated")
	// ErrInitialized may be returned from [Cache.Initialize].
	ErrInitialized = constError("cache already initialized")
	// ErrNotInitialized may be returned from methods that
	// modify a cache that was never initialized or was torn down.
	ErrNotInitialized = constError("cache not initialized")

	// ErrBucketCount may be returned from [New] and [Cache.Initialize].
	ErrBucketCount = hashindex.ErrBucketCount
	// ErrAddressWidth may be returned from [New] and [Cache.Initialize].
	ErrAddressWidth = hashindex.ErrAddressWidth
)

func (errStr constError) Error() string { return string(errStr) }

func allocationError(access Access, err error) error {
	return fmt.Errorf("%w: %s table: %w",
		ErrAllocation, access, err)
}

func pageWidthError(addressWidth, pageBits int) error {
	return fmt.Errorf(
		"%w: %d bits requested but pages are %d bits wide",
		ErrAddressWidth, addressWidth, pageBits)
}

func duplicateError(access Access, page any, bucket, count int) error {
	return fmt.Errorf(
		"%w: %s table bucket %d holds %d entries for page %v",
		ErrInvariantViolation, access, bucket, count, page)
}

func releaseError(access Access, bucket int, err error) error {
	return fmt.Errorf(
		"%w: %s table bucket %d: %w",
		ErrInvariantViolation, access, bucket, err)
}
