// Package hashindex maps page numbers to bucket indices
// by keeping the most significant bits of the page number.
package hashindex

import (
	"fmt"
	"math/bits"
)

type constError string

const (
	// ErrBucketCount may be returned from [New].
	ErrBucketCount = constError("invalid bucket count")
	// ErrAddressWidth may be returned from [New].
	ErrAddressWidth = constError("invalid address width")
)

// MaxAddressWidth is the widest page number supported by [New].
const MaxAddressWidth = 64

// Index is a bucket selector for page numbers of a fixed width.
// The zero value is not usable; construct with [New].
type Index struct {
	mask         uint64
	shift        uint
	addressWidth int
}

func (errStr constError) Error() string { return string(errStr) }

// New returns an Index that spreads page numbers of
// addressWidth significant bits across bucketCount buckets.
// bucketCount must be a power of two, and addressWidth
// must be wide enough to address every bucket.
func New(bucketCount, addressWidth int) (Index, error) {
	if bucketCount < 1 || bucketCount&(bucketCount-1) != 0 {
		return Index{}, fmt.Errorf(
			"%w: must be a power of two but %d was requested",
			ErrBucketCount, bucketCount)
	}
	bucketBits := bits.TrailingZeros(uint(bucketCount))
	if addressWidth < bucketBits || addressWidth > MaxAddressWidth {
		return Index{}, fmt.Errorf(
			"%w: must be within [%d,%d] for %d buckets but %d was requested",
			ErrAddressWidth, bucketBits, MaxAddressWidth,
			bucketCount, addressWidth)
	}
	return Index{
		mask:         uint64(bucketCount - 1),
		shift:        uint(addressWidth - bucketBits),
		addressWidth: addressWidth,
	}, nil
}

// Bucket returns the bucket for page.
// Bits above the address width are masked off,
// so the result is always within [0, Buckets()).
func (ix Index) Bucket(page uint64) int {
	return int((page >> ix.shift) & ix.mask)
}

// Buckets returns the number of buckets.
func (ix Index) Buckets() int { return int(ix.mask) + 1 }

// Shift returns the distance pages are shifted right by [Index.Bucket].
func (ix Index) Shift() uint { return ix.shift }

// AddressWidth returns the configured page number width in bits.
func (ix Index) AddressWidth() int { return ix.addressWidth }
