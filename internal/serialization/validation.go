package serialization

import (
	"fmt"
	"sort"
)

// Validation limits for resource protection.
const (
	MaxTensorCount = 100_000           // Maximum number of index entries
	MaxMemberSize  = 100 * 1024 * 1024 // 100MB - maximum size of a JSON member
	MaxWeightsSize = 4 << 30           // 4GB - maximum size of the weights blob
)

// weightsLimit returns the largest weights blob the index can account for:
// the furthest end of any well-formed entry, capped at MaxWeightsSize.
// Malformed entries are left for ValidateIndex to report.
func weightsLimit(entries []IndexEntry) int64 {
	var end int64
	for _, e := range entries {
		if e.Offset < 0 || e.Size < 0 || e.Offset > MaxWeightsSize || e.Size > MaxWeightsSize {
			continue
		}
		end = max(end, e.Offset+e.Size)
	}
	return min(end, MaxWeightsSize)
}

// ValidateIndex checks index entries for negative, out-of-bounds and
// overlapping regions of a weights blob of blobSize bytes, and that each
// entry's size matches its shape.
func ValidateIndex(entries []IndexEntry, blobSize int64) error {
	if len(entries) > MaxTensorCount {
		return &ValidationError{
			Kind:    ErrTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(entries), MaxTensorCount),
		}
	}

	type region struct {
		name         string
		offset, size int64
	}
	regions := make([]region, len(entries))
	for i, e := range entries {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		if e.Offset < 0 || e.Size < 0 {
			return &ValidationError{
				Kind:    ErrNegativeOffset,
				Tensor:  name,
				Details: fmt.Sprintf("offset=%d, size=%d", e.Offset, e.Size),
			}
		}
		if e.Offset+e.Size > blobSize {
			return &ValidationError{
				Kind:    ErrOutOfBounds,
				Tensor:  name,
				Details: fmt.Sprintf("offset %d + size %d > blob size %d", e.Offset, e.Size, blobSize),
			}
		}
		elements := int64(1)
		for _, d := range e.Shape {
			if d <= 0 {
				return &ValidationError{
					Kind:    ErrInvalidShape,
					Tensor:  name,
					Details: fmt.Sprintf("shape %v has a non-positive dimension", e.Shape),
				}
			}
			elements *= int64(d)
		}
		if elements*bytesPerValue != e.Size || e.Offset%bytesPerValue != 0 {
			return &ValidationError{
				Kind:    ErrOutOfBounds,
				Tensor:  name,
				Details: fmt.Sprintf("shape %v does not fill %d bytes at offset %d", e.Shape, e.Size, e.Offset),
			}
		}
		regions[i] = region{name: name, offset: e.Offset, size: e.Size}
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].offset < regions[j].offset
	})
	for i := 0; i+1 < len(regions); i++ {
		cur, next := regions[i], regions[i+1]
		if cur.offset+cur.size > next.offset {
			return &ValidationError{
				Kind:    ErrOffsetOverlap,
				Tensor:  cur.name,
				Tensor2: next.name,
				Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
					cur.offset, cur.offset+cur.size, next.offset, next.offset+next.size),
			}
		}
	}
	return nil
}
