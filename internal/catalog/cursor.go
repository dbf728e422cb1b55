package catalog

import (
	"fmt"
	"math"

	"storefront/internal/domain"
)

// PageCursor tracks offset pagination over one set of criteria. PageNumber
// is the 1-based page the next query will fetch.
//
// Offset paging only guarantees that no product is skipped or repeated when
// the backing set is not mutated during a scroll session. Every view orders
// by a total order ending in the product id, which is what a keyset cursor
// would encode if that assumption has to be dropped.
type PageCursor struct {
	PageSize      int `json:"page_size"`
	PageNumber    int `json:"page_number"`
	TotalMatching int `json:"total_matching"`
	Loaded        int `json:"loaded"`
}

// NewPageCursor returns a cursor positioned at the first page
func NewPageCursor(pageSize int) PageCursor {
	return PageCursor{PageSize: pageSize, PageNumber: 1}
}

// HasMore reports whether another page can be requested
func (c PageCursor) HasMore() bool {
	if c.PageNumber <= 1 && c.Loaded == 0 {
		return true
	}
	return c.Loaded < c.TotalMatching
}

// Reset returns the cursor repositioned at the first page
func (c PageCursor) Reset() PageCursor {
	return NewPageCursor(c.PageSize)
}

// Offset is the number of matching products before the next page
func (c PageCursor) Offset() int {
	return (c.PageNumber - 1) * c.PageSize
}

// MaxOffset is the largest number of products a page may skip
const MaxOffset = math.MaxInt32

func (c PageCursor) validate() error {
	return ValidatePage(c.PageNumber, c.PageSize)
}

// ValidatePage rejects non-positive page numbers and sizes, and pages whose
// offset would exceed MaxOffset
func ValidatePage(page, pageSize int) error {
	if pageSize < 1 {
		return fmt.Errorf("%w: page size must be positive, got %d", domain.ErrValidation, pageSize)
	}
	if page < 1 {
		return fmt.Errorf("%w: page number must be positive, got %d", domain.ErrValidation, page)
	}
	if page-1 > MaxOffset/pageSize {
		return fmt.Errorf("%w: page %d is out of range", domain.ErrValidation, page)
	}
	return nil
}
