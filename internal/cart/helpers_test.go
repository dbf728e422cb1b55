package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testProduct(name string, price int64, discount, stock int) *domain.Product {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Product{
		ID:              uuid.New(),
		Code:            "C-" + name,
		Name:            name,
		Price:           decimal.NewFromInt(price),
		DiscountPercent: discount,
		Stock:           stock,
		Active:          true,
		CategoryName:    "General",
		ImageURL:        domain.DefaultImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

var errStoreDown = errors.New("store down")

// recordingPersistence counts saves and can be switched to fail
type recordingPersistence struct {
	mu    sync.Mutex
	saves []Snapshot
	fail  bool
}

func (r *recordingPersistence) Save(ctx context.Context, snapshot Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errStoreDown
	}
	r.saves = append(r.saves, snapshot.Clone())
	return nil
}

func (r *recordingPersistence) Load(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return Snapshot{}, false, errStoreDown
	}
	if len(r.saves) == 0 {
		return Snapshot{}, false, nil
	}
	return r.saves[len(r.saves)-1].Clone(), true, nil
}

func (r *recordingPersistence) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}
