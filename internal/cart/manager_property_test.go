package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"storefront/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

// Feature: cart, Property 1: Cumulative quantity never exceeds stock
func TestProperty_CumulativeAddRespectsStock(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adds succeed exactly while the running total fits in stock", prop.ForAll(
		func(stock int, adds []int) bool {
			ctx := context.Background()
			m := NewManager("prop", NewMemoryPersistence(), zap.NewNop())
			p := testProduct("Item", 10, 0, stock)

			total := 0
			for _, qty := range adds {
				_, err := m.AddItem(ctx, p, qty)
				if total+qty <= stock {
					if err != nil {
						return false
					}
					total += qty
				} else if !errors.Is(err, domain.ErrInsufficientStock) {
					return false
				}

				line, ok := m.Snapshot().Line(p.ID)
				if total == 0 {
					if ok {
						return false
					}
					continue
				}
				if !ok || line.Quantity != total {
					return false
				}
			}
			return total <= stock
		},
		gen.IntRange(0, 20),
		gen.SliceOf(gen.IntRange(1, 8)),
	))

	properties.TestingRun(t)
}

// Feature: cart, Property 2: Failed mutations leave the cart unchanged
func TestProperty_FailedMutationLeavesCartIdentical(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rejected SetQuantity does not change the serialized cart", prop.ForAll(
		func(initial, requested int) bool {
			ctx := context.Background()
			m := NewManager("prop", NewMemoryPersistence(), zap.NewNop())
			p := testProduct("Item", 10, 5, 10)

			if _, err := m.AddItem(ctx, p, initial); err != nil {
				return false
			}
			before, _ := json.Marshal(m.Snapshot())

			_, err := m.SetQuantity(ctx, p.ID, requested)
			after, _ := json.Marshal(m.Snapshot())

			if requested >= 1 && requested <= 10 {
				return err == nil
			}
			return err != nil && string(before) == string(after)
		},
		gen.IntRange(1, 10),
		gen.IntRange(-5, 20),
	))

	properties.TestingRun(t)
}
