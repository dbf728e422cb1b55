package transport

import (
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/service"

	"github.com/shopspring/decimal"
)

// ProductResponse is a product as listed, with its computed final price
type ProductResponse struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discount_percent"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	OnOffer         bool            `json:"on_offer"`
	Stock           int             `json:"stock"`
	Active          bool            `json:"active"`
	CategoryName    string          `json:"category_name"`
	ImageURL        string          `json:"image_url"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newProductResponse(p *domain.Product) ProductResponse {
	// validated products always price
	final, _ := pricing.ProductPrice(p)
	return ProductResponse{
		ID:              p.ID.String(),
		Code:            p.Code,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		FinalPrice:      final,
		OnOffer:         p.OnOffer(),
		Stock:           p.Stock,
		Active:          p.Active,
		CategoryName:    p.CategoryName,
		ImageURL:        p.ImageURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// PriceBounds is the final price span of a page
type PriceBounds struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// ProductListResponse is one page of a listing
type ProductListResponse struct {
	Items       []ProductResponse  `json:"items"`
	Page        int                `json:"page"`
	Next        catalog.PageCursor `json:"next"`
	HasMore     bool               `json:"has_more"`
	PriceBounds *PriceBounds       `json:"price_bounds,omitempty"`
}

func newProductListResponse(items []*domain.Product, page int, next catalog.PageCursor) ProductListResponse {
	resp := ProductListResponse{
		Items:   make([]ProductResponse, 0, len(items)),
		Page:    page,
		Next:    next,
		HasMore: next.HasMore(),
	}
	for _, p := range items {
		resp.Items = append(resp.Items, newProductResponse(p))
	}
	if low, high, ok := catalog.PriceBounds(items); ok {
		resp.PriceBounds = &PriceBounds{Min: low, Max: high}
	}
	return resp
}

// CartResponse is a cart with its derived totals
type CartResponse struct {
	SessionID        string          `json:"session_id"`
	Items            []cart.Item     `json:"items"`
	ItemCount        int             `json:"item_count"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	OriginalSubtotal decimal.Decimal `json:"original_subtotal"`
	Savings          decimal.Decimal `json:"savings"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func newCartResponse(s cart.Snapshot) CartResponse {
	items := s.Items
	if items == nil {
		items = []cart.Item{}
	}
	return CartResponse{
		SessionID:        s.SessionID,
		Items:            items,
		ItemCount:        s.ItemCount(),
		Subtotal:         s.Subtotal(),
		OriginalSubtotal: s.OriginalSubtotal(),
		Savings:          s.Savings(),
		UpdatedAt:        s.UpdatedAt,
	}
}

// FeedPageResponse is one "load more" step of a session feed
type FeedPageResponse struct {
	Items   []ProductResponse `json:"items"`
	Reset   bool              `json:"reset"`
	Epoch   uint64            `json:"epoch"`
	Loaded  int               `json:"loaded"`
	Total   int               `json:"total"`
	HasMore bool              `json:"has_more"`
}

func newFeedPageResponse(page service.FeedPage) FeedPageResponse {
	resp := FeedPageResponse{
		Items:   make([]ProductResponse, 0, len(page.Items)),
		Reset:   page.Reset,
		Epoch:   page.Epoch,
		Loaded:  page.Cursor.Loaded,
		Total:   page.Cursor.TotalMatching,
		HasMore: page.HasMore,
	}
	for _, p := range page.Items {
		resp.Items = append(resp.Items, newProductResponse(p))
	}
	return resp
}
