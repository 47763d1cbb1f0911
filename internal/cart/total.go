package cart

import (
	"context"
	"fmt"

	"github.com/safar/go-cart-store/internal/models"
	"github.com/shopspring/decimal"
)

// Total is a cart total plus the product ids whose price could not be
// resolved. A stale item (product deleted after being added) contributes
// nothing to the sum and is flagged instead of failing the computation.
type Total struct {
	Total           decimal.Decimal `json:"total"`
	StaleProductIDs []int64         `json:"stale_product_ids,omitempty"`
}

// ComputeTotal sums quantity times current unit price over the cart's
// items. Prices are resolved at call time so price changes are reflected
// immediately.
func (s *Service) ComputeTotal(ctx context.Context, cart *models.Cart) (Total, error) {
	ids := make([]int64, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	prices, err := s.prices.PricesFor(ctx, ids)
	if err != nil {
		return Total{}, fmt.Errorf("look up prices: %w", err)
	}

	total := Total{Total: decimal.Zero}
	for _, item := range cart.Items {
		price, ok := prices[item.ProductID]
		if !ok {
			total.StaleProductIDs = append(total.StaleProductIDs, item.ProductID)
			continue
		}
		total.Total = total.Total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return total, nil
}
