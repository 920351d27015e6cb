package cartsync

import (
	"encoding/json"
	"fmt"

	"storefront/internal/contract"
	"storefront/internal/domain"
)

// Encode serializes the cart into the persisted snapshot format, a JSON array
// of line items.
func Encode(items []domain.CartLineItem) (string, error) {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a snapshot and rejects content no cart could have produced:
// missing ids, quantities below one or duplicate ids.
func Decode(snapshot string) ([]domain.CartLineItem, error) {
	var items []domain.CartLineItem
	if err := json.Unmarshal([]byte(snapshot), &items); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if err := contract.Validate(items); err != nil {
		return nil, fmt.Errorf("cart snapshot: %w", err)
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("cart snapshot: duplicate line item %q", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return items, nil
}
