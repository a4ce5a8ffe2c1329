package domain

// PricingBreakdown captures the aggregated monetary results of pricing an order.
type PricingBreakdown struct {
	Subtotal int64
	Shipping int64
	Discount int64
	Total    int64
	Items    []ItemPricingBreakdown
}

// ItemPricingBreakdown stores the per-line pricing outputs.
type ItemPricingBreakdown struct {
	ItemID    string
	UnitPrice int64
	Quantity  int64
	Subtotal  int64
}
