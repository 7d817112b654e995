package domain

// OrderID identifies an order for as long as it rests on the book.
type OrderID string

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderTypeLimit || t == OrderTypeMarket
}

// Side indicates whether an order buys or sells.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the side an order of side s matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Order is a single instruction on the book. ID, Side and Type never change
// once the order is accepted; Price and RemainingQuantity only change through
// fills or an explicit update.
type Order struct {
	ID                OrderID   `json:"id"`
	Side              Side      `json:"side"`
	Type              OrderType `json:"type"`
	Price             int64     `json:"price"` // ticks, 0 for market orders
	OriginalQuantity  int64     `json:"original_quantity"`
	RemainingQuantity int64     `json:"remaining_quantity"`
	FilledQuantity    int64     `json:"filled_quantity"`
	SubmittedAt       uint64    `json:"submitted_at"` // sequence value, defines time priority
}

// Filled reports whether the order has nothing left to execute.
func (o *Order) Filled() bool {
	return o.RemainingQuantity == 0
}

// Fill reduces the remaining quantity by qty.
func (o *Order) Fill(qty int64) {
	o.RemainingQuantity -= qty
	o.FilledQuantity += qty
}
