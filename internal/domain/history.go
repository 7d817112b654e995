package domain

// SubmissionKind tells a fresh order apart from one re-entering the book
// after a price change or quantity increase.
type SubmissionKind string

const (
	SubmissionNew   SubmissionKind = "new"
	SubmissionAmend SubmissionKind = "amend"
)

// Submission records an order entering the matching algorithm.
type Submission struct {
	Seq   uint64         `json:"seq"`
	Kind  SubmissionKind `json:"kind"`
	Order Order          `json:"order"`
}

// Execution represents a matched trade between a buy and a sell order.
// Price is always the resting order's price.
type Execution struct {
	Seq         uint64  `json:"seq"`
	BuyOrderID  OrderID `json:"buy_order_id"`
	SellOrderID OrderID `json:"sell_order_id"`
	Price       int64   `json:"price"`
	Quantity    int64   `json:"quantity"`
}

// Operation names the book call that produced an error record.
type Operation string

const (
	OpSubmit Operation = "submit"
	OpUpdate Operation = "update"
	OpCancel Operation = "cancel"
)

// Rejection is an error history entry: what was asked, and why it failed.
type Rejection struct {
	Seq       uint64    `json:"seq"`
	Operation Operation `json:"operation"`
	OrderID   OrderID   `json:"order_id"`
	Order     Order     `json:"order"`
	Code      string    `json:"code"`
	Reason    string    `json:"reason"`
}
