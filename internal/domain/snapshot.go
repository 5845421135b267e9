package domain

import "time"

// BookLevel is one (price, aggregate quantity) entry of a depth snapshot.
type BookLevel struct {
	Price    float64 `json:"price"`
	Quantity uint64  `json:"quantity"`
}

// DepthSnapshot is a point-in-time view of the best levels of both sides,
// best price first.
type DepthSnapshot struct {
	Symbol    string      `json:"symbol"`
	Depth     int         `json:"depth"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp time.Time   `json:"timestamp"`
}

// DeepCopy returns a snapshot that shares no slices with the receiver.
func (s *DepthSnapshot) DeepCopy() *DepthSnapshot {
	cp := *s
	cp.Bids = append([]BookLevel(nil), s.Bids...)
	cp.Asks = append([]BookLevel(nil), s.Asks...)
	return &cp
}

// BestPrices reports top of book per side; a false flag means the side is
// empty and the price field carries no information.
type BestPrices struct {
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	HasBid bool    `json:"has_bid"`
	HasAsk bool    `json:"has_ask"`
}
