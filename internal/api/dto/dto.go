// Package dto defines the JSON shapes of the HTTP API. Prices and quantities
// travel as decimal strings so clients never see float artifacts; conversion
// to the engine's native types happens here and nowhere else.
package dto

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bookcore/internal/domain"
)

var ErrBadRequest = errors.New("bad request")

type AddOrderRequest struct {
	ID       uint64          `json:"id" binding:"required"`
	Side     string          `json:"side" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// ToDomain validates the request and converts it to the engine's order type.
// Quantity must be a positive integer number of units.
func (r *AddOrderRequest) ToDomain() (*domain.Order, error) {
	side, err := parseSide(r.Side)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(r.Price)
	if err != nil {
		return nil, err
	}
	qty, err := parseQuantity(r.Quantity)
	if err != nil {
		return nil, err
	}
	return &domain.Order{
		ID:       r.ID,
		Side:     side,
		Price:    price,
		Quantity: qty,
	}, nil
}

type CancelOrderRequest struct {
	ID uint64 `json:"id" binding:"required"`
}

type AmendOrderRequest struct {
	ID       uint64          `json:"id" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

func (r *AmendOrderRequest) Values() (price float64, qty uint64, err error) {
	price, err = parsePrice(r.Price)
	if err != nil {
		return 0, 0, err
	}
	qty, err = parseQuantity(r.Quantity)
	if err != nil {
		return 0, 0, err
	}
	return price, qty, nil
}

type OrderResponse struct {
	ID        uint64          `json:"id"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Timestamp int64           `json:"timestamp_ns"`
}

func OrderFromDomain(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:        o.ID,
		Side:      string(o.Side),
		Price:     decimal.NewFromFloat(o.Price),
		Quantity:  decimal.NewFromInt(int64(o.Quantity)),
		Timestamp: o.Timestamp,
	}
}

type Level struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

type DepthResponse struct {
	Symbol string  `json:"symbol"`
	Depth  int     `json:"depth"`
	Bids   []Level `json:"bids"`
	Asks   []Level `json:"asks"`
}

func DepthFromDomain(s *domain.DepthSnapshot) DepthResponse {
	resp := DepthResponse{
		Symbol: s.Symbol,
		Depth:  s.Depth,
		Bids:   make([]Level, 0, len(s.Bids)),
		Asks:   make([]Level, 0, len(s.Asks)),
	}
	for _, l := range s.Bids {
		resp.Bids = append(resp.Bids, Level{
			Price:    decimal.NewFromFloat(l.Price),
			Quantity: decimal.NewFromInt(int64(l.Quantity)),
		})
	}
	for _, l := range s.Asks {
		resp.Asks = append(resp.Asks, Level{
			Price:    decimal.NewFromFloat(l.Price),
			Quantity: decimal.NewFromInt(int64(l.Quantity)),
		})
	}
	return resp
}

type BestPricesResponse struct {
	Bid    *decimal.Decimal `json:"bid"`
	Ask    *decimal.Decimal `json:"ask"`
	HasBid bool             `json:"has_bid"`
	HasAsk bool             `json:"has_ask"`
}

// BestPricesFromDomain leaves an empty side's price null rather than emitting
// a sentinel value a client might mistake for a real quote.
func BestPricesFromDomain(bp domain.BestPrices) BestPricesResponse {
	resp := BestPricesResponse{HasBid: bp.HasBid, HasAsk: bp.HasAsk}
	if bp.HasBid {
		d := decimal.NewFromFloat(bp.Bid)
		resp.Bid = &d
	}
	if bp.HasAsk {
		d := decimal.NewFromFloat(bp.Ask)
		resp.Ask = &d
	}
	return resp
}

type StatsResponse struct {
	OrdersAdded     uint64 `json:"orders_added"`
	OrdersCancelled uint64 `json:"orders_cancelled"`
	OrdersAmended   uint64 `json:"orders_amended"`
	RestingOrders   int    `json:"resting_orders"`
}

type SnapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func parseSide(s string) (domain.Side, error) {
	switch domain.Side(s) {
	case domain.Buy, domain.Sell:
		return domain.Side(s), nil
	default:
		return "", fmt.Errorf("%w: side must be BUY or SELL", ErrBadRequest)
	}
}

func parsePrice(d decimal.Decimal) (float64, error) {
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("%w: price must be positive", ErrBadRequest)
	}
	return d.InexactFloat64(), nil
}

func parseQuantity(d decimal.Decimal) (uint64, error) {
	if d.Sign() <= 0 || !d.IsInteger() {
		return 0, fmt.Errorf("%w: quantity must be a positive integer", ErrBadRequest)
	}
	return uint64(d.IntPart()), nil
}
