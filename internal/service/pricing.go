package service

import (
	"github.com/prohmpiriya/event-inventory/internal/domain"
)

// SeatPricer prices one seat of a reserved seating event
type SeatPricer interface {
	PriceSeat(event *domain.ReservedSeatingEvent, seat *domain.Seat) float64
}

// ZeroSeatPricer prices every seat at zero
type ZeroSeatPricer struct{}

func (ZeroSeatPricer) PriceSeat(*domain.ReservedSeatingEvent, *domain.Seat) float64 {
	return 0
}

// FlatSeatPricer charges the same price for every seat
type FlatSeatPricer struct {
	Price float64
}

func (p FlatSeatPricer) PriceSeat(*domain.ReservedSeatingEvent, *domain.Seat) float64 {
	return p.Price
}

// NewSeatPricer returns a flat pricer for a positive price and the zero pricer otherwise
func NewSeatPricer(price float64) SeatPricer {
	if price > 0 {
		return FlatSeatPricer{Price: price}
	}
	return ZeroSeatPricer{}
}
