package dto

import (
	"time"

	"github.com/prohmpiriya/event-inventory/internal/domain"
)

// SectionRequest describes one section inventory of a new section-based event
type SectionRequest struct {
	SectionID int64    `json:"section_id" binding:"required"`
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity" binding:"min=0"`
	Price     *float64 `json:"price,omitempty"`
}

// SeatRequest describes one seat of a new reserved seating event
type SeatRequest struct {
	ID        int64  `json:"id" binding:"required"`
	SectionID int64  `json:"section_id"`
	Row       string `json:"row" binding:"required"`
	Number    string `json:"number" binding:"required"`
}

// ScheduleEventRequest represents the HTTP body for adding an event to a venue
type ScheduleEventRequest struct {
	Kind                string           `json:"kind" binding:"required,oneof=general_admission section_based reserved_seating"`
	Name                string           `json:"name" binding:"required"`
	StartTime           time.Time        `json:"start_time" binding:"required"`
	EndTime             time.Time        `json:"end_time" binding:"required"`
	EstimatedAttendance int              `json:"estimated_attendance" binding:"min=0"`
	CapacityOverride    *int             `json:"capacity_override,omitempty"`
	Capacity            int              `json:"capacity,omitempty"`
	TicketPrice         float64          `json:"ticket_price,omitempty"`
	Sections            []SectionRequest `json:"sections,omitempty"`
	Seats               []SeatRequest    `json:"seats,omitempty"`
}

// ToDomain builds the event variant named by Kind
func (r *ScheduleEventRequest) ToDomain(venueID int64) (domain.Event, error) {
	base := domain.EventBase{
		VenueID:             venueID,
		Name:                r.Name,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		EstimatedAttendance: r.EstimatedAttendance,
		CapacityOverride:    r.CapacityOverride,
	}

	switch domain.EventKind(r.Kind) {
	case domain.EventKindGeneralAdmission:
		return &domain.GeneralAdmissionEvent{
			EventBase:   base,
			Capacity:    r.Capacity,
			TicketPrice: r.TicketPrice,
		}, nil
	case domain.EventKindSectionBased:
		sections := make([]*domain.SectionInventory, 0, len(r.Sections))
		for _, s := range r.Sections {
			inv, err := domain.NewSectionInventory(s.SectionID, s.Name, s.Capacity, s.Price)
			if err != nil {
				return nil, err
			}
			sections = append(sections, inv)
		}
		return domain.NewSectionBasedEvent(base, sections...)
	case domain.EventKindReservedSeating:
		seats := make([]*domain.Seat, 0, len(r.Seats))
		for _, s := range r.Seats {
			seats = append(seats, domain.NewSeat(s.ID, s.SectionID, s.Row, s.Number))
		}
		return domain.NewReservedSeatingEvent(base, seats...)
	}
	return nil, domain.NewError(domain.ErrInvalidArgument, "Unknown event kind '%s'", r.Kind)
}

// EventResponse represents a scheduled event
type EventResponse struct {
	ID                  int64     `json:"id"`
	VenueID             int64     `json:"venue_id"`
	Kind                string    `json:"kind"`
	Name                string    `json:"name"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	EstimatedAttendance int       `json:"estimated_attendance"`
	TotalCapacity       int       `json:"total_capacity"`
}

// EventFromDomain converts a domain event to EventResponse
func EventFromDomain(e domain.Event) *EventResponse {
	info := e.Info()
	return &EventResponse{
		ID:                  info.ID,
		VenueID:             info.VenueID,
		Kind:                string(e.Kind()),
		Name:                info.Name,
		StartTime:           info.StartTime,
		EndTime:             info.EndTime,
		EstimatedAttendance: info.EstimatedAttendance,
		TotalCapacity:       e.TotalCapacity(),
	}
}

// SectionAvailability is the capacity view of one section
type SectionAvailability struct {
	SectionID int64    `json:"section_id"`
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Booked    int      `json:"booked"`
	Remaining int      `json:"remaining"`
	Price     *float64 `json:"price,omitempty"`
}

// SeatCounts summarizes seat states of a reserved seating event
type SeatCounts struct {
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Locked    int `json:"locked"`
}

// AvailabilityResponse is the capacity view of an event
type AvailabilityResponse struct {
	EventID   int64                  `json:"event_id"`
	Kind      string                 `json:"kind"`
	Total     int                    `json:"total"`
	Reserved  int                    `json:"reserved"`
	Available int                    `json:"available"`
	SoldOut   bool                   `json:"sold_out"`
	Sections  []*SectionAvailability `json:"sections,omitempty"`
	Seats     *SeatCounts            `json:"seats,omitempty"`
}

// AvailabilityFromDomain builds the capacity view of an event
func AvailabilityFromDomain(e domain.Event) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		EventID:   e.Info().ID,
		Kind:      string(e.Kind()),
		Total:     e.TotalCapacity(),
		Reserved:  e.TotalReserved(),
		Available: e.AvailableCapacity(),
		SoldOut:   e.IsSoldOut(),
	}
	domain.SwitchEvent(e,
		func(*domain.GeneralAdmissionEvent) struct{} { return struct{}{} },
		func(sb *domain.SectionBasedEvent) struct{} {
			for _, s := range sb.Sections() {
				resp.Sections = append(resp.Sections, &SectionAvailability{
					SectionID: s.SectionID,
					Name:      s.Name,
					Capacity:  s.Capacity,
					Booked:    s.Booked,
					Remaining: s.Remaining(),
					Price:     s.Price,
				})
			}
			return struct{}{}
		},
		func(rs *domain.ReservedSeatingEvent) struct{} {
			resp.Seats = &SeatCounts{
				Available: len(rs.GetAvailableSeats()),
				Reserved:  len(rs.GetReservedSeats()),
				Locked:    len(rs.GetLockedSeats()),
			}
			return struct{}{}
		},
	)
	return resp
}
