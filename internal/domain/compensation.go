package domain

import "errors"

// CompensateReservation reverts the capacity a booking took from event.
// It is the only path that returns a Reserved seat to Available.
// Every item is attempted; the joined errors of the ones that failed are returned.
func CompensateReservation(e Event, b *Booking) error {
	if b == nil {
		return newError(ErrInvalidArgument, "Booking is required")
	}
	if b.EventID != e.Info().ID {
		return newError(ErrInvalidArgument, "Booking %s does not belong to event %d", b.ID, e.Info().ID)
	}
	if want := BookingTypeOf(e); b.Type != want {
		return newError(ErrInvalidArgument, "Booking type %s does not match event type %s", b.Type, want)
	}

	return SwitchEvent(e,
		func(ga *GeneralAdmissionEvent) error {
			return ga.ReleaseTickets(b.Quantity)
		},
		func(sb *SectionBasedEvent) error {
			var errs []error
			for _, item := range b.Items {
				if item.SectionInventoryID == nil {
					continue
				}
				if err := sb.ReleaseFromSection(*item.SectionInventoryID, item.Quantity); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
		func(rs *ReservedSeatingEvent) error {
			var errs []error
			for _, item := range b.Items {
				if item.SeatID == nil {
					continue
				}
				seat, err := rs.GetSeat(*item.SeatID)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if err := seat.unreserve(); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	)
}
