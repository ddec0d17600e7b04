package domain

// CloneEvent returns a deep copy of e, sharing no mutable state with it
func CloneEvent(e Event) Event {
	return SwitchEvent(e,
		func(ga *GeneralAdmissionEvent) Event {
			c := *ga
			c.EventBase = cloneBase(ga.EventBase)
			return &c
		},
		func(sb *SectionBasedEvent) Event {
			c := &SectionBasedEvent{EventBase: cloneBase(sb.EventBase)}
			for _, s := range sb.sections {
				cs := *s
				if s.Price != nil {
					p := *s.Price
					cs.Price = &p
				}
				c.sections = append(c.sections, &cs)
			}
			return c
		},
		func(rs *ReservedSeatingEvent) Event {
			c := &ReservedSeatingEvent{EventBase: cloneBase(rs.EventBase)}
			for _, s := range rs.seats {
				cs := *s
				c.seats = append(c.seats, &cs)
			}
			return c
		},
	)
}

func cloneBase(b EventBase) EventBase {
	if b.CapacityOverride != nil {
		o := *b.CapacityOverride
		b.CapacityOverride = &o
	}
	return b
}

// CloneBooking returns a deep copy of b
func CloneBooking(b *Booking) *Booking {
	c := *b
	c.Items = make([]*BookingItem, 0, len(b.Items))
	for _, item := range b.Items {
		ci := *item
		c.Items = append(c.Items, &ci)
	}
	return &c
}
