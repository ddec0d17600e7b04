package domain

// SectionBasedEvent sells admission to named sections, each with its own counter
type SectionBasedEvent struct {
	EventBase
	sections []*SectionInventory
}

// NewSectionBasedEvent creates a section-based event; section ids must be unique
func NewSectionBasedEvent(base EventBase, sections ...*SectionInventory) (*SectionBasedEvent, error) {
	e := &SectionBasedEvent{EventBase: base}
	for _, s := range sections {
		if err := e.AddSection(s); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *SectionBasedEvent) sealed() {}

// Kind returns EventKindSectionBased
func (e *SectionBasedEvent) Kind() EventKind {
	return EventKindSectionBased
}

// AddSection appends a section inventory, keeping insertion order
func (e *SectionBasedEvent) AddSection(section *SectionInventory) error {
	if section == nil {
		return newError(ErrInvalidArgument, "Section is required")
	}
	if _, ok := e.findSection(section.SectionID); ok {
		return newError(ErrInvalidArgument, "Section %d already exists in event '%s'", section.SectionID, e.Name)
	}
	section.EventID = e.ID
	e.sections = append(e.sections, section)
	return nil
}

// Sections returns the ordered section inventories
func (e *SectionBasedEvent) Sections() []*SectionInventory {
	return e.sections
}

// TotalCapacity returns the override when set, else the sum of section capacities
func (e *SectionBasedEvent) TotalCapacity() int {
	if e.CapacityOverride != nil {
		return *e.CapacityOverride
	}
	total := 0
	for _, s := range e.sections {
		total += s.Capacity
	}
	return total
}

// TotalReserved returns the sum of booked places
func (e *SectionBasedEvent) TotalReserved() int {
	total := 0
	for _, s := range e.sections {
		total += s.Booked
	}
	return total
}

// AvailableCapacity returns TotalCapacity - TotalReserved
func (e *SectionBasedEvent) AvailableCapacity() int {
	return availableCapacity(e)
}

// IsSoldOut reports whether no capacity is left
func (e *SectionBasedEvent) IsSoldOut() bool {
	return e.AvailableCapacity() <= 0
}

// ValidateCapacity checks event-wide capacity for quantity
func (e *SectionBasedEvent) ValidateCapacity(quantity int) error {
	return validateCapacity(e, quantity)
}

func (e *SectionBasedEvent) findSection(sectionID int64) (*SectionInventory, bool) {
	for _, s := range e.sections {
		if s.SectionID == sectionID {
			return s, true
		}
	}
	return nil, false
}

// GetSection returns the inventory of a section
func (e *SectionBasedEvent) GetSection(sectionID int64) (*SectionInventory, error) {
	s, ok := e.findSection(sectionID)
	if !ok {
		return nil, NotFound("Section", sectionID)
	}
	return s, nil
}

// ValidateSectionReservation checks a section reservation without mutating anything
func (e *SectionBasedEvent) ValidateSectionReservation(sectionID int64, quantity int) error {
	s, err := e.GetSection(sectionID)
	if err != nil {
		return err
	}
	return s.ValidateReservation(quantity)
}

// ReserveInSection books quantity places in a section
func (e *SectionBasedEvent) ReserveInSection(sectionID int64, quantity int) error {
	s, err := e.GetSection(sectionID)
	if err != nil {
		return err
	}
	return s.ReserveSeats(quantity)
}

// ReleaseFromSection returns quantity places to a section
func (e *SectionBasedEvent) ReleaseFromSection(sectionID int64, quantity int) error {
	s, err := e.GetSection(sectionID)
	if err != nil {
		return err
	}
	return s.ReleaseSeats(quantity)
}

// GetAvailableSections returns sections with remaining capacity
func (e *SectionBasedEvent) GetAvailableSections() []*SectionInventory {
	var result []*SectionInventory
	for _, s := range e.sections {
		if !s.IsSoldOut() {
			result = append(result, s)
		}
	}
	return result
}

// GetSoldOutSections returns sections without remaining capacity
func (e *SectionBasedEvent) GetSoldOutSections() []*SectionInventory {
	var result []*SectionInventory
	for _, s := range e.sections {
		if s.IsSoldOut() {
			result = append(result, s)
		}
	}
	return result
}
