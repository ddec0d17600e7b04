package domain

// VenueSection is a physical area of a venue
type VenueSection struct {
	ID       int64  `json:"id"`
	VenueID  int64  `json:"venue_id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Venue hosts events and owns their sections
type Venue struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Address  string          `json:"address"`
	Sections []*VenueSection `json:"sections"`
	Events   []Event         `json:"-"`
}

// TotalSectionCapacity returns the summed capacity of every section
func (v *Venue) TotalSectionCapacity() int {
	total := 0
	for _, s := range v.Sections {
		total += s.Capacity
	}
	return total
}

// GetSection returns a venue section by id
func (v *Venue) GetSection(sectionID int64) (*VenueSection, error) {
	for _, s := range v.Sections {
		if s.ID == sectionID {
			return s, nil
		}
	}
	return nil, NotFound("Section", sectionID)
}

// AddEvent attaches an already validated event
func (v *Venue) AddEvent(e Event) {
	e.Info().VenueID = v.ID
	v.Events = append(v.Events, e)
}
