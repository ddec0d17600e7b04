package domain

// User is a customer together with the bookings they hold
type User struct {
	ID       int64      `json:"id"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Bookings []*Booking `json:"bookings,omitempty"`
}

// BookingsForEvent returns the user's active bookings for an event
func (u *User) BookingsForEvent(eventID int64) []*Booking {
	var result []*Booking
	for _, b := range u.Bookings {
		if b.EventID == eventID && b.IsActive() {
			result = append(result, b)
		}
	}
	return result
}
