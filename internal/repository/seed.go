package repository

import (
	"fmt"

	"github.com/prohmpiriya/event-inventory/internal/domain"
)

// DemoVenueID is the venue created by SeedDemo
const DemoVenueID int64 = 1

// SeedDemo fills an empty memory store with one venue and users 1..users,
// so the in-memory driver can serve scheduling and booking requests
func SeedDemo(store *MemoryStore, users int) {
	store.PutVenue(&domain.Venue{
		ID:      DemoVenueID,
		Name:    "Main Arena",
		Address: "1 Stadium Road",
		Sections: []*domain.VenueSection{
			{ID: 1, Name: "Floor", Capacity: 2000},
			{ID: 2, Name: "Lower Bowl", Capacity: 5000},
			{ID: 3, Name: "Upper Bowl", Capacity: 8000},
		},
	})
	for id := int64(1); id <= int64(users); id++ {
		store.PutUser(&domain.User{
			ID:    id,
			Email: fmt.Sprintf("user%d@example.com", id),
			Name:  fmt.Sprintf("User %d", id),
		})
	}
}
