package validator

import (
	"github.com/prohmpiriya/event-inventory/internal/domain"
)

// SchedulingContext is the subject of venue scheduling rules
type SchedulingContext struct {
	Venue *domain.Venue
	Event domain.Event
}

// EventWindowValidator rejects events that end before they start
type EventWindowValidator struct{}

func (v *EventWindowValidator) Validate(ctx *SchedulingContext) error {
	info := ctx.Event.Info()
	if !info.EndTime.After(info.StartTime) {
		return domain.NewError(domain.ErrInvalidArgument, "Event end time must be after start time")
	}
	return nil
}

// CapacityBoundsValidator rejects negative capacities, overrides and attendance estimates
type CapacityBoundsValidator struct{}

func (v *CapacityBoundsValidator) Validate(ctx *SchedulingContext) error {
	info := ctx.Event.Info()
	if info.CapacityOverride != nil && *info.CapacityOverride < 0 {
		return domain.NewError(domain.ErrInvalidArgument, "Capacity override cannot be negative: %d", *info.CapacityOverride)
	}
	if info.EstimatedAttendance < 0 {
		return domain.NewError(domain.ErrInvalidArgument, "Estimated attendance cannot be negative: %d", info.EstimatedAttendance)
	}
	return domain.SwitchEvent(ctx.Event,
		func(ga *domain.GeneralAdmissionEvent) error {
			if ga.Capacity < 0 {
				return domain.NewError(domain.ErrInvalidArgument, "Capacity cannot be negative: %d", ga.Capacity)
			}
			return nil
		},
		func(sb *domain.SectionBasedEvent) error {
			for _, s := range sb.Sections() {
				if s.Capacity < 0 {
					return domain.NewError(domain.ErrInvalidArgument, "Section %d capacity cannot be negative: %d", s.SectionID, s.Capacity)
				}
			}
			return nil
		},
		func(*domain.ReservedSeatingEvent) error { return nil },
	)
}

// CapacityValidator rejects events whose estimated attendance exceeds the venue's section capacity
type CapacityValidator struct{}

func (v *CapacityValidator) Validate(ctx *SchedulingContext) error {
	capacity := ctx.Venue.TotalSectionCapacity()
	if attendance := ctx.Event.Info().EstimatedAttendance; attendance > capacity {
		return domain.NewError(domain.ErrRuleViolation, "Estimated attendance %d exceeds venue capacity %d", attendance, capacity)
	}
	return nil
}

// TimeConflictValidator rejects events overlapping another event at the same venue
type TimeConflictValidator struct{}

func (v *TimeConflictValidator) Validate(ctx *SchedulingContext) error {
	candidate := ctx.Event.Info()
	for _, existing := range ctx.Venue.Events {
		info := existing.Info()
		if info.ID != 0 && info.ID == candidate.ID {
			continue
		}
		if info.Overlaps(candidate.StartTime, candidate.EndTime) {
			return domain.NewError(domain.ErrRuleViolation, "Event time conflicts with existing event '%s'", info.Name)
		}
	}
	return nil
}

// DefaultSchedulingChain builds the standard scheduling rule chain
func DefaultSchedulingChain() *Chain[*SchedulingContext] {
	return NewChain[*SchedulingContext](
		&EventWindowValidator{},
		&CapacityBoundsValidator{},
		&CapacityValidator{},
		&TimeConflictValidator{},
	)
}
