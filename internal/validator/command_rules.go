package validator

import (
	"github.com/prohmpiriya/event-inventory/internal/domain"
	"github.com/prohmpiriya/event-inventory/internal/dto"
)

// CommandRule is an application-level rule over a booking command
type CommandRule = Rule[*dto.CreateBookingCommand]

// CommandRequiredFieldsValidator checks user and event ids
type CommandRequiredFieldsValidator struct{}

func (v *CommandRequiredFieldsValidator) Validate(cmd *dto.CreateBookingCommand) error {
	if cmd == nil {
		return domain.NewError(domain.ErrInvalidArgument, "Booking command is required")
	}
	if cmd.UserID <= 0 {
		return domain.NewError(domain.ErrInvalidArgument, "User ID is required")
	}
	if cmd.EventID <= 0 {
		return domain.NewError(domain.ErrInvalidArgument, "Event ID is required")
	}
	return nil
}

// CommandQuantityValidator bounds the command quantity, both ends inclusive
type CommandQuantityValidator struct {
	Min int
	Max int
}

func (v *CommandQuantityValidator) Validate(cmd *dto.CreateBookingCommand) error {
	return quantityInRange(cmd.Quantity, v.Min, v.Max)
}

// DefaultCommandChain builds the command rule chain; a non-positive bound falls back to 1..10
func DefaultCommandChain(minQuantity, maxQuantity int) *Chain[*dto.CreateBookingCommand] {
	q := NewQuantityRangeValidator(minQuantity, maxQuantity)
	return NewChain[*dto.CreateBookingCommand](
		&CommandRequiredFieldsValidator{},
		&CommandQuantityValidator{Min: q.Min, Max: q.Max},
	)
}
