package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/event-inventory/internal/domain"
	"github.com/prohmpiriya/event-inventory/internal/dto"
	"github.com/prohmpiriya/event-inventory/internal/gateway"
	"github.com/prohmpiriya/event-inventory/internal/repository"
	"github.com/prohmpiriya/event-inventory/internal/validator"
	"github.com/prohmpiriya/event-inventory/pkg/logger"
	"github.com/prohmpiriya/event-inventory/pkg/saga"
	"github.com/prohmpiriya/event-inventory/pkg/telemetry"
)

// Booking saga step names
const (
	BookingSagaName = "create-booking"

	StepValidateCommand = "validate-command"
	StepLoadEntities    = "load-entities"
	StepValidateDomain  = "validate-domain"
	StepReserveCapacity = "reserve-capacity"
	StepProcessPayment  = "process-payment"
	StepPersistBooking  = "persist-booking"
)

const defaultPaymentMethod = "credit_card"

// BookingFlow is the state carried through one booking attempt
type BookingFlow struct {
	Command *dto.CreateBookingCommand
	State   dto.BookingState

	User    *domain.User
	Event   domain.Event
	Venue   *domain.Venue
	Request *domain.ReservationRequest
	Booking *domain.Booking
	Charge  *gateway.ChargeResponse

	unlock func()
}

// BookingOrchestrator runs the booking workflow as a saga:
// reserved capacity is rolled back when payment fails, and nothing is undone once payment succeeded.
type BookingOrchestrator struct {
	runner       *saga.Runner[BookingFlow]
	commandRules *validator.Chain[*dto.CreateBookingCommand]
	users        repository.UserRepository
	events       repository.EventRepository
	venues       repository.VenueRepository
	sink         repository.BookingSink
	bookings     BookingService
	payments     gateway.PaymentGateway
	publisher    EventPublisher
	locker       *EventLocker
	log          *logger.Logger
	currency     string
}

// OrchestratorConfig contains the collaborators of the orchestrator
type OrchestratorConfig struct {
	Users          repository.UserRepository
	Events         repository.EventRepository
	Venues         repository.VenueRepository
	Sink           repository.BookingSink
	BookingService BookingService
	Gateway        gateway.PaymentGateway

	// Optional
	Publisher    EventPublisher
	CommandRules *validator.Chain[*dto.CreateBookingCommand]
	Locker       *EventLocker
	SagaStore    saga.Store
	Logger       *logger.Logger
	Currency     string
	StepTimeout  time.Duration
}

// NewBookingOrchestrator creates a new booking orchestrator
func NewBookingOrchestrator(cfg *OrchestratorConfig) (*BookingOrchestrator, error) {
	if cfg == nil {
		return nil, errors.New("orchestrator config is required")
	}
	if cfg.Users == nil || cfg.Events == nil || cfg.Venues == nil || cfg.Sink == nil {
		return nil, errors.New("user, event and venue repositories and a booking sink are required")
	}
	if cfg.BookingService == nil || cfg.Gateway == nil {
		return nil, errors.New("booking service and payment gateway are required")
	}

	o := &BookingOrchestrator{
		commandRules: cfg.CommandRules,
		users:        cfg.Users,
		events:       cfg.Events,
		venues:       cfg.Venues,
		sink:         cfg.Sink,
		bookings:     cfg.BookingService,
		payments:     cfg.Gateway,
		publisher:    cfg.Publisher,
		locker:       cfg.Locker,
		log:          cfg.Logger,
		currency:     cfg.Currency,
	}
	if o.commandRules == nil {
		o.commandRules = validator.DefaultCommandChain(0, 0)
	}
	if o.publisher == nil {
		o.publisher = NewNoOpEventPublisher()
	}
	if o.locker == nil {
		o.locker = NewEventLocker()
	}
	if o.log == nil {
		o.log = logger.NewNop()
	}
	if o.currency == "" {
		o.currency = "THB"
	}

	runner, err := saga.NewRunner(o.definition(cfg.StepTimeout), &saga.RunnerConfig{
		Store:  cfg.SagaStore,
		Logger: o.log.Named("saga").Sugar(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build booking saga: %w", err)
	}
	o.runner = runner
	return o, nil
}

func (o *BookingOrchestrator) definition(stepTimeout time.Duration) *saga.Definition[BookingFlow] {
	return saga.NewDefinition[BookingFlow](BookingSagaName, "Reserve capacity, charge payment and persist a booking").
		AddStep(&saga.Step[BookingFlow]{
			Name:    StepValidateCommand,
			Execute: o.validateCommand,
		}).
		AddStep(&saga.Step[BookingFlow]{
			Name:    StepLoadEntities,
			Execute: o.loadEntities,
			Timeout: stepTimeout,
		}).
		AddStep(&saga.Step[BookingFlow]{
			Name:    StepValidateDomain,
			Execute: o.validateDomain,
		}).
		AddStep(&saga.Step[BookingFlow]{
			Name:       StepReserveCapacity,
			Execute:    o.reserveCapacity,
			Compensate: o.releaseCapacity,
		}).
		AddStep(&saga.Step[BookingFlow]{
			Name:    StepProcessPayment,
			Execute: o.processPayment,
			Timeout: stepTimeout,
			Pivot:   true,
		}).
		AddStep(&saga.Step[BookingFlow]{
			Name:    StepPersistBooking,
			Execute: o.persistBooking,
			Timeout: stepTimeout,
		})
}

// Runner exposes the saga runner, e.g. to inspect stored instances
func (o *BookingOrchestrator) Runner() *saga.Runner[BookingFlow] {
	return o.runner
}

// CreateBooking runs one booking attempt. It never returns an error: every outcome is a BookingResult.
func (o *BookingOrchestrator) CreateBooking(ctx context.Context, cmd *dto.CreateBookingCommand) *dto.BookingResult {
	ctx, span := telemetry.StartSpan(ctx, "service.booking_orchestrator.create_booking")
	defer span.End()

	flow := &BookingFlow{Command: cmd, State: dto.BookingStateValidating}
	labels := map[string]string{}
	if cmd != nil {
		labels["user_id"] = strconv.FormatInt(cmd.UserID, 10)
		labels["event_id"] = strconv.FormatInt(cmd.EventID, 10)
		span.SetAttributes(
			attribute.Int64("user_id", cmd.UserID),
			attribute.Int64("event_id", cmd.EventID),
			attribute.Int("quantity", cmd.Quantity),
		)
	}

	instance, err := o.runner.Run(ctx, flow, labels)
	if flow.unlock != nil {
		flow.unlock()
	}

	var result *dto.BookingResult
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		result = o.failure(ctx, flow, err)
	} else {
		span.SetStatus(codes.Ok, "")
		result = o.success(ctx, flow)
	}

	if instance != nil {
		result.SagaID = instance.ID
		if flow.Booking != nil {
			instance.SetLabel("booking_id", flow.Booking.ID)
			if err := o.runner.Store().Update(ctx, instance); err != nil {
				o.log.WarnContext(ctx, "Failed to label saga instance", zap.String("saga_id", instance.ID), zap.Error(err))
			}
		}
	}
	return result
}

func (o *BookingOrchestrator) validateCommand(ctx context.Context, flow *BookingFlow) error {
	flow.State = dto.BookingStateValidating
	return o.commandRules.Validate(flow.Command)
}

func (o *BookingOrchestrator) loadEntities(ctx context.Context, flow *BookingFlow) error {
	cmd := flow.Command

	// held until the attempt has either persisted or rolled back
	if flow.unlock == nil {
		flow.unlock = o.locker.Lock(cmd.EventID)
	}

	user, err := o.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	event, err := o.events.GetByID(ctx, cmd.EventID)
	if err != nil {
		return err
	}
	venue, err := o.venues.GetByID(ctx, event.Info().VenueID)
	if err != nil {
		return err
	}

	flow.User = user
	flow.Event = event
	flow.Venue = venue
	flow.Request = cmd.ToReservationRequest()
	flow.State = dto.BookingStateEntitiesLoaded
	return nil
}

func (o *BookingOrchestrator) validateDomain(ctx context.Context, flow *BookingFlow) error {
	if err := o.bookings.ValidateBooking(flow.User, flow.Event, flow.Request); err != nil {
		return err
	}
	flow.State = dto.BookingStateDomainValidated
	return nil
}

func (o *BookingOrchestrator) reserveCapacity(ctx context.Context, flow *BookingFlow) error {
	booking, err := o.bookings.CreateBooking(flow.User, flow.Event, flow.Request)
	if err != nil {
		return err
	}
	flow.Booking = booking
	flow.State = dto.BookingStateReserved
	return nil
}

func (o *BookingOrchestrator) releaseCapacity(ctx context.Context, flow *BookingFlow) error {
	if flow.Booking == nil {
		return nil
	}
	if err := domain.CompensateReservation(flow.Event, flow.Booking); err != nil {
		return err
	}
	if flow.Booking.PaymentStatus == domain.PaymentStatusPending {
		return flow.Booking.MarkFailed()
	}
	return nil
}

func (o *BookingOrchestrator) processPayment(ctx context.Context, flow *BookingFlow) error {
	flow.State = dto.BookingStatePaymentPending
	booking := flow.Booking

	// nothing to charge; the gateway rejects non-positive amounts
	if booking.TotalAmount <= 0 {
		flow.State = dto.BookingStatePaid
		return booking.MarkPaid("")
	}

	method := flow.Command.PaymentMethod
	if method == "" {
		method = defaultPaymentMethod
	}
	charge, err := o.payments.Charge(ctx, &gateway.ChargeRequest{
		UserID:      flow.User.ID,
		Amount:      booking.TotalAmount,
		Currency:    o.currency,
		Description: fmt.Sprintf("Booking %s: %d ticket(s) for %s", booking.ID, booking.TicketQuantity(), flow.Event.Info().Name),
		Method:      method,
		Metadata: map[string]string{
			"booking_id": booking.ID,
			"event_id":   strconv.FormatInt(booking.EventID, 10),
		},
	})
	if err != nil {
		flow.State = dto.BookingStatePaymentFailed
		return domain.WrapError(domain.ErrPaymentDeclined, fmt.Errorf("payment gateway error: %w", err))
	}
	flow.Charge = charge
	if !charge.Success {
		flow.State = dto.BookingStatePaymentFailed
		return domain.NewError(domain.ErrPaymentDeclined, "Payment failed: %s", charge.ErrorMessage)
	}

	if err := booking.MarkPaid(charge.TransactionID); err != nil {
		return err
	}
	flow.State = dto.BookingStatePaid
	return nil
}

func (o *BookingOrchestrator) persistBooking(ctx context.Context, flow *BookingFlow) error {
	if err := o.sink.SaveBooking(ctx, flow.Booking, flow.Event); err != nil {
		flow.State = dto.BookingStatePersistFailed
		return domain.WrapError(domain.ErrPersistenceFailure, err)
	}
	flow.State = dto.BookingStatePersisted
	return nil
}

func (o *BookingOrchestrator) success(ctx context.Context, flow *BookingFlow) *dto.BookingResult {
	booking := flow.Booking
	if err := o.publisher.PublishBookingConfirmed(ctx, booking); err != nil {
		o.log.WarnContext(ctx, "Failed to publish booking confirmed event",
			zap.String("booking_id", booking.ID), zap.Error(err))
	}

	o.log.InfoContext(ctx, "Booking created",
		zap.String("booking_id", booking.ID),
		zap.Int64("user_id", booking.UserID),
		zap.Int64("event_id", booking.EventID),
		zap.Float64("total_amount", booking.TotalAmount),
	)

	return &dto.BookingResult{
		Success:       true,
		State:         flow.State,
		BookingID:     booking.ID,
		TotalAmount:   booking.TotalAmount,
		TransactionID: booking.TransactionID,
		Message:       "Booking created successfully",
	}
}

func (o *BookingOrchestrator) failure(ctx context.Context, flow *BookingFlow, err error) *dto.BookingResult {
	cause := err
	stepName := ""
	if stepErr, ok := saga.AsStepError(err); ok {
		cause = stepErr.Err
		stepName = stepErr.Step
		// rollback failures are logged only; the step failure is what the caller sees
		for _, compErr := range stepErr.CompensationErrors {
			o.log.ErrorContext(ctx, "Failed to roll back reservation",
				zap.String("step", stepErr.Step), zap.Error(compErr))
		}
	}

	result := &dto.BookingResult{
		Success:   false,
		State:     flow.State,
		ErrorCode: errorCode(cause),
		Message:   cause.Error(),
	}
	if flow.Booking != nil {
		result.BookingID = flow.Booking.ID
		result.TotalAmount = flow.Booking.TotalAmount
	}

	switch stepName {
	case StepProcessPayment:
		result.State = dto.BookingStatePaymentFailed
		if pubErr := o.publisher.PublishPaymentFailed(ctx, flow.Booking, cause.Error()); pubErr != nil {
			o.log.WarnContext(ctx, "Failed to publish payment failed event", zap.Error(pubErr))
		}
	case StepPersistBooking:
		txID := flow.Booking.TransactionID
		result.State = dto.BookingStatePersistFailed
		result.TransactionID = txID
		result.Message = fmt.Sprintf(
			"Payment succeeded but the booking could not be saved. Please contact support with transaction ID %s", txID)
		o.log.ErrorContext(ctx, "Booking paid but not persisted",
			zap.String("booking_id", flow.Booking.ID),
			zap.String("transaction_id", txID),
			zap.Error(cause),
		)
	default:
		o.log.InfoContext(ctx, "Booking rejected",
			zap.String("step", stepName),
			zap.String("error_code", result.ErrorCode),
			zap.String("reason", cause.Error()),
		)
	}
	return result
}

// errorCode maps a failure to the code reported to callers
func errorCode(err error) string {
	var domainErr *domain.Error
	switch {
	case errors.Is(err, domain.ErrPersistenceFailure), errors.Is(err, domain.ErrConcurrentModification):
		return dto.ErrorCodePersistenceFailure
	case errors.Is(err, domain.ErrPaymentDeclined):
		return dto.ErrorCodePaymentDeclined
	case errors.Is(err, domain.ErrNotFound):
		return dto.ErrorCodeNotFound
	case errors.Is(err, domain.ErrSoldOut):
		return dto.ErrorCodeSoldOut
	case errors.Is(err, domain.ErrCapacityExceeded), errors.Is(err, domain.ErrInvalidState):
		return dto.ErrorCodeCapacityExceeded
	case errors.Is(err, domain.ErrRuleViolation):
		return dto.ErrorCodeRuleViolation
	case errors.As(err, &domainErr):
		return dto.ErrorCodeValidation
	}
	return dto.ErrorCodeInternal
}
