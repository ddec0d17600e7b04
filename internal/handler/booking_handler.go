package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/event-inventory/internal/domain"
	"github.com/prohmpiriya/event-inventory/internal/dto"
	"github.com/prohmpiriya/event-inventory/internal/repository"
	"github.com/prohmpiriya/event-inventory/pkg/middleware"
	"github.com/prohmpiriya/event-inventory/pkg/response"
	"github.com/prohmpiriya/event-inventory/pkg/telemetry"
)

// BookingCreator runs the booking workflow for one command
type BookingCreator interface {
	CreateBooking(ctx context.Context, cmd *dto.CreateBookingCommand) *dto.BookingResult
}

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	creator  BookingCreator
	bookings repository.BookingRepository
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(creator BookingCreator, bookings repository.BookingRepository) *BookingHandler {
	return &BookingHandler{
		creator:  creator,
		bookings: bookings,
	}
}

// CreateBooking handles POST /bookings
// The workflow result is returned as data on success and failure alike
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, dto.ErrorCodeValidation, "invalid request", err.Error())
		return
	}

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("event_id", req.EventID),
		attribute.Int("quantity", req.Quantity),
	)

	result := h.creator.CreateBooking(ctx, req.ToCommand(userID))
	if !result.Success {
		span.SetAttributes(attribute.String("error_code", result.ErrorCode))
		span.SetStatus(codes.Error, result.Message)
		response.ErrorWithData(c, statusForCode(result.ErrorCode), result.ErrorCode, result.Message, result)
		return
	}

	span.SetAttributes(attribute.String("booking_id", result.BookingID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// GetBooking handles GET /bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "unauthorized")
		return
	}

	bookingID := c.Param("id")
	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := h.bookings.GetByID(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	// other users' bookings are reported as missing
	if booking.UserID != userID {
		span.SetStatus(codes.Error, "forbidden")
		handleError(c, domain.NotFound("Booking", bookingID))
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromDomain(booking))
}

func statusForCode(code string) int {
	switch code {
	case dto.ErrorCodeValidation:
		return http.StatusBadRequest
	case dto.ErrorCodeNotFound:
		return http.StatusNotFound
	case dto.ErrorCodeCapacityExceeded, dto.ErrorCodeSoldOut:
		return http.StatusConflict
	case dto.ErrorCodeRuleViolation:
		return http.StatusUnprocessableEntity
	case dto.ErrorCodePaymentDeclined:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
