package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/event-inventory/internal/dto"
	"github.com/prohmpiriya/event-inventory/internal/repository"
	"github.com/prohmpiriya/event-inventory/internal/service"
	"github.com/prohmpiriya/event-inventory/pkg/response"
	"github.com/prohmpiriya/event-inventory/pkg/telemetry"
)

// EventHandler handles venue scheduling and event availability requests
type EventHandler struct {
	scheduling service.SchedulingService
	events     repository.EventRepository
}

// NewEventHandler creates a new event handler
func NewEventHandler(scheduling service.SchedulingService, events repository.EventRepository) *EventHandler {
	return &EventHandler{
		scheduling: scheduling,
		events:     events,
	}
}

// ScheduleEvent handles POST /venues/:id/events
func (h *EventHandler) ScheduleEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.schedule")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	venueID, ok := parseID(c, "id")
	if !ok {
		span.SetStatus(codes.Error, "invalid venue id")
		return
	}

	var req dto.ScheduleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, dto.ErrorCodeValidation, "invalid request", err.Error())
		return
	}

	span.SetAttributes(
		attribute.Int64("venue_id", venueID),
		attribute.String("event_kind", req.Kind),
	)

	event, err := req.ToDomain(venueID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	event, err = h.scheduling.ScheduleEvent(ctx, venueID, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("event_id", event.Info().ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, dto.EventFromDomain(event))
}

// GetAvailability handles GET /events/:id/availability
func (h *EventHandler) GetAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.availability")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID, ok := parseID(c, "id")
	if !ok {
		span.SetStatus(codes.Error, "invalid event id")
		return
	}
	span.SetAttributes(attribute.Int64("event_id", eventID))

	event, err := h.events.GetByID(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.AvailabilityFromDomain(event))
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+param)
		return 0, false
	}
	return id, true
}
