package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/event-inventory/internal/domain"
	"github.com/prohmpiriya/event-inventory/internal/dto"
	"github.com/prohmpiriya/event-inventory/pkg/response"
)

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, dto.ErrorCodeNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrSoldOut):
		response.Error(c, http.StatusConflict, dto.ErrorCodeSoldOut, err.Error(), "")
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInvalidState):
		response.Error(c, http.StatusConflict, dto.ErrorCodeCapacityExceeded, err.Error(), "")
	case errors.Is(err, domain.ErrRuleViolation):
		response.Error(c, http.StatusUnprocessableEntity, dto.ErrorCodeRuleViolation, err.Error(), "")
	case errors.Is(err, domain.ErrPersistenceFailure),
		errors.Is(err, domain.ErrConcurrentModification):
		response.Error(c, http.StatusInternalServerError, dto.ErrorCodePersistenceFailure, "failed to store changes", err.Error())
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidOperation):
		response.Error(c, http.StatusBadRequest, dto.ErrorCodeValidation, err.Error(), "")
	default:
		response.InternalError(c, err)
	}
}
