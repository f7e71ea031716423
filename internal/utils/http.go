package utils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/constants"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// SuccessResponse sends a success response with data
func SuccessResponse(c echo.Context, statusCode int, message string, data interface{}) error {
	return c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseHandler sends an error response
func ErrorResponseHandler(c echo.Context, statusCode int, errorMessage string) error {
	return c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error:   errorMessage,
		Code:    statusCode,
	})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c echo.Context, errorMessage string) error {
	return ErrorResponseHandler(c, http.StatusBadRequest, errorMessage)
}

// UnauthorizedResponse sends a 401 Unauthorized response
func UnauthorizedResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Unauthorized"
	}
	return ErrorResponseHandler(c, http.StatusUnauthorized, errorMessage)
}

// DomainErrorResponse maps a dispatch error to its HTTP status and machine-readable reason
func DomainErrorResponse(c echo.Context, err error) error {
	status, reason := ErrorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	return c.JSON(status, ErrorResponse{
		Success: false,
		Error:   msg,
		Code:    status,
		Reason:  reason,
	})
}

// ErrorStatus maps domain sentinel errors to an HTTP status and a websocket error code
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, constants.ErrorRideNotFound
	case errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest, constants.ErrorValidationFailed
	case errors.Is(err, models.ErrAlreadyAccepted):
		return http.StatusConflict, constants.ErrorAlreadyAccepted
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict, constants.ErrorInvalidTransition
	case errors.Is(err, models.ErrNotAssignedDriver):
		return http.StatusForbidden, constants.ErrorNotAssignedDriver
	case errors.Is(err, models.ErrNotParticipant):
		return http.StatusForbidden, constants.ErrorForbidden
	case errors.Is(err, models.ErrInvalidCode):
		return http.StatusUnprocessableEntity, constants.ErrorInvalidCode
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, constants.ErrorUpstreamUnavailable
	}
	return http.StatusInternalServerError, constants.ErrorInternalError
}
