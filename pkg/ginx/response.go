package ginx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"oip/autopurchase/pkg/errorutil"
)

// Response is the envelope of every HTTP reply
type Response struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data,omitempty"`
}

// Meta carries the status of a reply
type Meta struct {
	Code      int           `json:"code"`
	Message   string        `json:"message"`
	ErrorCode string        `json:"error_code,omitempty"`
	Details   []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail describes one invalid field
type ErrorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

// Success replies 200 with data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Meta: Meta{
			Code:    http.StatusOK,
			Message: "OK",
		},
		Data: data,
	})
}

// Error replies httpCode with message
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, Response{
		Meta: Meta{
			Code:    httpCode,
			Message: message,
		},
	})
}

// ErrorWithData replies httpCode and still returns data, e.g. a failed purchase result.
func ErrorWithData(c *gin.Context, httpCode int, errorCode, message string, data interface{}) {
	c.JSON(httpCode, Response{
		Meta: Meta{
			Code:      httpCode,
			Message:   message,
			ErrorCode: errorCode,
		},
		Data: data,
	})
}

// ErrorWithDetails replies httpCode with per-field details
func ErrorWithDetails(c *gin.Context, httpCode int, message string, details []ErrorDetail) {
	c.JSON(httpCode, Response{
		Meta: Meta{
			Code:    httpCode,
			Message: message,
			Details: details,
		},
	})
}

// FromError maps an errorutil.Error to a reply. Unknown errors are 500.
func FromError(c *gin.Context, err error) {
	var e *errorutil.Error
	if !errors.As(err, &e) {
		InternalError(c, err.Error())
		return
	}

	code := http.StatusInternalServerError
	switch e.Code {
	case errorutil.CodeInvalidRequest, errorutil.CodeInvalidAddress:
		code = http.StatusBadRequest
	case errorutil.CodeOrderNotFound:
		code = http.StatusNotFound
	case errorutil.CodeNoProviderAvailable, errorutil.CodeInsufficientInventory:
		code = http.StatusUnprocessableEntity
	case errorutil.CodeTemporaryUnavailable, errorutil.CodeRateLimitExceeded:
		code = http.StatusServiceUnavailable
	}
	ErrorWithData(c, code, e.Code, e.Message, nil)
}

// BadRequest replies 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// BadRequestWithValidation replies 400 with the failing fields when err comes from the validator.
func BadRequestWithValidation(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]ErrorDetail, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, ErrorDetail{
				Path: fieldErr.Field(),
				Info: getValidationErrorMessage(fieldErr),
			})
		}
		ErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details)
		return
	}

	BadRequest(c, err.Error())
}

// NotFound replies 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError replies 500
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

func getValidationErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "len":
		return fieldErr.Field() + " must have length " + fieldErr.Param()
	case "min":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "max":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	default:
		return fieldErr.Field() + " is invalid"
	}
}
