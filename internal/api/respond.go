package api

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/middleware"
)

// Envelope is the shape of every API response
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorBody describes a failed request. DebugID is logged alongside the
// underlying error.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	DebugID string `json:"debug_id,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data, Timestamp: time.Now().UTC()})
}

// respondError renders err through the envelope with the status its code
// maps to. Server errors are logged at error, client errors at warn.
func respondError(c *gin.Context, log logger.Logger, err error) {
	debugID := uuid.NewString()
	status := apperrors.HTTPStatus(err)

	fields := []interface{}{
		"debug_id", debugID,
		"code", apperrors.CodeOf(err),
		"path", c.Request.URL.Path,
		"request_id", c.GetString(middleware.RequestIDKey),
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		log.Error("Request failed", err, fields...)
	} else {
		log.Warn("Request rejected", append(fields, "error", err.Error())...)
	}

	c.AbortWithStatusJSON(status, Envelope{
		Error: &ErrorBody{
			Code:    apperrors.CodeOf(err),
			Message: apperrors.PublicMessage(err),
			DebugID: debugID,
		},
		Timestamp: time.Now().UTC(),
	})
}

// bindError turns a binding failure into an invalid input error that names
// the offending fields
func bindError(err error) error {
	var fields []string
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
		}
		return apperrors.ValidationError("invalid request", err).WithDetails(strings.Join(fields, ", "))
	}
	return apperrors.InvalidInput("invalid request body", err)
}

// RegisterValidators adds the custom binding rules used by request types
// and reports validation errors under their JSON names
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
