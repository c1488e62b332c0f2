package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"greendrake/blast/internal/models"
	"greendrake/blast/internal/services"
)

const msgInvalidRequest = "Invalid request"

func init() {
	// Report fields by their JSON names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(JSONFieldName)
	}
}

// JSONFieldName names a struct field after its json tag.
func JSONFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// bindJSON decodes the body into obj. On failure it returns the field errors
// to report.
func bindJSON(c *gin.Context, obj any) ([]models.FieldError, bool) {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil, true
	}
	return FieldErrors(err), false
}

// FieldErrors converts a binding error into per-field messages.
func FieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]models.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, models.FieldError{Field: fieldPath(fe.Namespace()), Message: fieldMessage(fe)})
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []models.FieldError{{Field: typeErr.Field, Message: fmt.Sprintf("must be a %s", typeErr.Type)}}
	}
	if errors.Is(err, io.EOF) {
		return []models.FieldError{{Field: "body", Message: "request body is empty"}}
	}
	return []models.FieldError{{Field: "body", Message: "malformed JSON: " + err.Error()}}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "len":
		return fmt.Sprintf("must be %s characters long", fe.Param())
	case "numeric":
		return "must contain only digits"
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}

func respondInvalid(c *gin.Context, message string, fields []models.FieldError) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: message, Errors: fields})
}

// respondError maps a service error to its status code.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	switch {
	case errors.As(err, &svcErr) && errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Success: false, Message: svcErr.Message})
	case errors.As(err, &svcErr) && errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: svcErr.Message})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Success: false, Message: "Internal server error"})
	}
}
