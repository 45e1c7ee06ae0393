package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// invalidMessage heads every 422 response.
const invalidMessage = "The given data was invalid."

var registerOnce sync.Once

// registerValidatorTags makes validation errors report json field names.
func registerValidatorTags() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// respondOK writes a 200 success envelope.
func respondOK(c *gin.Context, body gin.H) {
	respondStatus(c, http.StatusOK, body)
}

func respondStatus(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// respondInternal logs err and writes a generic 500 with message.
func respondInternal(c *gin.Context, message string, err error) {
	slog.Error(message, "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
	respondError(c, http.StatusInternalServerError, message)
}

// respondFieldError writes a 422 for a single field.
func respondFieldError(c *gin.Context, field, message string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"success": false,
		"message": invalidMessage,
		"errors":  gin.H{field: []string{message}},
	})
}

// respondInvalid converts a binding error into a 422 keyed by field.
func respondInvalid(c *gin.Context, err error) {
	fields := map[string][]string{}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
		}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		fields[typeErr.Field] = []string{fmt.Sprintf("The %s field has an invalid type.", humanize(typeErr.Field))}
	default:
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": "The request body is not valid JSON.",
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"success": false,
		"message": invalidMessage,
		"errors":  fields,
	})
}

func fieldMessage(fe validator.FieldError) string {
	name := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "url":
		return fmt.Sprintf("The %s field must be a valid URL.", name)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
