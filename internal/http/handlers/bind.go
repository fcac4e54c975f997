package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/geocoder89/socialfeed/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON decodes and validates the body into out. On failure it writes
// the 400 and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, "Invalid request body", bindDetails(err, out))
		return false
	}
	return true
}

// bindDetails turns a decode or validation failure into the error details.
// Field names are reported as the client sent them (json tags), not as Go
// field names. Request bodies are flat, so only top-level fields are mapped.
func bindDetails(err error, out interface{}) gin.H {
	var (
		verrs    validator.ValidationErrors
		tooLarge *http.MaxBytesError
		syntax   *json.SyntaxError
		typeErr  *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &verrs):
		names := jsonNames(out)
		fields := make([]validation.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, validation.FieldError{
				Field:   names.lookup(fe.StructField()),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validation.Message(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}

	case errors.Is(err, io.EOF):
		return gin.H{"json": "empty_body"}

	case errors.As(err, &tooLarge):
		return gin.H{"json": "body_too_large", "limit": tooLarge.Limit}

	case errors.As(err, &syntax), errors.Is(err, io.ErrUnexpectedEOF):
		return gin.H{"json": "invalid_json_syntax"}

	case errors.As(err, &typeErr):
		// encoding/json already reports the path in json key names
		field := strings.TrimSpace(typeErr.Field)
		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []validation.FieldError{{
				Field:   field,
				Rule:    "type",
				Message: "must be of type " + typeErr.Type.String(),
			}},
		}
	}

	return gin.H{"reason": err.Error()}
}

// fieldNames maps Go struct field names to their json names.
type fieldNames map[string]string

func (n fieldNames) lookup(goName string) string {
	if name, ok := n[goName]; ok {
		return name
	}
	return goName
}

func jsonNames(v interface{}) fieldNames {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	names := make(fieldNames, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			name = sf.Name
		}
		names[sf.Name] = name
	}
	return names
}
