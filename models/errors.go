package models

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/shop_console/utils"
)

// ValidationError is a local rejection raised before any request reaches the backend.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// validateInput runs struct tags and converts failures into a ValidationError.
func validateInput(input any) error {
	err := utils.ValidateStruct(input)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &ValidationError{Message: "invalid input", Fields: utils.ProcessValidationErrors(err)}
	}
	return err
}
