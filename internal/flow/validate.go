package flow

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"medo/internal/media"
	"medo/internal/types"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("voice", func(fl validator.FieldLevel) bool {
		return types.Voice(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("questiontype", func(fl validator.FieldLevel) bool {
		return types.QuestionType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return types.Difficulty(fl.Field().String()).Valid()
	})
	return v
}

// check runs the struct tags and turns failures into InvalidInput naming the
// offending fields.
func (s *Service) check(kind Kind, req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fail(kind, KindInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return invalid(kind, "%s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "max":
		return fmt.Sprintf("%s must be within bounds (%s=%s, got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	case "voice":
		return fmt.Sprintf("%s must be one of %v, got %q", fe.Field(), types.Voices(), fe.Value())
	case "questiontype", "difficulty":
		return fmt.Sprintf("%s has unrecognized value %q", fe.Field(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// decodeMedia decodes an optional reference, mapping failures to InvalidInput.
func decodeMedia(kind Kind, ref *media.Reference, accept ...media.Class) (*media.Blob, error) {
	if ref == nil || strings.TrimSpace(ref.URL) == "" {
		return nil, nil
	}
	blob, err := ref.Decode(accept...)
	if err != nil {
		return nil, fail(kind, KindInvalidInput, fmt.Errorf("file: %w", err))
	}
	return &blob, nil
}
