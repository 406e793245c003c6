package errors

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// TranslateValidatorError converts the map of errors produced by the go-playground validator into
// a single InvalidRequest error with a human readable message.
func TranslateValidatorError(err error, trans ut.Translator) error {
	switch err := err.(type) {
	case validator.ValidationErrors:
		errs := err.Translate(trans)

		vals := make([]string, 0, len(errs))
		for _, value := range errs {
			vals = append(vals, value)
		}

		return Errorf(InvalidRequest, nil, "%s", strings.Join(vals, " "))
	default:
		return Errorf(InvalidRequest, err, "invalid request")
	}
}
