package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"travelshop/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkStruct runs struct tags and reports failures as domain.ErrInvalid.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalid, strings.Join(fields, "; "))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalid, err)
}
