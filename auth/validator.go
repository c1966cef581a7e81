package auth

import (
	"chat-client/domain"
	"chat-client/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username    string `validate:"required,min=3,max=32,alphanum"`
	DisplayName string `validate:"required,max=64"`
	Password    string `validate:"required,min=8,max=72"`
}

// ValidateRegister checks a registration form before it is sent to the
// backend, so the user gets field-level feedback without a round trip.
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return asValidationError(err)
	}
	return nil
}

type NewConversationRequest struct {
	Participants []domain.UserID `validate:"required,min=2,unique,dive,required"`
}

// ValidateNewConversation rejects malformed participant lists locally; the
// backend still owns duplicate-pair and unknown-user checks.
func ValidateNewConversation(req NewConversationRequest) error {
	if err := validate.Struct(req); err != nil {
		return asValidationError(err)
	}
	return nil
}

func asValidationError(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return err
	}
	first := fieldErrs[0]
	return &errors.ValidationError{
		Field:  first.Field(),
		Reason: first.Tag(),
	}
}
