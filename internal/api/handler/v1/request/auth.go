package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/darkorder/ticketing-api/internal/domain"
)

var errInvalidPIN = errors.New("the PIN must be 4 to 6 digits and not a single repeated digit")

func pinRule(value interface{}) error {
	pin, _ := value.(string)
	if !domain.ValidPIN(pin) {
		return errInvalidPIN
	}

	return nil
}

type SignupRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

func (req *SignupRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.PIN, validation.Required, validation.By(pinRule)),
	)
}

// SigninRequest is also used for staff login. The PIN rule is not applied:
// the stored hash decides.
type SigninRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

func (req *SigninRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.PIN, validation.Required),
	)
}

type ForgotPINRequest struct {
	Email string `json:"email"`
}

func (req *ForgotPINRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}
