package validator

import (
	"strings"

	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/sanitizer"
	"hotelbooking/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type PaymentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPaymentValidator(log *logger.Logger) *PaymentValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize payment validator",
			"error", err,
		)
	}

	return &PaymentValidator{
		validate: v,
		logger:   log,
	}
}

func (v *PaymentValidator) ValidateInitiate(req *model.InitiatePaymentRequest) error {
	if req == nil {
		return validation.Field("body", "request body is required")
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))

	return validation.Struct(v.validate, req)
}

// ValidateCallback normalizes the reported status to lower case. Anything
// but "success" is later treated as a failure.
func (v *PaymentValidator) ValidateCallback(req *model.PaymentCallbackRequest) error {
	if req == nil {
		return validation.Field("body", "request body is required")
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.ProviderReference = strings.TrimSpace(req.ProviderReference)
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	req.ErrorMessage = sanitizer.TrimAndNormalize(req.ErrorMessage)

	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}

	var errs validation.ValidationErrors
	if req.ProviderReference == "" && req.BookingID == "" {
		errs = append(errs, validation.ValidationError{
			Field:   "provider_reference",
			Message: "provider_reference or bookingId is required",
		})
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		errs = append(errs, validation.ValidationError{Field: "amount", Message: "amount cannot be negative"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *PaymentValidator) ValidateUpdate(update *model.PaymentUpdate) error {
	if update == nil {
		return validation.Field("body", "request body is required")
	}
	update.Status = strings.ToLower(strings.TrimSpace(update.Status))
	update.Provider = strings.ToLower(strings.TrimSpace(update.Provider))

	if update.Status == "" && update.Provider == "" && update.TransactionID == nil && update.ErrorMessage == nil {
		return validation.Field("body", "at least one field must be provided")
	}

	return validation.Struct(v.validate, update)
}
