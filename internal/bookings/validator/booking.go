package validator

import (
	"errors"
	"time"

	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/sanitizer"
	"hotelbooking/pkg/validation"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// BookingRequest is a CreateBookingRequest after normalization.
type BookingRequest struct {
	UserName string
	Phone    string
	HotelID  string
	RoomID   string
	CheckIn  time.Time
	CheckOut time.Time
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize booking validator",
			"error", err,
		)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks req and returns it normalized. now decides which stay
// dates count as past.
func (v *BookingValidator) Validate(req *model.CreateBookingRequest, now time.Time) (*BookingRequest, error) {
	if req == nil {
		return nil, validation.Field("body", "request body is required")
	}

	req.UserName = sanitizer.NormalizeName(req.UserName)
	req.HotelID = sanitizer.TrimAndNormalize(req.HotelID)
	req.RoomID = sanitizer.TrimAndNormalize(req.RoomID)

	if err := validation.Struct(v.validate, req); err != nil {
		return nil, err
	}

	var errs validation.ValidationErrors

	phone := sanitizer.NormalizePhone(req.Phone)
	if phone == "" {
		errs = append(errs, validation.ValidationError{Field: "phone", Message: "phone must be a valid phone number"})
	}

	checkIn, dateOnlyIn, err := parseDate(req.CheckIn)
	if err != nil {
		errs = append(errs, validation.ValidationError{Field: "checkIn", Message: "checkIn must be a date (YYYY-MM-DD) or an RFC3339 timestamp"})
	}
	checkOut, _, err2 := parseDate(req.CheckOut)
	if err2 != nil {
		errs = append(errs, validation.ValidationError{Field: "checkOut", Message: "checkOut must be a date (YYYY-MM-DD) or an RFC3339 timestamp"})
	}

	if err == nil && err2 == nil {
		if !checkIn.Before(checkOut) {
			errs = append(errs, validation.ValidationError{Field: "checkOut", Message: "checkOut must be after checkIn"})
		}
		// A date without a time means the whole day, so today is still bookable.
		earliest := now.UTC()
		if dateOnlyIn {
			earliest = earliest.Truncate(24 * time.Hour)
		}
		if checkIn.Before(earliest) {
			errs = append(errs, validation.ValidationError{Field: "checkIn", Message: "checkIn cannot be in the past"})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &BookingRequest{
		UserName: req.UserName,
		Phone:    phone,
		HotelID:  req.HotelID,
		RoomID:   req.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}, nil
}

var errInvalidDate = errors.New("invalid date")

func parseDate(value string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.UTC(), true, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, errInvalidDate
}
