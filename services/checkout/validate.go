package checkout

import (
	"regexp"
	"strings"
	"time"

	"villamar/models"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateStartRequest(req StartCheckoutRequest) error {
	if req.UnitID == "" {
		return NewError(CodeValidation, "unit is required")
	}
	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		return NewError(CodeValidation, "check-in date must be YYYY-MM-DD")
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil {
		return NewError(CodeValidation, "check-out date must be YYYY-MM-DD")
	}
	if !checkOut.After(checkIn) {
		return NewError(CodeValidation, "check-out must be after check-in")
	}
	if req.Guests < 1 {
		return NewError(CodeValidation, "at least one guest is required")
	}
	return nil
}

func validateGuestDetails(details models.GuestDetails) error {
	if strings.TrimSpace(details.FirstName) == "" {
		return NewError(CodeValidation, "first name is required")
	}
	if strings.TrimSpace(details.LastName) == "" {
		return NewError(CodeValidation, "last name is required")
	}
	if !emailPattern.MatchString(details.Email) {
		return NewError(CodeValidation, "a valid email address is required")
	}
	if strings.TrimSpace(details.Phone) == "" {
		return NewError(CodeValidation, "phone number is required")
	}
	if strings.TrimSpace(details.Country) == "" {
		return NewError(CodeValidation, "country is required")
	}
	return nil
}

func validRail(rail string) bool {
	switch rail {
	case models.RailCard, models.RailSepa, models.RailCash:
		return true
	}
	return false
}
