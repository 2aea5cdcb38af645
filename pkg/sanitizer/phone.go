package sanitizer

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// Local numbers without a country code are tried against these regions in order.
var supportedRegions = []string{
	"ET",
	"SO",
	"KE",
	"US",
}

func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumber(parsedNumber) {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}

// PhoneDigits strips everything but digits.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
