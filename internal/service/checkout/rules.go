package checkout

import "regexp"

var (
	emailPattern   = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)
	namePattern    = regexp.MustCompile(`^[a-zA-Z]+$`)
	addressPattern = regexp.MustCompile(`^[a-zA-Z0-9\s,'-]*$`)
)

const minAddressLength = 6

// ValidEmail accepts local@domain.tld with a 2 to 4 character tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidName accepts ASCII letters only. It is used for first name, last name
// and city.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// ValidAddress accepts letters, digits, whitespace, comma, apostrophe and
// hyphen, and requires more than five characters.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s) && len(s) >= minAddressLength
}
