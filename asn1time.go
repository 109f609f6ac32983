package dcpkdm

import (
	"regexp"
	"strconv"
)

// asn1UTCTimePattern matches YYMMDDhhmmss with an optional trailing Z.
// ASN.1 UTCTime as carried by X.509 certificates (RFC 5280 §4.1.2.5.1).
var asn1UTCTimePattern = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})Z?$`)

// asn1GeneralizedTimePattern matches YYYYMMDDhhmmss with an optional trailing Z.
var asn1GeneralizedTimePattern = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})Z?$`)

// parseASN1Time parses either ASN.1 UTCTime or GeneralizedTime into a
// LocalTime in UTC. A pure function validated against an explicit pattern:
// every field is range-checked, and UTCTime's two-digit year is normalised
// per RFC 5280 (00-69 maps to 2000-2069, 70-99 to 1970-1999).
func parseASN1Time(s string) (LocalTime, error) {
	if m := asn1UTCTimePattern.FindStringSubmatch(s); m != nil {
		year := atoiMust(m[1])
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
		return newUTCLocalTime(year, atoiMust(m[2]), atoiMust(m[3]), atoiMust(m[4]), atoiMust(m[5]), atoiMust(m[6]))
	}

	if m := asn1GeneralizedTimePattern.FindStringSubmatch(s); m != nil {
		year := atoiMust(m[1])
		return newUTCLocalTime(year, atoiMust(m[2]), atoiMust(m[3]), atoiMust(m[4]), atoiMust(m[5]), atoiMust(m[6]))
	}

	return LocalTime{}, &TimeFormatError{Value: s}
}

// atoiMust converts a regexp-matched all-digit group; it cannot fail because
// the enclosing pattern already constrained it to \d+.
func atoiMust(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
