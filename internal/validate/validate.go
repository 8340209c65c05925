// Package validate holds the pure field validators used by the onboarding
// flow: Brazilian CPF check digits and past-date checks.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrCPFLength is returned when the stripped CPF is not 11 digits.
	ErrCPFLength = errors.New("cpf must have 11 digits")
	// ErrCPFRepeated is returned for sequences like 000.000.000-00, which
	// satisfy the check-digit arithmetic but are not valid documents.
	ErrCPFRepeated = errors.New("cpf digits are all identical")
	// ErrCPFCheckDigit is returned when a verification digit does not match.
	ErrCPFCheckDigit = errors.New("cpf check digit mismatch")

	// ErrDateFormat is returned when the input is not literal DD/MM/YYYY.
	ErrDateFormat = errors.New("date must be DD/MM/YYYY")
	// ErrDateImpossible is returned for dates that do not exist on the
	// calendar (31/02/2020 and the like).
	ErrDateImpossible = errors.New("date does not exist")
	// ErrDateNotPast is returned when the date is today or in the future.
	ErrDateNotPast = errors.New("date must be in the past")
)

// CPF validates a Brazilian taxpayer ID. Formatting characters are stripped
// before checking, so both "529.982.247-25" and "52998224725" are accepted.
func CPF(raw string) error {
	digits := make([]int, 0, 11)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) != 11 {
		return ErrCPFLength
	}

	same := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			same = false
			break
		}
	}
	if same {
		return ErrCPFRepeated
	}

	if checkDigit(digits[:9], 10) != digits[9] {
		return ErrCPFCheckDigit
	}
	if checkDigit(digits[:10], 11) != digits[10] {
		return ErrCPFCheckDigit
	}
	return nil
}

// checkDigit computes a CPF verification digit over the given prefix using
// descending weights starting at firstWeight. Remainders 10 and 11 map to 0.
func checkDigit(digits []int, firstWeight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (firstWeight - i)
	}
	rem := (sum * 10) % 11
	if rem >= 10 {
		rem = 0
	}
	return rem
}

// PastDate validates a birth-date style input: literal DD/MM/YYYY, an
// existing calendar day, strictly before now.
func PastDate(raw string, now time.Time) error {
	s := strings.TrimSpace(raw)
	if len(s) != 10 || s[2] != '/' || s[5] != '/' {
		return ErrDateFormat
	}

	var day, month, year int
	if _, err := fmt.Sscanf(s, "%02d/%02d/%04d", &day, &month, &year); err != nil {
		return ErrDateFormat
	}

	// time.Date normalizes overflow (e.g. Feb 31 -> Mar 2), so an impossible
	// date will not round-trip to the same day/month/year.
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) || d.Year() != year {
		return ErrDateImpossible
	}

	if !d.Before(now.UTC().Truncate(24 * time.Hour)) {
		return ErrDateNotPast
	}
	return nil
}
