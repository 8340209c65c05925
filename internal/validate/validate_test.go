package validate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/petsaude/iasys/internal/validate"
)

func TestCPF_Valid(t *testing.T) {
	// Check digits computed by the mod-11 rule.
	valid := []string{
		"529.982.247-25",
		"52998224725",
		"111.444.777-35",
	}
	for _, cpf := range valid {
		assert.NoError(t, validate.CPF(cpf), cpf)
	}
}

func TestCPF_Invalid(t *testing.T) {
	cases := []struct {
		name string
		cpf  string
		err  error
	}{
		{"too short", "1234567890", validate.ErrCPFLength},
		{"too long", "123456789012", validate.ErrCPFLength},
		{"letters only", "abcdefghijk", validate.ErrCPFLength},
		{"all repeated", "111.111.111-11", validate.ErrCPFRepeated},
		{"bad first check digit", "529.982.247-15", validate.ErrCPFCheckDigit},
		{"bad second check digit", "529.982.247-24", validate.ErrCPFCheckDigit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, validate.CPF(tc.cpf), tc.err)
		})
	}
}

func TestCPF_StripsFormatting(t *testing.T) {
	// Punctuation and spaces are ignored, only digits count.
	assert.NoError(t, validate.CPF("  529 982 247 25  "))
}

func TestPastDate_Valid(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, validate.PastDate("01/01/1990", now))
	assert.NoError(t, validate.PastDate("29/02/2000", now)) // leap year
	assert.NoError(t, validate.PastDate("14/06/2025", now)) // yesterday
}

func TestPastDate_Invalid(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  string
		err  error
	}{
		{"wrong separator", "01-01-1990", validate.ErrDateFormat},
		{"missing leading zero", "1/1/1990", validate.ErrDateFormat},
		{"not a date", "aniversário", validate.ErrDateFormat},
		{"empty", "", validate.ErrDateFormat},
		{"month thirteen", "10/13/1990", validate.ErrDateImpossible},
		{"day zero", "00/05/1990", validate.ErrDateImpossible},
		{"feb 30", "30/02/2001", validate.ErrDateImpossible},
		{"feb 29 non leap", "29/02/2001", validate.ErrDateImpossible},
		{"today", "15/06/2025", validate.ErrDateNotPast},
		{"tomorrow", "16/06/2025", validate.ErrDateNotPast},
		{"next century", "01/01/2100", validate.ErrDateNotPast},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, validate.PastDate(tc.raw, now), tc.err)
		})
	}
}
