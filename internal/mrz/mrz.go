// Package mrz parses the two-line, 44-character TD3 machine-readable zone of
// passports and validates its check digits per ICAO 9303.
package mrz

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const LineLength = 44

const filler = '<'

var (
	ErrMalformedRecord = errors.New("malformed mrz record")
	ErrInvalidDate     = errors.New("invalid mrz date")
)

// Field positions on line 2.
const (
	passportNumberStart = 0
	passportNumberEnd   = 9
	passportCheckPos    = 9
	nationalityStart    = 10
	nationalityEnd      = 13
	birthDateStart      = 13
	birthDateEnd        = 19
	birthCheckPos       = 19
	sexPos              = 20
	expiryDateStart     = 21
	expiryDateEnd       = 27
	expiryCheckPos      = 27
	personalNumberStart = 28
	personalNumberEnd   = 42
	personalCheckPos    = 42
	compositeCheckPos   = 43
)

var checkWeights = [3]int{7, 3, 1}

// ChecksumResults holds the outcome of the four reported check digits. The
// personal-number check digit feeds only the composite input.
type ChecksumResults struct {
	PassportNumber bool `json:"passport_number"`
	BirthDate      bool `json:"date_of_birth"`
	ExpiryDate     bool `json:"expiry_date"`
	Composite      bool `json:"composite"`
}

func (c ChecksumResults) AllValid() bool {
	return c.PassportNumber && c.BirthDate && c.ExpiryDate && c.Composite
}

func (c ChecksumResults) ValidCount() int {
	n := 0
	for _, ok := range [4]bool{c.PassportNumber, c.BirthDate, c.ExpiryDate, c.Composite} {
		if ok {
			n++
		}
	}
	return n
}

// Record is an immutable parsed TD3 record.
type Record struct {
	DocumentType   string
	IssuingCountry string
	LastName       string
	FirstName      string
	PassportNumber string
	Nationality    string
	BirthDate      time.Time
	Sex            string // M, F or X
	ExpiryDate     time.Time
	PersonalNumber string // empty when the field is all filler
	RawLine1       string
	RawLine2       string
	Checksums      ChecksumResults
}

func (r *Record) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// ParseTD3 parses the two MRZ lines of a passport data page.
func ParseTD3(line1, line2 string) (*Record, error) {
	if len(line1) != LineLength {
		return nil, fmt.Errorf("%w: line 1 must be %d characters, got %d", ErrMalformedRecord, LineLength, len(line1))
	}
	if len(line2) != LineLength {
		return nil, fmt.Errorf("%w: line 2 must be %d characters, got %d", ErrMalformedRecord, LineLength, len(line2))
	}

	line1 = strings.ToUpper(line1)
	line2 = strings.ToUpper(line2)

	docType := strings.Trim(line1[0:2], string(filler))
	if docType == "" {
		docType = "P"
	}
	issuingCountry := trimFiller(line1[2:5])
	lastName, firstName := parseNameField(line1[5:LineLength])

	passportField := line2[passportNumberStart:passportNumberEnd]
	birthField := line2[birthDateStart:birthDateEnd]
	expiryField := line2[expiryDateStart:expiryDateEnd]
	personalField := line2[personalNumberStart:personalNumberEnd]

	birthDate, err := parseDate(birthField, false)
	if err != nil {
		return nil, err
	}
	expiryDate, err := parseDate(expiryField, true)
	if err != nil {
		return nil, err
	}

	checksums := ChecksumResults{
		PassportNumber: validCheckDigit(passportField, line2[passportCheckPos]),
		BirthDate:      validCheckDigit(birthField, line2[birthCheckPos]),
		ExpiryDate:     validCheckDigit(expiryField, line2[expiryCheckPos]),
		Composite:      validCheckDigit(compositeInput(line2), line2[compositeCheckPos]),
	}

	return &Record{
		DocumentType:   docType,
		IssuingCountry: issuingCountry,
		LastName:       lastName,
		FirstName:      firstName,
		PassportNumber: trimFiller(passportField),
		Nationality:    trimFiller(line2[nationalityStart:nationalityEnd]),
		BirthDate:      birthDate,
		Sex:            normalizeSex(line2[sexPos]),
		ExpiryDate:     expiryDate,
		PersonalNumber: trimFiller(personalField),
		RawLine1:       line1,
		RawLine2:       line2,
		Checksums:      checksums,
	}, nil
}

// CheckDigit computes the ICAO 9303 check digit over s: characters map to
// 0-35 (digits as themselves, letters as position+10, filler as 0), weighted
// cyclically by 7, 3, 1, summed modulo 10.
func CheckDigit(s string) (byte, error) {
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := charValue(s[i])
		if !ok {
			return 0, fmt.Errorf("%w: invalid character %q at position %d", ErrMalformedRecord, s[i], i)
		}
		total += v * checkWeights[i%3]
	}
	return byte('0' + total%10), nil
}

// compositeInput concatenates the fields covered by the composite check
// digit: passport number + check, birth date + check, expiry date + check,
// personal number + check.
func compositeInput(line2 string) string {
	return line2[passportNumberStart:passportCheckPos+1] +
		line2[birthDateStart:birthCheckPos+1] +
		line2[expiryDateStart:personalCheckPos+1]
}

func validCheckDigit(data string, check byte) bool {
	digit, err := CheckDigit(data)
	if err != nil {
		return false
	}
	return digit == check
}

func charValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10, true
	case c == filler:
		return 0, true
	default:
		return 0, false
	}
}

// parseNameField splits SURNAME<<GIVEN<NAMES<<<... on the first double
// filler, replaces remaining fillers with spaces and trims.
func parseNameField(field string) (lastName, firstName string) {
	surname, given, found := strings.Cut(field, "<<")
	lastName = strings.TrimSpace(strings.ReplaceAll(surname, string(filler), " "))
	if found {
		firstName = strings.TrimSpace(strings.ReplaceAll(given, string(filler), " "))
	}
	return lastName, firstName
}

// parseDate interprets a YYMMDD field with century inference: birth years
// >= 30 resolve to 19YY, expiry years >= 80 resolve to 19YY.
func parseDate(field string, isExpiry bool) (time.Time, error) {
	var yy, mm, dd int
	if _, err := fmt.Sscanf(field, "%2d%2d%2d", &yy, &mm, &dd); err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not numeric", ErrInvalidDate, field)
	}
	century := 2000
	if isExpiry {
		if yy >= 80 {
			century = 1900
		}
	} else if yy >= 30 {
		century = 1900
	}
	t := time.Date(century+yy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if t.Year() != century+yy || int(t.Month()) != mm || t.Day() != dd {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDate, field)
	}
	return t, nil
}

func normalizeSex(c byte) string {
	switch c {
	case 'M':
		return "M"
	case 'F':
		return "F"
	default:
		return "X"
	}
}

// trimFiller strips filler characters from code fields (passport number,
// country codes, personal number) where filler marks padding, not spacing.
func trimFiller(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, string(filler), ""))
}
