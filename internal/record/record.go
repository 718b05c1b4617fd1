package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
)

// ErrInvalidRecord is wrapped by every validation failure.
var ErrInvalidRecord = errors.New("invalid record")

// Gender is one of a fixed set of values. The zero value is unset and is
// rejected by Validate.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Genders lists the accepted values in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// Valid reports whether g is one of Genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// ParseGender matches s against Genders, ignoring case and surrounding space.
func ParseGender(s string) (Gender, error) {
	s = strings.TrimSpace(s)
	for _, g := range Genders {
		if strings.EqualFold(s, string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: gender must be one of Male, Female, Other (got %q)", ErrInvalidRecord, s)
}

// Age is a non-negative number of years.
//
// It always encodes as a JSON number but decodes from either a number or a
// numeric string, since earlier form versions stored the raw input text.
type Age float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Age) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: age must be a number, got null", ErrInvalidRecord)
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("age must be a number: %w", err)
		}
		*a = Age(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("age must be a number: %w", err)
	}
	*a = Age(v)
	return nil
}

// ParseAge parses user input the same way a JSON string age is decoded.
func ParseAge(s string) (Age, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: age must be a number", ErrInvalidRecord)
	}
	a := Age(v)
	if err := a.validate(); err != nil {
		return 0, err
	}
	return a, nil
}

func (a Age) validate() error {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: age must be a finite number", ErrInvalidRecord)
	}
	if f < 0 {
		return fmt.Errorf("%w: age must be >= 0 (got %v)", ErrInvalidRecord, f)
	}
	return nil
}

// Record is one submitted entry. Records are values and are never edited
// once appended.
type Record struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Gender  Gender `json:"gender"`
	Age     Age    `json:"age"`
}

// Validate checks that every field is present and well formed.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("%w: phone is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidRecord)
	}
	if r.Gender == "" {
		return fmt.Errorf("%w: gender is required", ErrInvalidRecord)
	}
	if !r.Gender.Valid() {
		return fmt.Errorf("%w: gender must be one of Male, Female, Other (got %q)", ErrInvalidRecord, r.Gender)
	}
	return r.Age.validate()
}

// ValidateEmail checks that s is a bare address such as "a@b.example".
// Display-name forms like "A <a@b.example>" are rejected.
func ValidateEmail(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidRecord)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidRecord, s)
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidRecord, s)
	}
	return nil
}
