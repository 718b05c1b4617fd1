// Package form collects one record interactively with a terminal form.
package form

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mschirtzinger/lanform/internal/record"
)

// ErrAborted is returned by Prompt when the user dismisses the form.
var ErrAborted = errors.New("form aborted")

// Input holds the raw field text as typed.
type Input struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Gender  string
	Age     string
}

// Field validators. Messages match what the user sees next to each field.

func required(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

var (
	validateName    = required("Name is required")
	validatePhone   = required("Phone is required")
	validateAddress = required("Address is required")
)

func validateEmail(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("Email is required")
	}
	if record.ValidateEmail(s) != nil {
		return errors.New("Invalid email")
	}
	return nil
}

func validateGender(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("Gender is required")
	}
	if _, err := record.ParseGender(s); err != nil {
		return errors.New("Gender must be Male, Female or Other")
	}
	return nil
}

func validateAge(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("Age is required")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("Age must be a number")
	}
	if v < 0 {
		return errors.New("Age must be positive")
	}
	return nil
}

// Validate runs every field validator and returns the first failure.
func (in Input) Validate() error {
	checks := []struct {
		v     string
		check func(string) error
	}{
		{in.Name, validateName},
		{in.Email, validateEmail},
		{in.Phone, validatePhone},
		{in.Address, validateAddress},
		{in.Gender, validateGender},
		{in.Age, validateAge},
	}
	for _, c := range checks {
		if err := c.check(c.v); err != nil {
			return err
		}
	}
	return nil
}

// Record converts the input into a validated record.Record.
func (in Input) Record() (record.Record, error) {
	if err := in.Validate(); err != nil {
		return record.Record{}, err
	}
	gender, err := record.ParseGender(in.Gender)
	if err != nil {
		return record.Record{}, err
	}
	age, err := record.ParseAge(in.Age)
	if err != nil {
		return record.Record{}, err
	}

	rec := record.Record{
		Name:    strings.TrimSpace(in.Name),
		Email:   in.Email,
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		Gender:  gender,
		Age:     age,
	}
	if err := rec.Validate(); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

// New builds the huh form bound to in. Each successful submission should
// use a fresh Input so the form starts empty.
func New(in *Input) *huh.Form {
	options := make([]huh.Option[string], 0, len(record.Genders))
	for _, g := range record.Genders {
		options = append(options, huh.NewOption(string(g), string(g)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&in.Name).Validate(validateName),
			huh.NewInput().Title("Email").Value(&in.Email).Validate(validateEmail),
			huh.NewInput().Title("Phone").Value(&in.Phone).Validate(validatePhone),
			huh.NewText().Title("Address").Lines(3).Value(&in.Address).Validate(validateAddress),
			huh.NewSelect[string]().Title("Gender").Options(options...).Value(&in.Gender).Validate(validateGender),
			huh.NewInput().Title("Age").Value(&in.Age).Validate(validateAge),
		),
	)
}

// Prompt shows an empty form and returns the entered record.
func Prompt(ctx context.Context) (record.Record, error) {
	var in Input
	if err := New(&in).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return record.Record{}, ErrAborted
		}
		return record.Record{}, err
	}
	return in.Record()
}
