package form

import (
	"errors"
	"testing"

	"github.com/mschirtzinger/lanform/internal/record"
)

func validInput() Input {
	return Input{
		Name:    " Ada ",
		Email:   "ada@example.com",
		Phone:   "555-0100",
		Address: "1 Main St",
		Gender:  "female",
		Age:     "36",
	}
}

func TestInputRecord(t *testing.T) {
	rec, err := validInput().Record()
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	want := record.Record{
		Name:    "Ada",
		Email:   "ada@example.com",
		Phone:   "555-0100",
		Address: "1 Main St",
		Gender:  record.GenderFemale,
		Age:     36,
	}
	if rec != want {
		t.Errorf("got %+v, want %+v", rec, want)
	}
}

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		msg    string
	}{
		{"missing name", func(in *Input) { in.Name = "  " }, "Name is required"},
		{"missing email", func(in *Input) { in.Email = "" }, "Email is required"},
		{"bad email", func(in *Input) { in.Email = "ada@" }, "Invalid email"},
		{"missing phone", func(in *Input) { in.Phone = "" }, "Phone is required"},
		{"missing address", func(in *Input) { in.Address = "" }, "Address is required"},
		{"missing gender", func(in *Input) { in.Gender = "" }, "Gender is required"},
		{"unknown gender", func(in *Input) { in.Gender = "robot" }, "Gender must be Male, Female or Other"},
		{"missing age", func(in *Input) { in.Age = "" }, "Age is required"},
		{"non-numeric age", func(in *Input) { in.Age = "old" }, "Age must be a number"},
		{"negative age", func(in *Input) { in.Age = "-1" }, "Age must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := in.Record()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, err.Error())
			}
		})
	}
}

func TestZeroAgeAccepted(t *testing.T) {
	in := validInput()
	in.Age = "0"
	rec, err := in.Record()
	if err != nil {
		t.Fatalf("age 0 should be valid: %v", err)
	}
	if rec.Age != 0 {
		t.Errorf("expected age 0, got %v", rec.Age)
	}
}

func TestNewBindsInput(t *testing.T) {
	var in Input
	if New(&in) == nil {
		t.Fatal("New returned nil form")
	}
}

func TestNonFiniteAgeRejected(t *testing.T) {
	in := validInput()
	in.Age = "NaN"
	if _, err := in.Record(); !errors.Is(err, record.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}
