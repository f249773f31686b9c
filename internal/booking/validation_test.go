package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"romaantica/internal/models"
)

func TestValidEmail(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"a@b.c", true},
		{"mario.rossi@example.it", true},
		{"abc", false},
		{"a@b", false},
		{"a b@c.d", false},
		{"a\u00a0b@c.d", false},
		{"mario@example\u2003.it", false},
		{"a\u2028@b.c", false},
		{"chiara.lucà@example.it", true},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, ValidEmail(tt.input), "input: %q", tt.input)
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"1234567890", true},
		{"+39 333 123 4567", true},
		{"333 1234567", true},
		{"123 456 78", false},
		{"333-123-4567", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, ValidPhone(tt.input), "input: %q", tt.input)
	}
}

func TestValidTime(t *testing.T) {
	assert.True(t, ValidTime("19:30"))
	assert.True(t, ValidTime("00:00"))
	assert.False(t, ValidTime("9:30"))
	assert.False(t, ValidTime("25:00"))
	assert.False(t, ValidTime("ore 20"))
}

func TestIsStepValid(t *testing.T) {
	t.Run("DateTime", func(t *testing.T) {
		assert.False(t, IsStepValid(models.DraftBooking{Date: "2026-10-15"}, StepDateTime))
		assert.False(t, IsStepValid(models.DraftBooking{Time: "19:30"}, StepDateTime))
		assert.True(t, IsStepValid(models.DraftBooking{Date: "2026-10-15", Time: "19:30"}, StepDateTime))
	})

	t.Run("PartySize", func(t *testing.T) {
		for n := MinGuests; n <= MaxGuests; n++ {
			assert.True(t, IsStepValid(models.DraftBooking{NumberOfGuests: n}, StepPartySize), "guests %d", n)
		}
		assert.False(t, IsStepValid(models.DraftBooking{}, StepPartySize))
	})

	t.Run("Contact", func(t *testing.T) {
		d := models.DraftBooking{CustomerName: "Mario", CustomerEmail: "m@r.it"}
		assert.False(t, IsStepValid(d, StepContact))
		d.CustomerPhone = "3331234567"
		assert.True(t, IsStepValid(d, StepContact))
	})

	t.Run("Unknown", func(t *testing.T) {
		assert.False(t, IsStepValid(models.DraftBooking{}, Step(4)))
	})
}

func TestValidateContact(t *testing.T) {
	d := models.DraftBooking{CustomerName: "Mario", CustomerEmail: "abc", CustomerPhone: "3331234567"}
	verr := ValidateContact(d)
	if assert.NotNil(t, verr) {
		assert.Equal(t, ReasonEmail, verr.Reason)
		assert.Equal(t, MsgInvalidEmail, verr.Message)
	}

	d.CustomerEmail = "mario@example.it"
	d.CustomerPhone = "123 456 78"
	verr = ValidateContact(d)
	if assert.NotNil(t, verr) {
		assert.Equal(t, ReasonPhone, verr.Reason)
	}

	d.CustomerPhone = "333 123 4567"
	assert.Nil(t, ValidateContact(d))

	verr = ValidateContact(models.DraftBooking{})
	if assert.NotNil(t, verr) {
		assert.Equal(t, ReasonMissingFields, verr.Reason)
	}
}

func TestValidateDate(t *testing.T) {
	assert.Nil(t, validateDate("2026-10-15", "2026-10-15", "2027-01-15"))
	assert.Nil(t, validateDate("2027-01-15", "2026-10-15", "2027-01-15"))

	verr := validateDate("2026-10-14", "2026-10-15", "2027-01-15")
	if assert.NotNil(t, verr) {
		assert.Equal(t, "Seleziona una data compresa tra il 15/10/2026 e il 15/01/2027", verr.Message)
	}
	assert.NotNil(t, validateDate("2027-01-16", "2026-10-15", "2027-01-15"))
	assert.NotNil(t, validateDate("15/10/2026", "", ""))
	assert.NotNil(t, validateDate("2026-02-30", "", ""))
}

type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string       { return fmt.Sprintf("api %d", e.status) }
func (e *apiError) StatusCode() int     { return e.status }
func (e *apiError) UserMessage() string { return e.msg }

func TestSubmitErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"user message", &apiError{status: 409, msg: "Orario al completo"}, "Orario al completo"},
		{"wrapped user message", fmt.Errorf("create: %w", &apiError{status: 400, msg: "Dati non validi"}), "Dati non validi"},
		{"no response", &apiError{status: 0}, MsgNoConnection},
		{"server error", &apiError{status: 500}, MsgGenericFailure},
		{"blank message", &apiError{status: 503, msg: "  "}, MsgGenericFailure},
		{"plain error", errors.New("boom"), MsgGenericFailure},
		{"deadline", context.DeadlineExceeded, MsgGenericFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubmitErrorMessage(tt.err))
		})
	}
}
