package validation

import (
	"errors"
	"testing"

	"github.com/coursetable/ferry/internal/pkg/apperrors"
)

func TestIsSeasonCode(t *testing.T) {
	testCases := []struct {
		code     string
		expected bool
	}{
		{"202401", true},
		{"202403", true},
		{"202404", false},
		{"2024", false},
		{"20240a", false},
		{" 202401", false},
	}
	for i, testCase := range testCases {
		if actual := IsSeasonCode(testCase.code); actual != testCase.expected {
			t.Errorf("[i=%v] Expected %v but actual=%v", i, testCase.expected, actual)
		}
	}
}

func TestStructReportsFirstFailingField(t *testing.T) {
	type request struct {
		Trigger string   `json:"trigger" validate:"notblank"`
		Seasons []string `json:"seasons" validate:"omitempty,dive,seasoncode"`
	}

	testCases := []struct {
		req   request
		field string
	}{
		{req: request{Trigger: "cli", Seasons: []string{"202401"}}},
		{req: request{Trigger: "  "}, field: "trigger"},
		{req: request{Trigger: "cli", Seasons: []string{"202401", "x"}}, field: "seasons[1]"},
	}
	for i, testCase := range testCases {
		err := Struct(&testCase.req)
		if testCase.field == "" {
			if err != nil {
				t.Errorf("[i=%v] Expected no error but actual=%v", i, err)
			}
			continue
		}

		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) || !errors.Is(err, apperrors.ErrValidationFailed) {
			t.Errorf("[i=%v] Expected a validation error but actual=%v", i, err)
			continue
		}
		if validationErr.Field != testCase.field {
			t.Errorf("[i=%v] Expected field %v but actual=%v", i, testCase.field, validationErr.Field)
		}
	}
}
