package dto

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		input   any
		details map[string]any
	}{
		{"valid range", AssignRangeRequest{StartDate: "2024-01-01", EndDate: "2024-01-31"}, nil},
		{"missing end", AssignRangeRequest{StartDate: "2024-01-01"}, map[string]any{"end_date": "required"}},
		{"bad date", AssignRangeRequest{StartDate: "2024-02-30", EndDate: "2024-03-01"}, map[string]any{"start_date": "isodate"}},
		{"bad role", CreatePersonRequest{Username: "ana", Name: "Ana", Password: "longenough", Role: "ROOT"}, map[string]any{"role": "oneof"}},
		{"short password", CreatePersonRequest{Username: "ana", Name: "Ana", Password: "x"}, map[string]any{"password": "min"}},
		{"same new password", ChangePasswordRequest{CurrentPassword: "password-1", NewPassword: "password-1"}, map[string]any{"new_password": "nefield"}},
		{"empty update", UpdatePersonRequest{}, nil},
		{"bad update role", UpdatePersonRequest{Role: ptr("ROOT")}, map[string]any{"role": "oneof"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.input)
			if tc.details == nil {
				require.NoError(t, err)
				return
			}
			de := apperrors.ToDomainError(err)
			require.Equal(t, "VALIDATION_FAILED", de.Code)
			require.Equal(t, tc.details, de.Details)
		})
	}
}

func ptr[T any](v T) *T { return &v }
