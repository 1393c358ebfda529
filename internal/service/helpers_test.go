package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/oncall-service/internal/domain"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}
