package common_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-reward-tracker/internal/common"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	parsed, err := common.ParseDate("2026-08-26")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), parsed)
}

func TestParseDate_Malformed(t *testing.T) {
	t.Parallel()

	_, err := common.ParseDate("26.08.2026")
	assert.ErrorIs(t, err, &errors.ErrMalformedDate{})
}

func TestPreviousDays(t *testing.T) {
	t.Parallel()

	days, err := common.PreviousDays("2026-08-26", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-25", "2026-08-24", "2026-08-23"}, days)
}

func TestPreviousDays_CrossesMonthBoundary(t *testing.T) {
	t.Parallel()

	days, err := common.PreviousDays("2026-03-01", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-28", "2026-02-27"}, days)
}

func TestPreviousDays_MalformedDate(t *testing.T) {
	t.Parallel()

	_, err := common.PreviousDays("сегодня", 1)
	assert.ErrorIs(t, err, &errors.ErrMalformedDate{})
}
