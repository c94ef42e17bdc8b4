package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
)

func TestParseHeadingDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		heading string
		want    string
		ok      bool
	}{
		{name: "день месяц год", heading: "Rewards for 26 August 2026", want: "2026-08-26", ok: true},
		{name: "месяц день запятая", heading: "August 26, 2026 — Daily Links", want: "2026-08-26", ok: true},
		{name: "месяц день без запятой", heading: "August 26 2026", want: "2026-08-26", ok: true},
		{name: "точки", heading: "Бонусы 26.08.2026", want: "2026-08-26", ok: true},
		{name: "точки без ведущих нулей", heading: "2.1.2026", want: "2026-01-02", ok: true},
		{name: "iso", heading: "2026-08-26", want: "2026-08-26", ok: true},
		{name: "пробелы вокруг", heading: "   26 August 2026   ", want: "2026-08-26", ok: true},
		{name: "без даты", heading: "Свежие награды", want: "", ok: false},
		{name: "несуществующий день", heading: "99.99.2026", want: "", ok: false},
		{name: "пустая строка", heading: "", want: "", ok: false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := extractor.ParseHeadingDate(tt.heading)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
