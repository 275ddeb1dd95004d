package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCalendarDate(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"us date", "08/12/2025", "2025-08-12"},
		{"single digit parts", "8/1/2025", "2025-08-01"},
		{"vague text passes through", "TBD", "TBD"},
		{"week-of text passes through", "Week  of   9/15/2025", "Week of 9/15/2025"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeCalendarDate(tc.input))
		})
	}
}

func TestIsConcreteDate(t *testing.T) {
	assert.True(t, IsConcreteDate("2025-08-12"))
	assert.False(t, IsConcreteDate("TBD"))
	assert.False(t, IsConcreteDate("Week of 9/15/2025"))
	assert.False(t, IsConcreteDate(""))
}

func TestShouldUpdateDate(t *testing.T) {
	cases := []struct {
		name     string
		current  string
		incoming string
		want     bool
	}{
		{"no current date takes anything", "", "TBD", true},
		{"no current date takes concrete", "", "2025-08-12", true},
		{"vague upgrades to concrete", "TBD", "2025-08-12", true},
		{"concrete changes to different concrete", "2025-08-12", "2025-08-19", true},
		{"concrete never downgrades to vague", "2025-08-12", "TBD", false},
		{"same concrete date is a no-op", "2025-08-12", "2025-08-12", false},
		{"vague stays vague", "TBD", "Week of 9/15/2025", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shouldUpdateDate(tc.current, tc.incoming))
		})
	}
}
