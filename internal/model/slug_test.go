package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Benefits of Abhyanga", "benefits-of-abhyanga"},
		{"  Yoga & Meditation: A Guide!  ", "yoga-meditation-a-guide"},
		{"Dosha -- Balance", "dosha-balance"},
		{"Ayurveda 101\tfor   Beginners", "ayurveda-101-for-beginners"},
		{"Café Ojas", "caf-ojas"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
