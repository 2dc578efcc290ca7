package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHorizonString(t *testing.T) {
	cases := []struct {
		d        time.Duration
		expected string
	}{
		{30 * 24 * time.Hour, "3month"},
		{90 * 24 * time.Hour, "3month"},
		{150 * 24 * time.Hour, "6month"},
		{365 * 24 * time.Hour, "12month"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, horizonString(c.d))
	}
}
