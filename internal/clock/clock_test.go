package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemIsUTC(t *testing.T) {
	t.Parallel()

	before := time.Now().Add(-time.Second)
	got := System{}.Now()
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.After(before))
}

func TestFixed(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	var c Clock = Fixed(at)
	assert.Equal(t, at, c.Now())
	assert.Equal(t, at, c.Now())
}
