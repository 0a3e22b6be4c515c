package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	got := New().Now()
	after := time.Now().UTC().Add(time.Second)

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.After(before) && got.Before(after), "got %v", got)
}

func TestFixed(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := Fixed(at)
	assert.Equal(t, at, clk.Now())
	assert.Equal(t, clk.Now(), clk.Now())
}
