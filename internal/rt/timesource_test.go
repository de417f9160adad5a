package rt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gridloop/gridloop/internal/rt"
)

func TestVirtual_AdvancesPerReading(t *testing.T) {
	t.Parallel()

	v := rt.NewVirtual(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, v.Now())
	assert.Equal(t, 20*time.Millisecond, v.Now())
	assert.Equal(t, 30*time.Millisecond, v.Now())
}

func TestMonotonic_Advances(t *testing.T) {
	t.Parallel()

	m := rt.NewMonotonic()
	a := m.Now()
	time.Sleep(2 * time.Millisecond)
	b := m.Now()
	assert.Greater(t, b, a)
}
