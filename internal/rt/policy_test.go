package rt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridloop/gridloop/internal/rt"
)

func TestParseCatchUp(t *testing.T) {
	t.Parallel()

	p, err := rt.ParseCatchUp("skip")
	require.NoError(t, err)
	assert.Equal(t, rt.CatchUpSkip, p)

	p, err = rt.ParseCatchUp("replay")
	require.NoError(t, err)
	assert.Equal(t, rt.CatchUpReplay, p)

	_, err = rt.ParseCatchUp("rewind")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid catch-up policy "rewind"`)
}

func TestCatchUpPolicy_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "skip", rt.CatchUpSkip.String())
	assert.Equal(t, "replay", rt.CatchUpReplay.String())
}
