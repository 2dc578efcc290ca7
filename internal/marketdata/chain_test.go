package marketdata

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Bars_FallsThroughOnError(t *testing.T) {
	primary := newFakeProvider("primary")
	primary.err = assert.AnError

	secondary := newFakeProvider("secondary")
	secondary.bars["AAPL"] = []Bar{{Date: day(0), Close: 100}}

	chain := NewChain(zerolog.Nop(), primary, secondary)

	bars, err := chain.Bars(context.Background(), "AAPL", day(0), day(0))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1, primary.barCalls["AAPL"])
	assert.Equal(t, 1, secondary.barCalls["AAPL"])
}

func TestChain_Bars_ReturnsLastErrorWhenAllFail(t *testing.T) {
	primary := newFakeProvider("primary")
	primary.err = assert.AnError
	secondary := newFakeProvider("secondary")
	secondary.err = assert.AnError

	chain := NewChain(zerolog.Nop(), primary, secondary)

	_, err := chain.Bars(context.Background(), "AAPL", day(0), day(0))
	assert.Error(t, err)
}

func TestChain_NoProviders_ReturnsError(t *testing.T) {
	chain := NewChain(zerolog.Nop())
	_, err := chain.Bars(context.Background(), "AAPL", day(0), day(0))
	assert.Error(t, err)
}

func TestChain_UsesFirstSuccessfulProvider(t *testing.T) {
	primary := newFakeProvider("primary")
	primary.bars["AAPL"] = []Bar{{Date: day(0), Close: 1}}
	secondary := newFakeProvider("secondary")
	secondary.bars["AAPL"] = []Bar{{Date: day(0), Close: 2}, {Date: day(1), Close: 3}}

	chain := NewChain(zerolog.Nop(), primary, secondary)

	bars, err := chain.Bars(context.Background(), "AAPL", day(0), day(1))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 0, secondary.barCalls["AAPL"])
}

func TestErrUnsupported_Error(t *testing.T) {
	err := ErrUnsupported{Provider: "yahoo", Capability: "holdings"}
	assert.Contains(t, err.Error(), "yahoo")
	assert.Contains(t, err.Error(), "holdings")
}
