package forecastingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForecastCSV(t *testing.T) {
	input := strings.Join([]string{
		"sku,date,expected,lower,upper",
		"SKU-1,2026-03-01,120.5,96.4,144.6",
		"SKU-1,2026-03-02,118.0,94.4,141.6",
		"SKU-2,2026-03-01,40,32,48",
	}, "\n")

	samples, rejected, err := ParseForecastCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 0, rejected)
	require.Len(t, samples, 3)

	assert.Equal(t, "SKU-1", samples[0].SKU)
	assert.Equal(t, "2026-03-01", samples[0].TargetDate.Format("2006-01-02"))
	assert.InDelta(t, 120.5, samples[0].Expected, 1e-9)
	assert.InDelta(t, 96.4, samples[0].Lower, 1e-9)
	assert.InDelta(t, 144.6, samples[0].Upper, 1e-9)
}

func TestParseForecastCSV_NoHeader(t *testing.T) {
	samples, rejected, err := ParseForecastCSV(strings.NewReader("SKU-1,2026-03-01,10,5,15\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, rejected)
	require.Len(t, samples, 1)
}

func TestParseForecastCSV_RejectsBadRows(t *testing.T) {
	input := strings.Join([]string{
		"sku,date,expected,lower,upper",
		"SKU-1,not-a-date,10,5,15",
		"SKU-1,2026-03-01,ten,5,15",
		"SKU-1,2026-03-01,10",
		",2026-03-01,10,5,15",
		"SKU-1,2026-03-02,10,5,15",
	}, "\n")

	samples, rejected, err := ParseForecastCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 4, rejected)
	require.Len(t, samples, 1)
	assert.Equal(t, "SKU-1", samples[0].SKU)
}

func TestParseForecastCSV_RepairsBounds(t *testing.T) {
	samples, rejected, err := ParseForecastCSV(strings.NewReader("SKU-1,2026-03-01,10,14,6\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, rejected)
	require.Len(t, samples, 1)

	sample := samples[0]
	assert.True(t, sample.Valid(), "sample should be repaired: %+v", sample)
	assert.LessOrEqual(t, sample.Lower, sample.Expected)
	assert.GreaterOrEqual(t, sample.Upper, sample.Expected)
}

func TestParseForecastCSV_Empty(t *testing.T) {
	samples, rejected, err := ParseForecastCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, rejected)
	assert.Empty(t, samples)
}
