package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/driverledger/internal/config"
)

func TestOptionsApply(t *testing.T) {
	skip := false
	opts, err := DefaultOptions().Apply(Overrides{
		Policy:      "daily-report",
		Delimiter:   "semicolon",
		Layout:      "date,Cabify,hours,km",
		DateOrder:   "mdy",
		Placeholder: "Cabify",
		SkipHeader:  &skip,
	})
	require.NoError(t, err)

	assert.Equal(t, PolicyDailyReport, opts.Policy)
	assert.Equal(t, DelimiterSemicolon, opts.Delimiter)
	assert.Equal(t, []string{"Cabify"}, opts.Layout.Platforms())
	assert.Equal(t, MonthDayYear, opts.Locale.DateOrder)
	assert.Equal(t, "Cabify", opts.Placeholder)
	assert.False(t, opts.SkipHeader)
}

func TestOptionsApplyKeepsDefaults(t *testing.T) {
	opts, err := DefaultOptions().Apply(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestOptionsApplyRejectsUnknownValues(t *testing.T) {
	_, err := DefaultOptions().Apply(Overrides{DateOrder: "YMD"})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = DefaultOptions().Apply(Overrides{Layout: "Uber,hours"})
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = DefaultOptions().Apply(Overrides{Delimiter: "pipe"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(config.ImportConfig{
		Policy:             "max-earner",
		Layout:             "date,Uber,Didi,hours",
		Delimiter:          "tab",
		DateOrder:          "DMY",
		ThousandsSeparator: ",",
		DecimalSeparator:   ".",
		Placeholder:        "Otros",
	})
	require.NoError(t, err)

	assert.Equal(t, PolicyMaxEarner, opts.Policy)
	assert.Equal(t, DelimiterTab, opts.Delimiter)
	assert.Equal(t, ',', opts.Locale.ThousandsSeparator)
	assert.Equal(t, '.', opts.Locale.DecimalSeparator)

	_, err = OptionsFromConfig(config.ImportConfig{Layout: "date,Uber,hours", DateOrder: "YDM"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
