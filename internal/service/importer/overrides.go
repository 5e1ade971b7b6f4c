package importer

import (
	"fmt"
	"strings"
)

// Overrides are per-run option changes supplied by a caller. Empty fields
// keep the defaults.
type Overrides struct {
	Policy      string `json:"policy" form:"policy"`
	Delimiter   string `json:"delimiter" form:"delimiter"`
	Layout      string `json:"layout" form:"layout"`
	DateOrder   string `json:"dateOrder" form:"dateOrder"`
	Placeholder string `json:"placeholder" form:"placeholder"`
	SkipHeader  *bool  `json:"skipHeader" form:"skipHeader"`
}

// Apply returns a copy of o with the overrides applied.
func (o Options) Apply(ov Overrides) (Options, error) {
	var err error

	if strings.TrimSpace(ov.Policy) != "" {
		if o.Policy, err = ParsePolicy(ov.Policy); err != nil {
			return Options{}, err
		}
	}
	if strings.TrimSpace(ov.Delimiter) != "" {
		if o.Delimiter, err = ParseDelimiter(ov.Delimiter); err != nil {
			return Options{}, err
		}
	}
	if strings.TrimSpace(ov.Layout) != "" {
		if o.Layout, err = ParseLayout(ov.Layout); err != nil {
			return Options{}, err
		}
	}
	if order := strings.ToUpper(strings.TrimSpace(ov.DateOrder)); order != "" {
		switch DateOrder(order) {
		case DayMonthYear, MonthDayYear:
			o.Locale.DateOrder = DateOrder(order)
		default:
			return Options{}, fmt.Errorf("%w: unknown date order %q", ErrInvalidOptions, ov.DateOrder)
		}
	}
	if name := strings.TrimSpace(ov.Placeholder); name != "" {
		o.Placeholder = name
	}
	if ov.SkipHeader != nil {
		o.SkipHeader = *ov.SkipHeader
	}

	return o, nil
}
