package importer

import (
	"fmt"
	"strings"
)

// ColumnRole is what a positional column carries.
type ColumnRole string

const (
	RoleDate     ColumnRole = "date"
	RoleHours    ColumnRole = "hours"
	RoleKm       ColumnRole = "km"
	RolePlatform ColumnRole = "platform"
)

// Column is one positional column. Platform is set for RolePlatform columns.
type Column struct {
	Role     ColumnRole
	Platform string
}

// Layout is the ordered column mapping of a delimited row.
type Layout []Column

// DefaultLayout is date, Uber, Didi, Otros, hours.
var DefaultLayout = Layout{
	{Role: RoleDate},
	{Role: RolePlatform, Platform: "Uber"},
	{Role: RolePlatform, Platform: "Didi"},
	{Role: RolePlatform, Platform: "Otros"},
	{Role: RoleHours},
}

// ParseLayout reads a comma separated layout such as "date,Uber,Didi,hours,km".
// The names date, hours and km are reserved; every other name is a platform.
func ParseLayout(spec string) (Layout, error) {
	var layout Layout
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		switch strings.ToLower(name) {
		case "":
			return nil, fmt.Errorf("%w: empty column name in %q", ErrInvalidLayout, spec)
		case string(RoleDate):
			layout = append(layout, Column{Role: RoleDate})
		case string(RoleHours):
			layout = append(layout, Column{Role: RoleHours})
		case string(RoleKm):
			layout = append(layout, Column{Role: RoleKm})
		default:
			layout = append(layout, Column{Role: RolePlatform, Platform: name})
		}
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// Validate checks that the layout has exactly one date and one hours column,
// at most one km column and at least one distinct platform.
func (l Layout) Validate() error {
	counts := make(map[ColumnRole]int)
	platforms := make(map[string]bool)

	for _, col := range l {
		counts[col.Role]++
		if col.Role != RolePlatform {
			continue
		}
		key := strings.ToLower(col.Platform)
		if platforms[key] {
			return fmt.Errorf("%w: duplicate platform %q", ErrInvalidLayout, col.Platform)
		}
		platforms[key] = true
	}

	switch {
	case counts[RoleDate] != 1:
		return fmt.Errorf("%w: need exactly one date column", ErrInvalidLayout)
	case counts[RoleHours] != 1:
		return fmt.Errorf("%w: need exactly one hours column", ErrInvalidLayout)
	case counts[RoleKm] > 1:
		return fmt.Errorf("%w: at most one km column", ErrInvalidLayout)
	case counts[RolePlatform] == 0:
		return fmt.Errorf("%w: need at least one platform column", ErrInvalidLayout)
	}

	return nil
}

// Platforms lists the platform columns in order.
func (l Layout) Platforms() []string {
	var names []string
	for _, col := range l {
		if col.Role == RolePlatform {
			names = append(names, col.Platform)
		}
	}
	return names
}

func (l Layout) String() string {
	names := make([]string, len(l))
	for i, col := range l {
		if col.Role == RolePlatform {
			names[i] = col.Platform
		} else {
			names[i] = string(col.Role)
		}
	}
	return strings.Join(names, ",")
}

func (l Layout) dateIndex() int {
	for i, col := range l {
		if col.Role == RoleDate {
			return i
		}
	}
	return -1
}
