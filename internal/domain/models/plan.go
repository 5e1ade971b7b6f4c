package models

// DefaultConfigKey is the global configuration document used when a month
// has no configuration of its own.
const DefaultConfigKey = "default_config"

// MonthlyConfig holds the monthly goal settings. Weekdays use 0=Sunday..6=Saturday.
type MonthlyConfig struct {
	Budget         float64 `bson:"budget" json:"budget" validate:"gte=0"`
	OffDays        []int   `bson:"offDays" json:"offDays" validate:"dive,weekday"`
	HighDemandDays []int   `bson:"highDemandDays" json:"highDemandDays" validate:"dive,weekday"`
	VacationStart  string  `bson:"vacationStart" json:"vacationStart" validate:"omitempty,datetime=2006-01-02"`
	VacationEnd    string  `bson:"vacationEnd" json:"vacationEnd" validate:"omitempty,datetime=2006-01-02"`
}

// DefaultMonthlyConfig is the configuration used on first run.
func DefaultMonthlyConfig() MonthlyConfig {
	return MonthlyConfig{
		OffDays:        []int{},
		HighDemandDays: []int{},
	}
}

// HasVacation reports whether both vacation bounds are set.
func (c MonthlyConfig) HasVacation() bool {
	return c.VacationStart != "" && c.VacationEnd != ""
}

// Plan is the weighted goal distribution for a month.
type Plan struct {
	TotalWeight float64 `json:"totalWeight"`
	WorkDays    int     `json:"workDaysCount"`
	NormalDays  int     `json:"normalDays"`
	HighDays    int     `json:"highDays"`
	UnitValue   float64 `json:"unitValue"`
	NormalGoal  float64 `json:"normalGoal"`
	HighGoal    float64 `json:"highGoal"`
}

// PlanResult combines the plan with aggregate progress over the month's shifts.
type PlanResult struct {
	Month           string  `json:"month"`
	Budget          float64 `json:"budget"`
	Plan            Plan    `json:"plan"`
	TotalEarnings   float64 `json:"totalEarnings"`
	TotalHours      float64 `json:"totalHours"`
	TotalKm         float64 `json:"totalKm"`
	HourlyRate      float64 `json:"hourlyRate"`
	CurrentProgress float64 `json:"currentProgress"`
	Remaining       float64 `json:"remaining"`
}

// DayClass is the classification of a single date against a config.
type DayClass string

const (
	DayVacation DayClass = "vacation"
	DayRest     DayClass = "rest"
	DayHigh     DayClass = "high"
	DayNormal   DayClass = "normal"
)

// DayTarget is the earnings target for one date.
type DayTarget struct {
	Date    string   `json:"date"`
	Weekday int      `json:"weekday"`
	Class   DayClass `json:"class"`
	Target  float64  `json:"target"`
}

// PlatformTotal aggregates one platform's records.
type PlatformTotal struct {
	Platform string  `json:"platform"`
	Earnings float64 `json:"earnings"`
	Hours    float64 `json:"hours"`
	Km       float64 `json:"km"`
	Records  int     `json:"records"`
}
