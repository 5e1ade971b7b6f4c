package models

import "time"

// Platform labels known to the dashboard. Any other label is accepted as-is.
const (
	PlatformUber     = "Uber"
	PlatformDidi     = "Didi"
	PlatformCabify   = "Cabify"
	PlatformIndriver = "Indriver"
	PlatformOtros    = "Otros"

	// PlatformDailyReport carries day-level hours/km without attributing them
	// to a platform.
	PlatformDailyReport = "Reporte Diario"
)

// RecordType discriminates earnings rows from day-level stats rows.
type RecordType string

const (
	RecordIncome RecordType = "income"
	RecordStats  RecordType = "stats"
)

// ShiftRecord is one platform-day earnings/hours/km entry.
type ShiftRecord struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	Date      string     `bson:"date" json:"date"`
	Platform  string     `bson:"platform" json:"platform"`
	Earnings  float64    `bson:"earnings" json:"earnings"`
	Hours     float64    `bson:"hours" json:"hours"`
	Km        float64    `bson:"km" json:"km"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	Type      RecordType `bson:"type,omitempty" json:"type,omitempty"`
	ImportID  string     `bson:"importId,omitempty" json:"importId,omitempty"`
}

// ShiftCreateRequest is the payload accepted for direct form entry.
type ShiftCreateRequest struct {
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	Platform string  `json:"platform" validate:"required,max=40"`
	Hours    float64 `json:"hours" validate:"gte=0"`
	Earnings float64 `json:"earnings" validate:"gte=0"`
	Km       float64 `json:"km" validate:"gte=0"`
}

// ToRecord converts the request to a record ready for insertion.
func (r ShiftCreateRequest) ToRecord() ShiftRecord {
	return ShiftRecord{
		Date:     r.Date,
		Platform: r.Platform,
		Hours:    r.Hours,
		Earnings: r.Earnings,
		Km:       r.Km,
		Type:     RecordIncome,
	}
}
