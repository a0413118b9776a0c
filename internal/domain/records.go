package domain

import (
	"time"

	"github.com/google/uuid"
)

// InspectionRecord is a food-service facility inspection snapshot.
// PermitNumber is the primary key.
type InspectionRecord struct {
	ScoreRecent float64    `json:"ScoreRecent" db:"ScoreRecent"`
	GradeRecent string     `json:"GradeRecent" db:"GradeRecent"`
	DateRecent  *time.Time `json:"DateRecent" db:"DateRecent"`
	Score2      *float64   `json:"Score2" db:"Score2"`
	Grade2      *string    `json:"Grade2" db:"Grade2"`
	Date2       *time.Time `json:"Date2" db:"Date2"`
	Score3      *float64   `json:"Score3" db:"Score3"`
	Grade3      *string    `json:"Grade3" db:"Grade3"`
	Date3       *time.Time `json:"Date3" db:"Date3"`

	PermitNumber            int64      `json:"permit_number" db:"permit_number"`
	FacilityType            int64      `json:"facility_type" db:"facility_type"`
	FacilityTypeDescription string     `json:"facility_type_description" db:"facility_type_description"`
	Subtype                 int64      `json:"subtype" db:"subtype"`
	SubtypeDescription      string     `json:"subtype_description" db:"subtype_description"`
	PremiseName             string     `json:"premise_name" db:"premise_name"`
	PremiseAddress          string     `json:"premise_address" db:"premise_address"`
	PremiseCity             string     `json:"premise_city" db:"premise_city"`
	PremiseState            string     `json:"premise_state" db:"premise_state"`
	PremiseZip              int64      `json:"premise_zip" db:"premise_zip"`
	OpeningDate             *time.Time `json:"opening_date" db:"opening_date"`
}

// PlaceRecord is a geocoded place. Coordinates are stored as
// degree/minute/second triples with a hemisphere flag.
type PlaceRecord struct {
	ID   int64   `json:"Id" db:"Id"`
	LatD float64 `json:"LatD" db:"LatD"`
	LatM float64 `json:"LatM" db:"LatM"`
	LatS float64 `json:"LatS" db:"LatS"`
	NS   string  `json:"NS" db:"NS"` // "N" or "S"
	LonD float64 `json:"LonD" db:"LonD"`
	LonM float64 `json:"LonM" db:"LonM"`
	LonS float64 `json:"LonS" db:"LonS"`
	EW   string  `json:"EW" db:"EW"` // "E" or "W"

	City  string `json:"City" db:"City"`
	State string `json:"State" db:"State"`
}

// AccessEvent describes one served gateway request. It is published to the
// access log topic when that feature is enabled.
type AccessEvent struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	Route      string    `json:"route"`
	Query      string    `json:"query,omitempty"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewAccessEvent stamps a new event with a random ID and the current time.
func NewAccessEvent(method, route, query string, status int, duration time.Duration, requestID string) AccessEvent {
	return AccessEvent{
		ID:         uuid.NewString(),
		Method:     method,
		Route:      route,
		Query:      query,
		Status:     status,
		DurationMS: duration.Milliseconds(),
		RequestID:  requestID,
		OccurredAt: eventClock.Now().UTC(),
	}
}
