package domain

import (
	"time"
)

// EventTypePortVisit is the event type used for port visit analysis
const EventTypePortVisit = "port_visit"

// Vessel is the vessel block of a fishing event export
type Vessel struct {
	ID          string `json:"id"`
	SSVID       string `json:"ssvid"`
	Name        string `json:"name"`
	Flag        string `json:"flag"`
	VesselClass string `json:"vessel_class"`
}

// Port is the port block of a fishing event export. Coordinates are [lon, lat].
type Port struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	Coordinates []float64 `json:"coordinates"`
}

// FishingEvent is one raw event as exported by the events API
type FishingEvent struct {
	EventID       string   `json:"event_id"`
	EventType     string   `json:"event_type"`
	Vessel        *Vessel  `json:"vessel"`
	Port          *Port    `json:"port"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	DurationHours *float64 `json:"duration_hours"`
}

// FlatEvent is a FishingEvent with nested blocks lifted to columns and
// timestamps parsed. Nil pointers mark missing values.
type FlatEvent struct {
	EventID        string     `json:"event_id"`
	EventType      string     `json:"event_type"`
	VesselID       string     `json:"vessel_id"`
	VesselSSVID    string     `json:"vessel_ssvid"`
	VesselName     string     `json:"vessel_name"`
	VesselFlag     string     `json:"vessel_flag"`
	VesselClass    string     `json:"vessel_class"`
	PortID         string     `json:"port_id"`
	PortName       string     `json:"port_name"`
	PortCountry    string     `json:"port_country"`
	PortLongitude  *float64   `json:"port_longitude"`
	PortLatitude   *float64   `json:"port_latitude"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	DurationHours  *float64   `json:"duration_hours"`
	ProcessingDate time.Time  `json:"processing_date"`
}

// PortVisit is a validated port visit enriched with calendar columns
type PortVisit struct {
	FlatEvent
	VisitDate    string  `json:"visit_date"`
	VisitMonth   string  `json:"visit_month"`
	VisitYear    int     `json:"visit_year"`
	DurationDays float64 `json:"duration_days"`
}

// CountrySummary aggregates port visits per port country
type CountrySummary struct {
	Country            string  `json:"port_country"`
	TotalVisits        int     `json:"total_visits"`
	UniquePorts        int     `json:"unique_ports"`
	UniqueVessels      int     `json:"unique_vessels"`
	AvgDurationHours   float64 `json:"avg_duration_hours"`
	TotalDurationHours float64 `json:"total_duration_hours"`
}

// PortSummary aggregates port visits per port
type PortSummary struct {
	PortID          string    `json:"port_id" db:"port_id"`
	PortName        string    `json:"port_name" db:"port_name"`
	PortCountry     string    `json:"port_country" db:"port_country"`
	PortLatitude    *float64  `json:"port_latitude" db:"port_latitude"`
	PortLongitude   *float64  `json:"port_longitude" db:"port_longitude"`
	VisitCount      int       `json:"visit_count" db:"visit_count"`
	UniqueVessels   int       `json:"unique_vessels" db:"unique_vessels"`
	AvgStayHours    float64   `json:"avg_stay_hours" db:"avg_stay_hours"`
	TotalTradeHours float64   `json:"total_trade_hours" db:"total_trade_hours"`
	FirstVisit      time.Time `json:"first_visit" db:"first_visit"`
	LastVisit       time.Time `json:"last_visit" db:"last_visit"`
	ProcessingDate  time.Time `json:"processing_date" db:"processing_date"`
}

// FieldNulls counts missing values of a single column
type FieldNulls struct {
	Field   string  `json:"field"`
	Nulls   int     `json:"nulls"`
	Percent float64 `json:"percent"`
}

// EventQualityReport is the data-quality report for a set of flat events
type EventQualityReport struct {
	Name             string       `json:"name"`
	TotalRecords     int          `json:"total_records"`
	Nulls            []FieldNulls `json:"nulls"`
	ValidPortRecords int          `json:"valid_port_records"`
	InvalidDuration  int          `json:"invalid_duration_records"`
	UniqueEvents     int          `json:"unique_events"`
	UniqueVessels    int          `json:"unique_vessels"`
	UniquePorts      int          `json:"unique_ports"`
}

// ProcessingReport summarizes one fishing events processing run
type ProcessingReport struct {
	ProcessingDate       string            `json:"processing_date"`
	ProcessingTimestamp  time.Time         `json:"processing_timestamp"`
	TotalEventsProcessed int               `json:"total_events_processed"`
	PortVisitsProcessed  int               `json:"port_visits_processed"`
	UniqueVessels        int               `json:"unique_vessels"`
	UniquePorts          int               `json:"unique_ports"`
	UniqueCountries      int               `json:"unique_countries"`
	DateRange            EventDateRange    `json:"date_range"`
	DataQuality          ReportDataQuality `json:"data_quality"`
}

// EventDateRange is the span of event start times
type EventDateRange struct {
	EarliestEvent *time.Time `json:"earliest_event"`
	LatestEvent   *time.Time `json:"latest_event"`
}

// ReportDataQuality holds run-level quality ratios
type ReportDataQuality struct {
	ValidPortVisitsPercentage float64 `json:"valid_port_visits_percentage"`
}
