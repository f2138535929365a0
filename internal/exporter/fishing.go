package exporter

import (
	"fmt"
	"log/slog"

	"seafoodpulse/pkg/contracts/domain"
)

var flatEventHeaders = []string{
	"event_id", "event_type",
	"vessel_id", "vessel_ssvid", "vessel_name", "vessel_flag", "vessel_class",
	"port_id", "port_name", "port_country", "port_longitude", "port_latitude",
	"start_time", "end_time", "duration_hours", "processing_date",
}

func flatEventRow(e domain.FlatEvent) []string {
	return []string{
		e.EventID, e.EventType,
		e.VesselID, e.VesselSSVID, e.VesselName, e.VesselFlag, e.VesselClass,
		e.PortID, e.PortName, e.PortCountry,
		formatCoordinate(e.PortLongitude), formatCoordinate(e.PortLatitude),
		formatTime(e.StartTime), formatTime(e.EndTime),
		formatOptionalFloat(e.DurationHours),
		formatTime(&e.ProcessingDate),
	}
}

// WriteFlatEvents streams flattened fishing events row by row. Exports
// run to tens of thousands of events.
func (w *CSVWriter) WriteFlatEvents(filePath string, events []domain.FlatEvent) error {
	sw, err := w.CreateStreamWriter(filePath, flatEventHeaders)
	if err != nil {
		return err
	}
	for i, e := range events {
		if err := sw.WriteRecord(flatEventRow(e)); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write event %d: %w", i, err)
		}
	}
	slog.Debug("Streamed flat events",
		slog.String("file_path", filePath),
		slog.Int("record_count", sw.Rows()))
	return sw.Close()
}

// WritePortVisits writes the port visit analysis table
func (w *CSVWriter) WritePortVisits(filePath string, visits []domain.PortVisit) error {
	headers := append(append([]string{}, flatEventHeaders...),
		"visit_date", "visit_month", "visit_year", "duration_days")

	rows := make([][]string, len(visits))
	for i, v := range visits {
		rows[i] = append(flatEventRow(v.FlatEvent),
			v.VisitDate, v.VisitMonth, formatInt(v.VisitYear), formatFloat(v.DurationDays))
	}
	return w.WriteSimpleCSV(filePath, headers, rows)
}

// WritePortSummaries writes per-port statistics
func (w *CSVWriter) WritePortSummaries(filePath string, ports []domain.PortSummary) error {
	headers := []string{
		"port_id", "port_name", "port_country", "port_latitude", "port_longitude",
		"visit_count", "unique_vessels", "avg_stay_hours", "total_trade_hours",
		"first_visit", "last_visit", "processing_date",
	}

	rows := make([][]string, len(ports))
	for i, p := range ports {
		rows[i] = []string{
			p.PortID, p.PortName, p.PortCountry,
			formatCoordinate(p.PortLatitude), formatCoordinate(p.PortLongitude),
			formatInt(p.VisitCount), formatInt(p.UniqueVessels),
			formatFloat(p.AvgStayHours), formatFloat(p.TotalTradeHours),
			formatTime(&p.FirstVisit), formatTime(&p.LastVisit), formatTime(&p.ProcessingDate),
		}
	}
	return w.WriteSimpleCSV(filePath, headers, rows)
}

// WriteCountrySummaries writes per-country visit statistics
func (w *CSVWriter) WriteCountrySummaries(filePath string, countries []domain.CountrySummary) error {
	headers := []string{
		"port_country", "total_visits", "unique_ports", "unique_vessels",
		"avg_duration_hours", "total_duration_hours",
	}

	rows := make([][]string, len(countries))
	for i, c := range countries {
		rows[i] = []string{
			c.Country, formatInt(c.TotalVisits), formatInt(c.UniquePorts), formatInt(c.UniqueVessels),
			formatFloat(c.AvgDurationHours), formatFloat(c.TotalDurationHours),
		}
	}
	return w.WriteSimpleCSV(filePath, headers, rows)
}
