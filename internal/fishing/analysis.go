package fishing

import (
	"sort"
	"time"

	"seafoodpulse/internal/dataprocessing"
	"seafoodpulse/pkg/contracts/domain"
)

// Flatten lifts the vessel and port blocks onto each event, parses the
// timestamps and fills in a missing duration from start and end.
func Flatten(events []domain.FishingEvent, processingDate time.Time) []domain.FlatEvent {
	out := make([]domain.FlatEvent, 0, len(events))
	for _, e := range events {
		f := domain.FlatEvent{
			EventID:        e.EventID,
			EventType:      e.EventType,
			StartTime:      parseTime(e.Start),
			EndTime:        parseTime(e.End),
			DurationHours:  e.DurationHours,
			ProcessingDate: processingDate,
		}
		if v := e.Vessel; v != nil {
			f.VesselID, f.VesselSSVID, f.VesselName = v.ID, v.SSVID, v.Name
			f.VesselFlag, f.VesselClass = v.Flag, v.VesselClass
		}
		if p := e.Port; p != nil {
			f.PortID, f.PortName, f.PortCountry = p.ID, p.Name, p.Country
			if len(p.Coordinates) >= 2 {
				lon, lat := p.Coordinates[0], p.Coordinates[1]
				f.PortLongitude, f.PortLatitude = &lon, &lat
			}
		}
		if f.DurationHours == nil && f.StartTime != nil && f.EndTime != nil {
			d := f.EndTime.Sub(*f.StartTime).Hours()
			f.DurationHours = &d
		}
		out = append(out, f)
	}
	return out
}

// PortVisits keeps the port_visit events
func PortVisits(events []domain.FlatEvent) []domain.FlatEvent {
	var visits []domain.FlatEvent
	for _, e := range events {
		if e.EventType == domain.EventTypePortVisit {
			visits = append(visits, e)
		}
	}
	return visits
}

func validDuration(d *float64) bool {
	return d != nil && *d > 0 && *d <= MaxDurationHours
}

func percentOf(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return dataprocessing.Round2(float64(n) / float64(total) * 100)
}

// QualityReport counts missing critical fields, implausible durations and
// distinct identifiers.
func QualityReport(name string, events []domain.FlatEvent) domain.EventQualityReport {
	report := domain.EventQualityReport{Name: name, TotalRecords: len(events)}

	var eventIDs, eventTypes, vesselIDs, starts, portIDs int
	uniqueEvents := map[string]struct{}{}
	uniqueVessels := map[string]struct{}{}
	uniquePorts := map[string]struct{}{}

	for _, e := range events {
		if e.EventID == "" {
			eventIDs++
		} else {
			uniqueEvents[e.EventID] = struct{}{}
		}
		if e.EventType == "" {
			eventTypes++
		}
		if e.VesselID == "" {
			vesselIDs++
		} else {
			uniqueVessels[e.VesselID] = struct{}{}
		}
		if e.StartTime == nil {
			starts++
		}
		if e.PortID == "" {
			portIDs++
		} else {
			report.ValidPortRecords++
			uniquePorts[e.PortID] = struct{}{}
		}
		if !validDuration(e.DurationHours) {
			report.InvalidDuration++
		}
	}

	total := len(events)
	report.Nulls = []domain.FieldNulls{
		{Field: "event_id", Nulls: eventIDs, Percent: percentOf(eventIDs, total)},
		{Field: "event_type", Nulls: eventTypes, Percent: percentOf(eventTypes, total)},
		{Field: "vessel_id", Nulls: vesselIDs, Percent: percentOf(vesselIDs, total)},
		{Field: "start_time", Nulls: starts, Percent: percentOf(starts, total)},
		{Field: "port_id", Nulls: portIDs, Percent: percentOf(portIDs, total)},
	}
	report.UniqueEvents = len(uniqueEvents)
	report.UniqueVessels = len(uniqueVessels)
	report.UniquePorts = len(uniquePorts)
	return report
}

// PreparePortAnalysis keeps visits with a port, vessel, start time and a
// plausible duration, and adds calendar columns derived from the start.
func PreparePortAnalysis(visits []domain.FlatEvent) []domain.PortVisit {
	var out []domain.PortVisit
	for _, v := range visits {
		if v.PortID == "" || v.PortName == "" || v.VesselID == "" || v.StartTime == nil || !validDuration(v.DurationHours) {
			continue
		}
		start := *v.StartTime
		out = append(out, domain.PortVisit{
			FlatEvent:    v,
			VisitDate:    start.Format("2006-01-02"),
			VisitMonth:   start.Format("2006-01"),
			VisitYear:    start.Year(),
			DurationDays: *v.DurationHours / 24,
		})
	}
	return out
}

// CountrySummaries aggregates visits per port country, busiest first
func CountrySummaries(visits []domain.PortVisit) []domain.CountrySummary {
	type acc struct {
		summary domain.CountrySummary
		ports   map[string]struct{}
		vessels map[string]struct{}
	}
	byCountry := map[string]*acc{}
	for _, v := range visits {
		a, ok := byCountry[v.PortCountry]
		if !ok {
			a = &acc{
				summary: domain.CountrySummary{Country: v.PortCountry},
				ports:   map[string]struct{}{},
				vessels: map[string]struct{}{},
			}
			byCountry[v.PortCountry] = a
		}
		a.summary.TotalVisits++
		a.summary.TotalDurationHours += *v.DurationHours
		a.ports[v.PortID] = struct{}{}
		a.vessels[v.VesselID] = struct{}{}
	}

	out := make([]domain.CountrySummary, 0, len(byCountry))
	for _, a := range byCountry {
		s := a.summary
		s.UniquePorts = len(a.ports)
		s.UniqueVessels = len(a.vessels)
		s.AvgDurationHours = s.TotalDurationHours / float64(s.TotalVisits)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalVisits != out[j].TotalVisits {
			return out[i].TotalVisits > out[j].TotalVisits
		}
		return out[i].Country < out[j].Country
	})
	return out
}

type portKey struct {
	id, name, country string
	lat, lon          float64
	hasLat, hasLon    bool
}

func keyOf(v domain.PortVisit) portKey {
	k := portKey{id: v.PortID, name: v.PortName, country: v.PortCountry}
	if v.PortLatitude != nil {
		k.lat, k.hasLat = *v.PortLatitude, true
	}
	if v.PortLongitude != nil {
		k.lon, k.hasLon = *v.PortLongitude, true
	}
	return k
}

// PortSummaries aggregates visits per port, most visited first
func PortSummaries(visits []domain.PortVisit, processingDate time.Time) []domain.PortSummary {
	type acc struct {
		summary domain.PortSummary
		vessels map[string]struct{}
	}
	byPort := map[portKey]*acc{}
	var order []portKey
	for _, v := range visits {
		k := keyOf(v)
		a, ok := byPort[k]
		if !ok {
			a = &acc{
				summary: domain.PortSummary{
					PortID:         v.PortID,
					PortName:       v.PortName,
					PortCountry:    v.PortCountry,
					PortLatitude:   v.PortLatitude,
					PortLongitude:  v.PortLongitude,
					FirstVisit:     *v.StartTime,
					LastVisit:      *v.StartTime,
					ProcessingDate: processingDate,
				},
				vessels: map[string]struct{}{},
			}
			byPort[k] = a
			order = append(order, k)
		}
		a.summary.VisitCount++
		a.summary.TotalTradeHours += *v.DurationHours
		a.vessels[v.VesselID] = struct{}{}
		if v.StartTime.Before(a.summary.FirstVisit) {
			a.summary.FirstVisit = *v.StartTime
		}
		if v.StartTime.After(a.summary.LastVisit) {
			a.summary.LastVisit = *v.StartTime
		}
	}

	out := make([]domain.PortSummary, 0, len(order))
	for _, k := range order {
		s := byPort[k].summary
		s.UniqueVessels = len(byPort[k].vessels)
		s.AvgStayHours = s.TotalTradeHours / float64(s.VisitCount)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].VisitCount != out[j].VisitCount {
			return out[i].VisitCount > out[j].VisitCount
		}
		return out[i].PortID < out[j].PortID
	})
	return out
}

// BuildProcessingReport summarizes a run. Vessels and the date range are
// taken from all events; ports and countries from the analysed visits.
func BuildProcessingReport(events []domain.FlatEvent, analysis []domain.PortVisit, now time.Time) domain.ProcessingReport {
	report := domain.ProcessingReport{
		ProcessingDate:       now.Format("2006-01-02"),
		ProcessingTimestamp:  now,
		TotalEventsProcessed: len(events),
		PortVisitsProcessed:  len(analysis),
	}

	vessels := map[string]struct{}{}
	portVisits := 0
	for _, e := range events {
		if e.VesselID != "" {
			vessels[e.VesselID] = struct{}{}
		}
		if e.EventType == domain.EventTypePortVisit {
			portVisits++
		}
		if e.StartTime == nil {
			continue
		}
		if report.DateRange.EarliestEvent == nil || e.StartTime.Before(*report.DateRange.EarliestEvent) {
			t := *e.StartTime
			report.DateRange.EarliestEvent = &t
		}
		if report.DateRange.LatestEvent == nil || e.StartTime.After(*report.DateRange.LatestEvent) {
			t := *e.StartTime
			report.DateRange.LatestEvent = &t
		}
	}

	ports := map[string]struct{}{}
	countries := map[string]struct{}{}
	for _, v := range analysis {
		ports[v.PortID] = struct{}{}
		if v.PortCountry != "" {
			countries[v.PortCountry] = struct{}{}
		}
	}

	report.UniqueVessels = len(vessels)
	report.UniquePorts = len(ports)
	report.UniqueCountries = len(countries)
	report.DataQuality.ValidPortVisitsPercentage = percentOf(len(analysis), portVisits)
	return report
}
