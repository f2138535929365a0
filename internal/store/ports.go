package store

import (
	"context"
	"database/sql"
	"time"

	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/pkg/contracts/domain"
)

// SavePortSummaries replaces the stored port summaries
func (s *Store) SavePortSummaries(ctx context.Context, ports []domain.PortSummary) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM port_summaries"); err != nil {
			return apperrors.NewStorageError("clear port summaries", err)
		}

		stmt, err := tx.PrepareContext(ctx, s.rebind(
			"INSERT INTO port_summaries ("+portColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
		if err != nil {
			return apperrors.NewStorageError("prepare insert", err)
		}
		defer stmt.Close()

		for _, p := range ports {
			if _, err := stmt.ExecContext(ctx,
				p.PortID, p.PortName, p.PortCountry,
				nullFloat(p.PortLatitude), nullFloat(p.PortLongitude),
				p.VisitCount, p.UniqueVessels, p.AvgStayHours, p.TotalTradeHours,
				formatTime(p.FirstVisit), formatTime(p.LastVisit), formatTime(p.ProcessingDate),
			); err != nil {
				return apperrors.NewStorageError("insert port summary", err).WithContext("port_id", p.PortID)
			}
		}
		return nil
	})
}

// PortSummaries returns the stored summaries, most visited first
func (s *Store) PortSummaries(ctx context.Context) ([]domain.PortSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+portColumns+" FROM port_summaries ORDER BY visit_count DESC, port_id")
	if err != nil {
		return nil, apperrors.NewStorageError("query port summaries", err)
	}
	defer rows.Close()

	ports := []domain.PortSummary{}
	for rows.Next() {
		var (
			p                        domain.PortSummary
			lat, lon                 sql.NullFloat64
			first, last, processedAt string
		)
		if err := rows.Scan(
			&p.PortID, &p.PortName, &p.PortCountry, &lat, &lon,
			&p.VisitCount, &p.UniqueVessels, &p.AvgStayHours, &p.TotalTradeHours,
			&first, &last, &processedAt,
		); err != nil {
			return nil, apperrors.NewStorageError("scan port summary", err)
		}
		p.PortLatitude = floatPtr(lat)
		p.PortLongitude = floatPtr(lon)
		if p.FirstVisit, err = parseTime(first); err != nil {
			return nil, err
		}
		if p.LastVisit, err = parseTime(last); err != nil {
			return nil, err
		}
		if p.ProcessingDate, err = parseTime(processedAt); err != nil {
			return nil, err
		}
		ports = append(ports, p)
	}
	return ports, rows.Err()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// Timestamps are stored as RFC 3339 text so both drivers round-trip them
// identically.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, apperrors.NewStorageError("parse stored timestamp "+s, err)
	}
	return t, nil
}
