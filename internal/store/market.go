package store

import (
	"context"
	"database/sql"
	"strings"

	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/pkg/contracts/domain"
)

// ReplaceMarketRecords swaps the whole combined table for records in one
// transaction.
func (s *Store) ReplaceMarketRecords(ctx context.Context, records []domain.EnrichedRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM market_records"); err != nil {
			return apperrors.NewStorageError("clear market records", err)
		}

		stmt, err := tx.PrepareContext(ctx, s.rebind(
			"INSERT INTO market_records ("+marketColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
		if err != nil {
			return apperrors.NewStorageError("prepare insert", err)
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx,
				r.Week, string(r.Category), r.Market,
				r.CurrentVolume, r.CurrentPrice, r.PriorVolume, r.PriorPrice,
				r.YTDCurrentVolume, r.YTDCurrentPrice, r.YTDPriorVolume, r.YTDPriorPrice,
				r.VolumeGrowthPercent, r.PriceChangePercent,
			); err != nil {
				return apperrors.NewStorageError("insert market record", err).
					WithContext("market", r.Market).
					WithContext("week", r.Week)
			}
		}
		return nil
	})
}

// MarketRecords returns stored records matching filter in insertion order.
// Zero-valued filter fields match everything.
func (s *Store) MarketRecords(ctx context.Context, filter domain.MarketFilter) ([]domain.EnrichedRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Week > 0 {
		where = append(where, "week = ?")
		args = append(args, filter.Week)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Market != "" {
		where = append(where, "market = ?")
		args = append(args, filter.Market)
	}

	query := "SELECT " + marketColumns + " FROM market_records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, apperrors.NewStorageError("query market records", err)
	}
	defer rows.Close()

	records := []domain.EnrichedRecord{}
	for rows.Next() {
		var r domain.EnrichedRecord
		var category string
		if err := rows.Scan(
			&r.Week, &category, &r.Market,
			&r.CurrentVolume, &r.CurrentPrice, &r.PriorVolume, &r.PriorPrice,
			&r.YTDCurrentVolume, &r.YTDCurrentPrice, &r.YTDPriorVolume, &r.YTDPriorPrice,
			&r.VolumeGrowthPercent, &r.PriceChangePercent,
		); err != nil {
			return nil, apperrors.NewStorageError("scan market record", err)
		}
		r.Category = domain.Category(category)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate market records", err)
	}
	return records, nil
}

// Weeks lists the distinct weeks in ascending order
func (s *Store) Weeks(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT week FROM market_records ORDER BY week")
	if err != nil {
		return nil, apperrors.NewStorageError("query weeks", err)
	}
	defer rows.Close()

	weeks := []int{}
	for rows.Next() {
		var w int
		if err := rows.Scan(&w); err != nil {
			return nil, apperrors.NewStorageError("scan week", err)
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

// Categories lists the distinct categories in ascending order
func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT category FROM market_records ORDER BY category")
	if err != nil {
		return nil, apperrors.NewStorageError("query categories", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, apperrors.NewStorageError("scan category", err)
		}
		categories = append(categories, domain.Category(c))
	}
	return categories, rows.Err()
}
