package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/fishnet-edu/fishnet/internal/models"
)

// ListAvailabilityForDates reads survey responses for a set of dates. The
// scheduling run only reads this table; writes belong to the importer.
func ListAvailabilityForDates(ctx context.Context, database *sql.DB, dateIDs []int64) ([]models.AvailabilityResponse, error) {
	if len(dateIDs) == 0 {
		return nil, nil
	}
	q := `
		SELECT student_id, date_id, status, comment
		FROM availability_responses
		WHERE date_id = ANY($1)
		ORDER BY date_id, student_id`
	rows, err := database.QueryContext(ctx, q, pq.Array(dateIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AvailabilityResponse
	for rows.Next() {
		var a models.AvailabilityResponse
		if err := rows.Scan(&a.StudentID, &a.DateID, &a.Status, &a.Comment); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAvailability exists for the survey importer, keyed by the
// (student, date) composite so re-imports converge.
func UpsertAvailability(ctx context.Context, database *sql.DB, a models.AvailabilityResponse) error {
	switch a.Status {
	case models.Available, models.Unavailable, models.Uncertain:
	default:
		return fmt.Errorf("bad availability status %q", a.Status)
	}
	_, err := database.ExecContext(ctx, `
		INSERT INTO availability_responses (student_id, date_id, status, comment, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (student_id, date_id)
		DO UPDATE SET status = EXCLUDED.status, comment = EXCLUDED.comment, updated_at = now()`,
		a.StudentID, a.DateID, a.Status, a.Comment)
	return err
}
