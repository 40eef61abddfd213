package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fishnet-edu/fishnet/internal/models"
)

func ListDatesInRange(ctx context.Context, database *sql.DB, from, to time.Time) ([]models.ScheduledDate, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, event_date, roles
		FROM scheduled_dates
		WHERE event_date >= $1 AND event_date < $2
		ORDER BY event_date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduledDate
	for rows.Next() {
		d, err := scanDate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func GetDateByID(ctx context.Context, database *sql.DB, id int64) (*models.ScheduledDate, error) {
	row := database.QueryRowContext(ctx, `SELECT id, event_date, roles FROM scheduled_dates WHERE id = $1`, id)
	return scanDate(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDate(r rowScanner) (*models.ScheduledDate, error) {
	var d models.ScheduledDate
	var rolesRaw string
	if err := r.Scan(&d.ID, &d.Date, &rolesRaw); err != nil {
		return nil, err
	}
	for _, code := range strings.Split(rolesRaw, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		role, err := models.ParseRole(code)
		if err != nil {
			return nil, err
		}
		d.Roles = append(d.Roles, role)
	}
	return &d, nil
}

func joinRoles(roles []models.Role) string {
	codes := make([]string, len(roles))
	for i, r := range roles {
		codes[i] = string(r)
	}
	return strings.Join(codes, ",")
}

// CreateScheduledDate is idempotent on event_date; the role list of an
// existing date is replaced, which is what re-running a sheet import wants.
func CreateScheduledDate(ctx context.Context, database *sql.DB, date time.Time, roles []models.Role) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO scheduled_dates (event_date, roles)
		VALUES ($1, $2)
		ON CONFLICT (event_date) DO UPDATE SET roles = EXCLUDED.roles
		RETURNING id`, date, joinRoles(roles)).Scan(&id)
	return id, err
}
