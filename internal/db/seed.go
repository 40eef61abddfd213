package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/fishnet-edu/fishnet/internal/models"
)

// SeedDev loads a tiny roster and four Sundays for local development.
// No-op when students already exist.
func SeedDev(ctx context.Context, database *sql.DB, loc *time.Location) error {
	var n int
	if err := database.QueryRowContext(ctx, `SELECT count(*) FROM students`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	str := func(s string) *string { return &s }
	students := []struct {
		name       string
		secondary  *string
		grade      *string
		instrument bool
		newMember  bool
	}{
		{"김하늘", str("마리아"), str("중2"), true, false},
		{"김하늘", nil, str("중2"), false, false},
		{"이서준", nil, str("중1"), false, true},
		{"박지민", str("요한"), str("중3"), true, false},
		{"최유나", nil, str("중3"), false, false},
	}
	for _, s := range students {
		if _, err := database.ExecContext(ctx, `
			INSERT INTO students (name, secondary_name, grade, can_play_instrument, is_new_member)
			VALUES ($1, $2, $3, $4, $5)`,
			s.name, s.secondary, s.grade, s.instrument, s.newMember); err != nil {
			return err
		}
	}

	sunday := nextSunday(time.Now().In(loc))
	roles := []models.Role{models.RoleReading, models.RoleAccompaniment, models.RolePrayer}
	for i := 0; i < 4; i++ {
		if _, err := CreateScheduledDate(ctx, database, sunday.AddDate(0, 0, 7*i), roles); err != nil {
			return err
		}
	}
	return nil
}

func nextSunday(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
