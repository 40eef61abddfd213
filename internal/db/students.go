package db

import (
	"context"
	"database/sql"

	"github.com/fishnet-edu/fishnet/internal/models"
)

func ListActiveStudents(ctx context.Context, database *sql.DB) ([]models.Student, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, name, secondary_name, grade, can_play_instrument, is_new_member, gender, is_active
		FROM students
		WHERE is_active
		ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.SecondaryName, &s.Grade, &s.CanPlayInstrument, &s.IsNewMember, &s.Gender, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func GetStudent(ctx context.Context, database *sql.DB, id int64) (*models.Student, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, name, secondary_name, grade, can_play_instrument, is_new_member, gender, is_active
		FROM students WHERE id = $1`, id)
	var s models.Student
	if err := row.Scan(&s.ID, &s.Name, &s.SecondaryName, &s.Grade, &s.CanPlayInstrument, &s.IsNewMember, &s.Gender, &s.IsActive); err != nil {
		return nil, err
	}
	return &s, nil
}
