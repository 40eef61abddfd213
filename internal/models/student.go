package models

type Gender string

const (
	GenderUnknown Gender = "unknown"
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
)

// Student is a read-only roster row for the duration of one scheduling run.
type Student struct {
	ID                int64   `db:"id"`
	Name              string  `db:"name"`
	SecondaryName     *string `db:"secondary_name"` // baptismal/confirmation name
	Grade             *string `db:"grade"`
	CanPlayInstrument bool    `db:"can_play_instrument"`
	IsNewMember       bool    `db:"is_new_member"`
	Gender            Gender  `db:"gender"`
	IsActive          bool    `db:"is_active"`
}
