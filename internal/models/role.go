package models

import "fmt"

// Role is the canonical role code used everywhere inside the engine.
// Display labels exist only at the boundary (export, notifications).
type Role string

const (
	RoleReading       Role = "reading"
	RoleAccompaniment Role = "accompaniment"
	RolePrayer        Role = "prayer"
)

var roleLabels = map[Role]string{
	RoleReading:       "성경봉독",
	RoleAccompaniment: "반주",
	RolePrayer:        "대표기도",
}

// aliases seen in imported sheets and older exports
var roleAliases = map[string]Role{
	"reading":       RoleReading,
	"accompaniment": RoleAccompaniment,
	"prayer":        RolePrayer,
	"성경봉독":          RoleReading,
	"봉독":            RoleReading,
	"반주":            RoleAccompaniment,
	"대표기도":          RolePrayer,
	"기도":            RolePrayer,
}

func ParseRole(s string) (Role, error) {
	if r, ok := roleAliases[s]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// RequiresInstrument reports whether every assignee of the role,
// primary or backup, must be instrument-capable.
func (r Role) RequiresInstrument() bool { return r == RoleAccompaniment }

// LowestDifficulty reports whether the role is open to new members.
func (r Role) LowestDifficulty() bool { return r == RolePrayer }
