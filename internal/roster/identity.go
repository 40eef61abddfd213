package roster

import (
	"fmt"

	"github.com/fishnet-edu/fishnet/internal/models"
)

// ErrIdentityCollision is fatal for a scheduling run: every downstream
// structure (candidate sets, oracle plan, persisted assignments) tracks
// students by display key, so two students merging into one key would
// silently corrupt the whole run.
type ErrIdentityCollision struct {
	Key       string
	FirstID   int64
	SecondID  int64
	FirstName string
}

func (e *ErrIdentityCollision) Error() string {
	return fmt.Sprintf("identity key %q resolves to both student %d and student %d", e.Key, e.FirstID, e.SecondID)
}

// Resolver maps students to collision-free display keys for one run.
// Rebuilt per run; never cached across runs.
type Resolver struct {
	keys map[int64]string
	ids  map[string]int64
}

// KeyFor derives the display key without collision checking. Qualification
// order: baptismal name first, then grade, then the bare name.
func KeyFor(s models.Student) string {
	if s.SecondaryName != nil && *s.SecondaryName != "" {
		return fmt.Sprintf("%s (%s)", s.Name, *s.SecondaryName)
	}
	if s.Grade != nil && *s.Grade != "" {
		return fmt.Sprintf("%s (%s)", s.Name, *s.Grade)
	}
	return s.Name
}

// NewResolver builds the key table for a roster and fails loudly on any
// post-disambiguation collision.
func NewResolver(students []models.Student) (*Resolver, error) {
	r := &Resolver{
		keys: make(map[int64]string, len(students)),
		ids:  make(map[string]int64, len(students)),
	}
	for _, s := range students {
		k := KeyFor(s)
		if prev, ok := r.ids[k]; ok && prev != s.ID {
			return nil, &ErrIdentityCollision{Key: k, FirstID: prev, SecondID: s.ID, FirstName: s.Name}
		}
		r.keys[s.ID] = k
		r.ids[k] = s.ID
	}
	return r, nil
}

// Key returns the display key for a student id. Total over the roster the
// resolver was built from; unknown ids return the empty string.
func (r *Resolver) Key(studentID int64) string { return r.keys[studentID] }

// StudentID resolves a display key back to the roster id.
func (r *Resolver) StudentID(key string) (int64, bool) {
	id, ok := r.ids[key]
	return id, ok
}

// Len reports the roster size the resolver covers.
func (r *Resolver) Len() int { return len(r.keys) }
