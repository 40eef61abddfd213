package jobs

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/notify"
)

// UnfilledSweep scans the coming week for (date, role) slots whose primary
// is missing or already reported absent with an exhausted cascade, and
// composes an operator reminder per slot. Re-running converges: the sink
// receives one draft per still-open slot per sweep.
func UnfilledSweep(database *sql.DB, sink notify.Sink, log *zap.Logger, loc *time.Location) Job {
	return func(ctx context.Context) error {
		now := time.Now().In(loc)
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, 7)

		dates, err := db.ListDatesInRange(ctx, database, from, to)
		if err != nil {
			return err
		}
		for _, d := range dates {
			for _, role := range d.Roles {
				slot, err := db.GetSlot(ctx, database, d.ID, role)
				if err == db.ErrSlotNotFound {
					draft := notify.UnfilledReminder(d.Date.Format("2006-01-02"), role)
					if err := sink.Deliver(ctx, draft); err != nil {
						log.Error("reminder delivery failed", zap.Error(err))
					}
					continue
				}
				if err != nil {
					return err
				}
				if openSlot(slot) {
					draft := notify.UnfilledReminder(d.Date.Format("2006-01-02"), role)
					if err := sink.Deliver(ctx, draft); err != nil {
						log.Error("reminder delivery failed", zap.Error(err))
					}
				}
			}
		}
		return nil
	}
}

// openSlot: no primary row, or primary absent with every backup absent too.
func openSlot(slot *db.Slot) bool {
	if slot.Primary == nil {
		return true
	}
	if slot.Primary.Status != models.StatusAbsent {
		return false
	}
	for _, b := range []*models.AssignmentRecord{slot.Backup1, slot.Backup2} {
		if b != nil && b.Status != models.StatusAbsent {
			return false
		}
	}
	return true
}
