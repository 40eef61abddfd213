package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fishnet-edu/fishnet/internal/models"
)

// Draft is a composed message plus its recipient key. Delivery itself is an
// external collaborator; the engine only composes and selects.
type Draft struct {
	RecipientKey string
	Body         string
}

type Sink interface {
	Deliver(ctx context.Context, d Draft) error
}

// LogSink is the in-tree sink: it records drafts instead of sending them.
// Production deployments plug the messaging bridge in here.
type LogSink struct {
	Log *zap.Logger
}

func (s *LogSink) Deliver(_ context.Context, d Draft) error {
	s.Log.Info("notification draft",
		zap.String("recipient", d.RecipientKey),
		zap.String("body", d.Body))
	return nil
}

// SubstitutionRequest asks a backup to step in for a reported absence.
func SubstitutionRequest(dateLabel string, role models.Role, backupKey string) Draft {
	body := fmt.Sprintf("[Fish-Net] %s %s 담당자가 불참을 알렸습니다. %s 님, 대신 맡아주실 수 있나요? 가능 여부를 회신해 주세요.",
		dateLabel, role.Label(), backupKey)
	return Draft{RecipientKey: backupKey, Body: body}
}

// UnfilledReminder nudges the operator about a slot with no primary.
func UnfilledReminder(dateLabel string, role models.Role) Draft {
	body := fmt.Sprintf("[Fish-Net] %s %s 담당자가 아직 정해지지 않았습니다. 수동 배정이 필요합니다.",
		dateLabel, role.Label())
	return Draft{RecipientKey: "operator", Body: body}
}
