package fulfillment

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/logger"
)

const applicationSubmitted = "submitted"

// Visit is a requested shelter visit.
type Visit struct {
	ConversationID string
	CandidateID    string
	CandidateName  string
	ShelterName    string
	Date           string
	Time           string
}

// Application is an adoption application. Applicant details never leave the delegate.
type Application struct {
	ConversationID string
	CandidateID    string
	CandidateName  string
	ApplicantName  string
	ApplicantEmail string
	ApplicantPhone string
}

// Delegate performs the side effects of booking visits and filing applications.
type Delegate interface {
	ScheduleVisit(ctx context.Context, visit Visit) error
	SubmitApplication(ctx context.Context, app Application) error
}

// LogDelegate records side effects in the log without contacting shelters.
type LogDelegate struct {
	logger *zap.Logger
}

func NewLogDelegate(log *zap.Logger) *LogDelegate {
	return &LogDelegate{logger: logger.WithFields(log).Named("delegate")}
}

func (l *LogDelegate) ScheduleVisit(_ context.Context, visit Visit) error {
	l.logger.Info("visit requested",
		zap.String(logger.FieldConversation, visit.ConversationID),
		zap.String(logger.FieldCandidate, visit.CandidateID),
		zap.String("date", visit.Date),
		zap.String("time", visit.Time),
	)
	return nil
}

func (l *LogDelegate) SubmitApplication(_ context.Context, app Application) error {
	l.logger.Info("application submitted",
		zap.String(logger.FieldConversation, app.ConversationID),
		zap.String(logger.FieldCandidate, app.CandidateID),
		zap.Bool("has_contact", app.ApplicantEmail != "" || app.ApplicantPhone != ""),
	)
	return nil
}
