package store

import (
	"context"
	"time"

	"participation-system/models"
)

// Store is the typed accessor layer over the entity collections. It
// holds no business logic; services compose its calls inside a
// transaction scope.
type Store interface {
	// RunInTransaction runs fn against a transactional view of the
	// store. Any error from fn rolls every write back.
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Events
	EventByID(ctx context.Context, id string) (*models.Event, error)
	EventsByIDs(ctx context.Context, ids []string) ([]models.Event, error)
	SearchEventsByName(ctx context.Context, name string) ([]models.Event, error)
	EventsByOrganization(ctx context.Context, organizationID string) ([]models.Event, error)
	EventsByTag(ctx context.Context, tagID string) ([]models.Event, error)
	EventsByFacility(ctx context.Context, facilityID string) ([]models.Event, error)
	EventsByLocation(ctx context.Context, locationID string) ([]models.Event, error)
	UpcomingEvents(ctx context.Context, ref time.Time) ([]models.Event, error)
	SuggestedEvents(ctx context.Context, n int) ([]models.Event, error)

	// Durations
	MinDurationStart(ctx context.Context, eventID string) (time.Time, error)
	DurationsByEvent(ctx context.Context, eventID string) ([]models.EventDuration, error)

	// Memberships
	UserEventByID(ctx context.Context, id string) (*models.UserEvent, error)
	UserEventByUserAndEvent(ctx context.Context, userID, eventID string) (*models.UserEvent, error)
	CreateUserEvent(ctx context.Context, ue *models.UserEvent) (*models.UserEvent, error)
	UpdateUserEvent(ctx context.Context, ue *models.UserEvent) error
	DeleteUserEvent(ctx context.Context, id string) error
	ActiveMembershipCount(ctx context.Context, eventID string) (int, error)
	MembershipCountsByStatus(ctx context.Context, eventID string) (map[string]int, error)
	RatingsByEvent(ctx context.Context, eventID string) ([]int, error)

	// Surveys
	QuestionGroupsByEventAndType(ctx context.Context, eventID, surveyType string) ([]models.QuestionGroup, error)
	QuestionsByGroups(ctx context.Context, groupIDs []string) ([]models.Question, error)
	AnswersByUserEventAndQuestions(ctx context.Context, userEventID string, questionIDs []string) ([]models.Answer, error)
	CreateAnswers(ctx context.Context, answers []models.Answer) ([]models.Answer, error)

	// Feedback
	CreateFeedback(ctx context.Context, f *models.Feedback) (*models.Feedback, error)
	DeleteFeedback(ctx context.Context, id string) error
	FeedbacksByEvent(ctx context.Context, eventID string) ([]models.Feedback, error)
}
