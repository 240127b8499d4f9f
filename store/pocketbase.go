package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"participation-system/internal/status"
	"participation-system/models"
)

// PocketBase implements Store on top of a core.App. Passing the
// transactional app from RunInTransaction scopes every call to that
// transaction.
type PocketBase struct {
	app core.App
}

func NewPocketBase(app core.App) *PocketBase {
	return &PocketBase{app: app}
}

func (s *PocketBase) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(&PocketBase{app: txApp})
	})
}

// Events

func (s *PocketBase) EventByID(ctx context.Context, id string) (*models.Event, error) {
	record, err := s.app.FindRecordById("events", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.NotFoundf("event %q not found", id)
		}
		return nil, status.Internalf(err, "find event %q", id)
	}
	return eventFromRecord(record), nil
}

func (s *PocketBase) EventsByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records := []*core.Record{}
	err := s.app.RecordQuery("events").
		AndWhere(dbx.In("id", toAny(ids)...)).
		All(&records)
	if err != nil {
		return nil, status.Internalf(err, "find events by ids")
	}
	return eventsFromRecords(records), nil
}

func (s *PocketBase) SearchEventsByName(ctx context.Context, name string) ([]models.Event, error) {
	records, err := s.app.FindRecordsByFilter(
		"events",
		"name ~ {:name}",
		"name",
		-1,
		0,
		dbx.Params{"name": name},
	)
	if err != nil {
		return nil, status.Internalf(err, "search events by name %q", name)
	}
	return eventsFromRecords(records), nil
}

func (s *PocketBase) EventsByOrganization(ctx context.Context, organizationID string) ([]models.Event, error) {
	records, err := s.app.FindRecordsByFilter(
		"events",
		"organization = {:org}",
		"name",
		-1,
		0,
		dbx.Params{"org": organizationID},
	)
	if err != nil {
		return nil, status.Internalf(err, "find events by organization %q", organizationID)
	}
	return eventsFromRecords(records), nil
}

func (s *PocketBase) EventsByTag(ctx context.Context, tagID string) ([]models.Event, error) {
	return s.eventsByJoin(ctx, "event_tags", "tag", tagID)
}

func (s *PocketBase) EventsByFacility(ctx context.Context, facilityID string) ([]models.Event, error) {
	return s.eventsByJoin(ctx, "facility_requests", "facility", facilityID)
}

func (s *PocketBase) EventsByLocation(ctx context.Context, locationID string) ([]models.Event, error) {
	records, err := s.app.FindRecordsByFilter(
		"events",
		"location = {:location}",
		"name",
		-1,
		0,
		dbx.Params{"location": locationID},
	)
	if err != nil {
		return nil, status.Internalf(err, "find events by location %q", locationID)
	}
	return eventsFromRecords(records), nil
}

func (s *PocketBase) eventsByJoin(ctx context.Context, joinTable, joinField, id string) ([]models.Event, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery("events").
		InnerJoin(joinTable, dbx.NewExp(joinTable+".event = events.id")).
		AndWhere(dbx.HashExp{joinTable + "." + joinField: id}).
		All(&records)
	if err != nil {
		return nil, status.Internalf(err, "find events via %s", joinTable)
	}
	return eventsFromRecords(records), nil
}

func (s *PocketBase) UpcomingEvents(ctx context.Context, ref time.Time) ([]models.Event, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery("events").
		InnerJoin("event_durations", dbx.NewExp("event_durations.event = events.id")).
		GroupBy("events.id").
		Having(dbx.NewExp("MIN(event_durations.start) > {:ref}", dbx.Params{"ref": dtString(ref)})).
		All(&records)
	if err != nil {
		return nil, status.Internalf(err, "find upcoming events")
	}
	return eventsFromRecords(records), nil
}

func (s *PocketBase) SuggestedEvents(ctx context.Context, n int) ([]models.Event, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery("events").
		OrderBy("RANDOM()").
		Limit(int64(n)).
		All(&records)
	if err != nil {
		return nil, status.Internalf(err, "sample suggested events")
	}
	return eventsFromRecords(records), nil
}

// Durations

func (s *PocketBase) MinDurationStart(ctx context.Context, eventID string) (time.Time, error) {
	records, err := s.app.FindRecordsByFilter(
		"event_durations",
		"event = {:event}",
		"start",
		1,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return time.Time{}, status.Internalf(err, "find durations for event %q", eventID)
	}
	if len(records) == 0 {
		return time.Time{}, status.NotFoundf("event %q has no scheduled durations", eventID)
	}
	return records[0].GetDateTime("start").Time(), nil
}

func (s *PocketBase) DurationsByEvent(ctx context.Context, eventID string) ([]models.EventDuration, error) {
	records, err := s.app.FindRecordsByFilter(
		"event_durations",
		"event = {:event}",
		"start",
		-1,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, status.Internalf(err, "find durations for event %q", eventID)
	}
	durations := make([]models.EventDuration, 0, len(records))
	for _, r := range records {
		durations = append(durations, models.EventDuration{
			ID:      r.Id,
			EventID: r.GetString("event"),
			Start:   r.GetDateTime("start").Time(),
			Finish:  r.GetDateTime("finish").Time(),
		})
	}
	return durations, nil
}

// Memberships

func (s *PocketBase) UserEventByID(ctx context.Context, id string) (*models.UserEvent, error) {
	record, err := s.app.FindRecordById("user_events", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.NotFoundf("membership %q not found", id)
		}
		return nil, status.Internalf(err, "find membership %q", id)
	}
	return userEventFromRecord(record), nil
}

func (s *PocketBase) UserEventByUserAndEvent(ctx context.Context, userID, eventID string) (*models.UserEvent, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"user_events",
		"user = {:user} && event = {:event}",
		dbx.Params{"user": userID, "event": eventID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.NotFoundf("no membership for user %q on event %q", userID, eventID)
		}
		return nil, status.Internalf(err, "find membership for user %q on event %q", userID, eventID)
	}
	return userEventFromRecord(record), nil
}

func (s *PocketBase) CreateUserEvent(ctx context.Context, ue *models.UserEvent) (*models.UserEvent, error) {
	collection, err := s.app.FindCollectionByNameOrId("user_events")
	if err != nil {
		return nil, status.Internalf(err, "find user_events collection")
	}
	record := core.NewRecord(collection)
	record.Set("user", ue.UserID)
	record.Set("event", ue.EventID)
	record.Set("status", ue.Status)
	if ue.Rating != nil {
		record.Set("rating", *ue.Rating)
	}
	if ue.Ticket != "" {
		record.Set("ticket", ue.Ticket)
	}
	if err := s.app.Save(record); err != nil {
		if isUniqueViolation(err) {
			return nil, status.AlreadyExistsf("user %q already joined event %q", ue.UserID, ue.EventID)
		}
		return nil, status.Internalf(err, "create membership")
	}
	return userEventFromRecord(record), nil
}

func (s *PocketBase) UpdateUserEvent(ctx context.Context, ue *models.UserEvent) error {
	record, err := s.app.FindRecordById("user_events", ue.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.NotFoundf("membership %q not found", ue.ID)
		}
		return status.Internalf(err, "find membership %q", ue.ID)
	}
	record.Set("status", ue.Status)
	record.Set("ticket", ue.Ticket)
	if ue.Rating != nil {
		record.Set("rating", *ue.Rating)
	} else {
		record.Set("rating", nil)
	}
	if err := s.app.Save(record); err != nil {
		return status.Internalf(err, "update membership %q", ue.ID)
	}
	return nil
}

func (s *PocketBase) DeleteUserEvent(ctx context.Context, id string) error {
	record, err := s.app.FindRecordById("user_events", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.NotFoundf("membership %q not found", id)
		}
		return status.Internalf(err, "find membership %q", id)
	}
	if err := s.app.Delete(record); err != nil {
		return status.Internalf(err, "delete membership %q", id)
	}
	return nil
}

func (s *PocketBase) ActiveMembershipCount(ctx context.Context, eventID string) (int, error) {
	count, err := s.app.CountRecords(
		"user_events",
		dbx.HashExp{"event": eventID},
		dbx.In("status", models.StatusPending, models.StatusApproved),
	)
	if err != nil {
		return 0, status.Internalf(err, "count memberships for event %q", eventID)
	}
	return int(count), nil
}

func (s *PocketBase) MembershipCountsByStatus(ctx context.Context, eventID string) (map[string]int, error) {
	records, err := s.app.FindRecordsByFilter(
		"user_events",
		"event = {:event}",
		"",
		-1,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, status.Internalf(err, "find memberships for event %q", eventID)
	}
	counts := map[string]int{}
	for _, r := range records {
		counts[r.GetString("status")]++
	}
	return counts, nil
}

func (s *PocketBase) RatingsByEvent(ctx context.Context, eventID string) ([]int, error) {
	records, err := s.app.FindRecordsByFilter(
		"user_events",
		"event = {:event} && rating > 0",
		"",
		-1,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, status.Internalf(err, "find ratings for event %q", eventID)
	}
	ratings := make([]int, 0, len(records))
	for _, r := range records {
		ratings = append(ratings, r.GetInt("rating"))
	}
	return ratings, nil
}

// Surveys

func (s *PocketBase) QuestionGroupsByEventAndType(ctx context.Context, eventID, surveyType string) ([]models.QuestionGroup, error) {
	records, err := s.app.FindRecordsByFilter(
		"question_groups",
		"event = {:event} && type = {:type}",
		"seq",
		-1,
		0,
		dbx.Params{"event": eventID, "type": surveyType},
	)
	if err != nil {
		return nil, status.Internalf(err, "find %s question groups for event %q", surveyType, eventID)
	}
	groups := make([]models.QuestionGroup, 0, len(records))
	for _, r := range records {
		groups = append(groups, models.QuestionGroup{
			ID:      r.Id,
			EventID: r.GetString("event"),
			Type:    r.GetString("type"),
			Seq:     r.GetInt("seq"),
			Title:   r.GetString("title"),
		})
	}
	return groups, nil
}

func (s *PocketBase) QuestionsByGroups(ctx context.Context, groupIDs []string) ([]models.Question, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	records := []*core.Record{}
	err := s.app.RecordQuery("questions").
		AndWhere(dbx.In("question_group", toAny(groupIDs)...)).
		OrderBy("seq").
		All(&records)
	if err != nil {
		return nil, status.Internalf(err, "find questions for groups")
	}
	questions := make([]models.Question, 0, len(records))
	for _, r := range records {
		questions = append(questions, models.Question{
			ID:              r.Id,
			QuestionGroupID: r.GetString("question_group"),
			Seq:             r.GetInt("seq"),
			AnswerType:      r.GetString("answer_type"),
			IsOptional:      r.GetBool("is_optional"),
			Title:           r.GetString("title"),
			Subtitle:        r.GetString("subtitle"),
		})
	}
	return questions, nil
}

func (s *PocketBase) AnswersByUserEventAndQuestions(ctx context.Context, userEventID string, questionIDs []string) ([]models.Answer, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	records := []*core.Record{}
	err := s.app.RecordQuery("answers").
		AndWhere(dbx.HashExp{"user_event": userEventID}).
		AndWhere(dbx.In("question", toAny(questionIDs)...)).
		All(&records)
	if err != nil {
		return nil, status.Internalf(err, "find answers for membership %q", userEventID)
	}
	return answersFromRecords(records), nil
}

func (s *PocketBase) CreateAnswers(ctx context.Context, answers []models.Answer) ([]models.Answer, error) {
	collection, err := s.app.FindCollectionByNameOrId("answers")
	if err != nil {
		return nil, status.Internalf(err, "find answers collection")
	}
	created := make([]models.Answer, 0, len(answers))
	for _, a := range answers {
		record := core.NewRecord(collection)
		record.Set("user_event", a.UserEventID)
		record.Set("question", a.QuestionID)
		record.Set("value", a.Value)
		if err := s.app.Save(record); err != nil {
			if isUniqueViolation(err) {
				return nil, status.AlreadyExistsf("answer for question %q already exists", a.QuestionID)
			}
			return nil, status.Internalf(err, "create answer for question %q", a.QuestionID)
		}
		created = append(created, *answerFromRecord(record))
	}
	return created, nil
}

// Feedback

func (s *PocketBase) CreateFeedback(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	collection, err := s.app.FindCollectionByNameOrId("feedbacks")
	if err != nil {
		return nil, status.Internalf(err, "find feedbacks collection")
	}
	record := core.NewRecord(collection)
	record.Set("event", f.EventID)
	record.Set("feedback", f.Feedback)
	if err := s.app.Save(record); err != nil {
		return nil, status.Internalf(err, "create feedback")
	}
	return &models.Feedback{
		ID:       record.Id,
		EventID:  record.GetString("event"),
		Feedback: record.GetString("feedback"),
	}, nil
}

func (s *PocketBase) DeleteFeedback(ctx context.Context, id string) error {
	record, err := s.app.FindRecordById("feedbacks", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.NotFoundf("feedback %q not found", id)
		}
		return status.Internalf(err, "find feedback %q", id)
	}
	if err := s.app.Delete(record); err != nil {
		return status.Internalf(err, "delete feedback %q", id)
	}
	return nil
}

func (s *PocketBase) FeedbacksByEvent(ctx context.Context, eventID string) ([]models.Feedback, error) {
	records, err := s.app.FindRecordsByFilter(
		"feedbacks",
		"event = {:event}",
		"-created",
		-1,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, status.Internalf(err, "find feedbacks for event %q", eventID)
	}
	feedbacks := make([]models.Feedback, 0, len(records))
	for _, r := range records {
		feedbacks = append(feedbacks, models.Feedback{
			ID:       r.Id,
			EventID:  r.GetString("event"),
			Feedback: r.GetString("feedback"),
		})
	}
	return feedbacks, nil
}

// Helpers

func eventFromRecord(r *core.Record) *models.Event {
	return &models.Event{
		ID:               r.Id,
		OrganizationID:   r.GetString("organization"),
		LocationID:       r.GetString("location"),
		Name:             r.GetString("name"),
		Description:      r.GetString("description"),
		Contact:          r.GetString("contact"),
		CoverImageURL:    r.GetString("cover_image_url"),
		CoverImageHash:   r.GetString("cover_image_hash"),
		PosterImageURL:   r.GetString("poster_image_url"),
		PosterImageHash:  r.GetString("poster_image_hash"),
		ProfileImageURL:  r.GetString("profile_image_url"),
		ProfileImageHash: r.GetString("profile_image_hash"),
		AttendeeLimit:    r.GetInt("attendee_limit"),
	}
}

func eventsFromRecords(records []*core.Record) []models.Event {
	events := make([]models.Event, 0, len(records))
	for _, r := range records {
		events = append(events, *eventFromRecord(r))
	}
	return events
}

func userEventFromRecord(r *core.Record) *models.UserEvent {
	ue := &models.UserEvent{
		ID:      r.Id,
		UserID:  r.GetString("user"),
		EventID: r.GetString("event"),
		Ticket:  r.GetString("ticket"),
		Status:  r.GetString("status"),
	}
	if rating := r.GetInt("rating"); rating > 0 {
		ue.Rating = &rating
	}
	return ue
}

func answerFromRecord(r *core.Record) *models.Answer {
	return &models.Answer{
		ID:          r.Id,
		UserEventID: r.GetString("user_event"),
		QuestionID:  r.GetString("question"),
		Value:       r.GetString("value"),
	}
}

func answersFromRecords(records []*core.Record) []models.Answer {
	answers := make([]models.Answer, 0, len(records))
	for _, r := range records {
		answers = append(answers, *answerFromRecord(r))
	}
	return answers
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func dtString(t time.Time) string {
	dt, _ := types.ParseDateTime(t.UTC())
	return dt.String()
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
