package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"participation-system/internal/status"
	"participation-system/models"
	"participation-system/monitoring"
	"participation-system/store"
)

// SurveyService validates and persists pre/post-event answer batches.
// A batch must answer exactly the question set defined for the event
// and type, and each (membership, type) pair accepts one batch ever.
type SurveyService struct {
	store   store.Store
	monitor *monitoring.Monitor
}

func NewSurveyService(st store.Store, monitor *monitoring.Monitor) *SurveyService {
	return &SurveyService{store: st, monitor: monitor}
}

// SubmitAnswers persists one answer batch atomically. Partial writes
// are never observable: any failure rolls back the whole batch.
func (s *SurveyService) SubmitAnswers(ctx context.Context, userEventID, surveyType string, inputs []models.AnswerInput) ([]models.Answer, error) {
	if !models.ValidSurveyType(surveyType) {
		return nil, status.InvalidArgumentf("unknown submission type %q", surveyType)
	}

	var persisted []models.Answer
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		membership, err := tx.UserEventByID(ctx, userEventID)
		if err != nil {
			return err
		}

		questions, err := expectedQuestions(ctx, tx, membership.EventID, surveyType)
		if err != nil {
			return err
		}

		questionIDs := make([]string, 0, len(questions))
		for _, q := range questions {
			questionIDs = append(questionIDs, q.ID)
		}
		existing, err := tx.AnswersByUserEventAndQuestions(ctx, userEventID, questionIDs)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return status.AlreadyExistsf("%s answers already submitted for membership %q", surveyType, userEventID)
		}

		byQuestion, err := validateBatch(questions, inputs)
		if err != nil {
			return err
		}

		// Persist in question order so the returned batch reads the
		// way the survey is laid out.
		batch := make([]models.Answer, 0, len(questions))
		for _, q := range questions {
			batch = append(batch, models.Answer{
				UserEventID: userEventID,
				QuestionID:  q.ID,
				Value:       byQuestion[q.ID],
			})
		}
		persisted, err = tx.CreateAnswers(ctx, batch)
		return err
	})

	if s.monitor != nil {
		s.monitor.TrackSurveySubmission(surveyType, status.CodeOf(err).String())
	}
	if err != nil {
		return nil, err
	}
	return persisted, nil
}

// Questions returns the ordered question set a membership is expected
// to answer for the given type.
func (s *SurveyService) Questions(ctx context.Context, userEventID, surveyType string) ([]models.Question, error) {
	if !models.ValidSurveyType(surveyType) {
		return nil, status.InvalidArgumentf("unknown submission type %q", surveyType)
	}
	membership, err := s.store.UserEventByID(ctx, userEventID)
	if err != nil {
		return nil, err
	}
	return expectedQuestions(ctx, s.store, membership.EventID, surveyType)
}

// expectedQuestions resolves the full question set for an event and
// type, ordered by group seq then question seq. An event with no
// groups of the type has nothing to answer, which is NOT_FOUND.
func expectedQuestions(ctx context.Context, st store.Store, eventID, surveyType string) ([]models.Question, error) {
	groups, err := st.QuestionGroupsByEventAndType(ctx, eventID, surveyType)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, status.NotFoundf("event %q has no %s question groups", eventID, surveyType)
	}

	groupSeq := make(map[string]int, len(groups))
	groupIDs := make([]string, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
		groupSeq[g.ID] = g.Seq
	}
	questions, err := st.QuestionsByGroups(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(questions, func(i, j int) bool {
		if groupSeq[questions[i].QuestionGroupID] != groupSeq[questions[j].QuestionGroupID] {
			return groupSeq[questions[i].QuestionGroupID] < groupSeq[questions[j].QuestionGroupID]
		}
		return questions[i].Seq < questions[j].Seq
	})
	return questions, nil
}

// validateBatch checks set equality between the submitted question IDs
// and the expected set, rejects duplicates, and requires non-empty
// values on non-optional questions. It returns values keyed by
// question ID.
func validateBatch(questions []models.Question, inputs []models.AnswerInput) (map[string]string, error) {
	expected := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		expected[q.ID] = q
	}

	byQuestion := make(map[string]string, len(inputs))
	for _, in := range inputs {
		if _, dup := byQuestion[in.QuestionID]; dup {
			return nil, status.InvalidArgumentf("duplicate answer for question %q", in.QuestionID)
		}
		q, ok := expected[in.QuestionID]
		if !ok {
			return nil, status.InvalidArgumentf(
				"question %q does not belong to this survey (%s)",
				in.QuestionID, expectedVsReceived(questions, inputs),
			)
		}
		if !q.IsOptional && strings.TrimSpace(in.Value) == "" {
			return nil, status.InvalidArgumentf("question %q requires a non-empty answer", in.QuestionID)
		}
		byQuestion[in.QuestionID] = in.Value
	}

	if len(byQuestion) != len(expected) {
		missing := []string{}
		for _, q := range questions {
			if _, ok := byQuestion[q.ID]; !ok {
				missing = append(missing, q.ID)
			}
		}
		return nil, status.InvalidArgumentf(
			"incomplete submission, missing questions %v (%s)",
			missing, expectedVsReceived(questions, inputs),
		)
	}
	return byQuestion, nil
}

func expectedVsReceived(questions []models.Question, inputs []models.AnswerInput) string {
	expected := make([]string, 0, len(questions))
	for _, q := range questions {
		expected = append(expected, q.ID)
	}
	received := make([]string, 0, len(inputs))
	for _, in := range inputs {
		received = append(received, in.QuestionID)
	}
	return fmt.Sprintf("expected %v, received %v", expected, received)
}
