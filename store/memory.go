package store

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"participation-system/internal/status"
	"participation-system/models"
)

// Memory is an in-memory Store with the same uniqueness and rollback
// behavior as the PocketBase implementation. It backs the service
// tests; nothing in the server wires it.
type Memory struct {
	mu    sync.Mutex
	state *memState

	// FailAnswerAt makes CreateAnswers fail before persisting the
	// n-th answer of a batch (1-based). Zero disables the hook.
	FailAnswerAt int
}

type memState struct {
	nextID     int
	events     map[string]models.Event
	durations  map[string]models.EventDuration
	userEvents map[string]models.UserEvent
	groups     map[string]models.QuestionGroup
	questions  map[string]models.Question
	answers    map[string]models.Answer
	feedbacks  map[string]models.Feedback
	eventTags  map[string][2]string // id -> (event, tag)
	facilities map[string][2]string // id -> (event, facility)
}

func NewMemory() *Memory {
	return &Memory{state: &memState{
		events:     map[string]models.Event{},
		durations:  map[string]models.EventDuration{},
		userEvents: map[string]models.UserEvent{},
		groups:     map[string]models.QuestionGroup{},
		questions:  map[string]models.Question{},
		answers:    map[string]models.Answer{},
		feedbacks:  map[string]models.Feedback{},
		eventTags:  map[string][2]string{},
		facilities: map[string][2]string{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:     s.nextID,
		events:     map[string]models.Event{},
		durations:  map[string]models.EventDuration{},
		userEvents: map[string]models.UserEvent{},
		groups:     map[string]models.QuestionGroup{},
		questions:  map[string]models.Question{},
		answers:    map[string]models.Answer{},
		feedbacks:  map[string]models.Feedback{},
		eventTags:  map[string][2]string{},
		facilities: map[string][2]string{},
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.durations {
		c.durations[k] = v
	}
	for k, v := range s.userEvents {
		c.userEvents[k] = v
	}
	for k, v := range s.groups {
		c.groups[k] = v
	}
	for k, v := range s.questions {
		c.questions[k] = v
	}
	for k, v := range s.answers {
		c.answers[k] = v
	}
	for k, v := range s.feedbacks {
		c.feedbacks[k] = v
	}
	for k, v := range s.eventTags {
		c.eventTags[k] = v
	}
	for k, v := range s.facilities {
		c.facilities[k] = v
	}
	return c
}

func (m *Memory) id() string {
	m.state.nextID++
	return fmt.Sprintf("rec%06d", m.state.nextID)
}

// RunInTransaction serializes transactions and restores the full state
// snapshot when fn fails, so partial writes never stay observable.
func (m *Memory) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	tx := &Memory{state: m.state, FailAnswerAt: m.FailAnswerAt}
	if err := fn(tx); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// Seed helpers for tests.

func (m *Memory) AddEvent(e models.Event) models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = m.id()
	}
	m.state.events[e.ID] = e
	return e
}

func (m *Memory) AddDuration(d models.EventDuration) models.EventDuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = m.id()
	}
	m.state.durations[d.ID] = d
	return d
}

func (m *Memory) AddQuestionGroup(g models.QuestionGroup) models.QuestionGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == "" {
		g.ID = m.id()
	}
	m.state.groups[g.ID] = g
	return g
}

func (m *Memory) AddQuestion(q models.Question) models.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == "" {
		q.ID = m.id()
	}
	m.state.questions[q.ID] = q
	return q
}

func (m *Memory) AddEventTag(eventID, tagID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.eventTags[m.id()] = [2]string{eventID, tagID}
}

func (m *Memory) AddFacilityRequest(eventID, facilityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.facilities[m.id()] = [2]string{eventID, facilityID}
}

// Events

func (m *Memory) EventByID(ctx context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.state.events[id]
	if !ok {
		return nil, status.NotFoundf("event %q not found", id)
	}
	return &e, nil
}

func (m *Memory) EventsByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := []models.Event{}
	for _, id := range ids {
		if e, ok := m.state.events[id]; ok {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *Memory) SearchEventsByName(ctx context.Context, name string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := []models.Event{}
	for _, e := range m.sortedEvents() {
		if strings.Contains(strings.ToLower(e.Name), strings.ToLower(name)) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *Memory) EventsByOrganization(ctx context.Context, organizationID string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := []models.Event{}
	for _, e := range m.sortedEvents() {
		if e.OrganizationID == organizationID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *Memory) EventsByTag(ctx context.Context, tagID string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsByJoin(m.state.eventTags, tagID), nil
}

func (m *Memory) EventsByFacility(ctx context.Context, facilityID string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsByJoin(m.state.facilities, facilityID), nil
}

func (m *Memory) EventsByLocation(ctx context.Context, locationID string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := []models.Event{}
	for _, e := range m.sortedEvents() {
		if e.LocationID == locationID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *Memory) eventsByJoin(join map[string][2]string, id string) []models.Event {
	matched := map[string]bool{}
	for _, pair := range join {
		if pair[1] == id {
			matched[pair[0]] = true
		}
	}
	events := []models.Event{}
	for _, e := range m.sortedEvents() {
		if matched[e.ID] {
			events = append(events, e)
		}
	}
	return events
}

func (m *Memory) UpcomingEvents(ctx context.Context, ref time.Time) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := []models.Event{}
	for _, e := range m.sortedEvents() {
		start, ok := m.minStart(e.ID)
		if ok && start.After(ref) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *Memory) SuggestedEvents(ctx context.Context, n int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.sortedEvents()
	rand.Shuffle(len(events), func(i, j int) {
		events[i], events[j] = events[j], events[i]
	})
	if len(events) > n {
		events = events[:n]
	}
	return events, nil
}

// Durations

func (m *Memory) MinDurationStart(ctx context.Context, eventID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, ok := m.minStart(eventID)
	if !ok {
		return time.Time{}, status.NotFoundf("event %q has no scheduled durations", eventID)
	}
	return start, nil
}

func (m *Memory) minStart(eventID string) (time.Time, bool) {
	var min time.Time
	found := false
	for _, d := range m.state.durations {
		if d.EventID != eventID {
			continue
		}
		if !found || d.Start.Before(min) {
			min = d.Start
		}
		found = true
	}
	return min, found
}

func (m *Memory) DurationsByEvent(ctx context.Context, eventID string) ([]models.EventDuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	durations := []models.EventDuration{}
	for _, d := range m.state.durations {
		if d.EventID == eventID {
			durations = append(durations, d)
		}
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i].Start.Before(durations[j].Start) })
	return durations, nil
}

// Memberships

func (m *Memory) UserEventByID(ctx context.Context, id string) (*models.UserEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ue, ok := m.state.userEvents[id]
	if !ok {
		return nil, status.NotFoundf("membership %q not found", id)
	}
	return &ue, nil
}

func (m *Memory) UserEventByUserAndEvent(ctx context.Context, userID, eventID string) (*models.UserEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ue := range m.state.userEvents {
		if ue.UserID == userID && ue.EventID == eventID {
			found := ue
			return &found, nil
		}
	}
	return nil, status.NotFoundf("no membership for user %q on event %q", userID, eventID)
}

func (m *Memory) CreateUserEvent(ctx context.Context, ue *models.UserEvent) (*models.UserEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.userEvents {
		if existing.UserID == ue.UserID && existing.EventID == ue.EventID {
			return nil, status.AlreadyExistsf("user %q already joined event %q", ue.UserID, ue.EventID)
		}
	}
	created := *ue
	created.ID = m.id()
	m.state.userEvents[created.ID] = created
	return &created, nil
}

func (m *Memory) UpdateUserEvent(ctx context.Context, ue *models.UserEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.userEvents[ue.ID]; !ok {
		return status.NotFoundf("membership %q not found", ue.ID)
	}
	m.state.userEvents[ue.ID] = *ue
	return nil
}

func (m *Memory) DeleteUserEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.userEvents[id]; !ok {
		return status.NotFoundf("membership %q not found", id)
	}
	delete(m.state.userEvents, id)
	return nil
}

func (m *Memory) ActiveMembershipCount(ctx context.Context, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, ue := range m.state.userEvents {
		if ue.EventID == eventID && (ue.Status == models.StatusPending || ue.Status == models.StatusApproved) {
			count++
		}
	}
	return count, nil
}

func (m *Memory) MembershipCountsByStatus(ctx context.Context, eventID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, ue := range m.state.userEvents {
		if ue.EventID == eventID {
			counts[ue.Status]++
		}
	}
	return counts, nil
}

func (m *Memory) RatingsByEvent(ctx context.Context, eventID string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ratings := []int{}
	for _, ue := range m.state.userEvents {
		if ue.EventID == eventID && ue.Rating != nil {
			ratings = append(ratings, *ue.Rating)
		}
	}
	return ratings, nil
}

// Surveys

func (m *Memory) QuestionGroupsByEventAndType(ctx context.Context, eventID, surveyType string) ([]models.QuestionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := []models.QuestionGroup{}
	for _, g := range m.state.groups {
		if g.EventID == eventID && g.Type == surveyType {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Seq < groups[j].Seq })
	return groups, nil
}

func (m *Memory) QuestionsByGroups(ctx context.Context, groupIDs []string) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range groupIDs {
		wanted[id] = true
	}
	questions := []models.Question{}
	for _, q := range m.state.questions {
		if wanted[q.QuestionGroupID] {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Seq < questions[j].Seq })
	return questions, nil
}

func (m *Memory) AnswersByUserEventAndQuestions(ctx context.Context, userEventID string, questionIDs []string) ([]models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range questionIDs {
		wanted[id] = true
	}
	answers := []models.Answer{}
	for _, a := range m.state.answers {
		if a.UserEventID == userEventID && wanted[a.QuestionID] {
			answers = append(answers, a)
		}
	}
	return answers, nil
}

func (m *Memory) CreateAnswers(ctx context.Context, answers []models.Answer) ([]models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := make([]models.Answer, 0, len(answers))
	for i, a := range answers {
		if m.FailAnswerAt > 0 && i+1 == m.FailAnswerAt {
			return nil, status.Internalf(fmt.Errorf("injected failure"), "create answer for question %q", a.QuestionID)
		}
		for _, existing := range m.state.answers {
			if existing.UserEventID == a.UserEventID && existing.QuestionID == a.QuestionID {
				return nil, status.AlreadyExistsf("answer for question %q already exists", a.QuestionID)
			}
		}
		row := a
		row.ID = m.id()
		m.state.answers[row.ID] = row
		created = append(created, row)
	}
	return created, nil
}

// Feedback

func (m *Memory) CreateFeedback(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *f
	created.ID = m.id()
	m.state.feedbacks[created.ID] = created
	return &created, nil
}

func (m *Memory) DeleteFeedback(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.feedbacks[id]; !ok {
		return status.NotFoundf("feedback %q not found", id)
	}
	delete(m.state.feedbacks, id)
	return nil
}

func (m *Memory) FeedbacksByEvent(ctx context.Context, eventID string) ([]models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	feedbacks := []models.Feedback{}
	for _, f := range m.state.feedbacks {
		if f.EventID == eventID {
			feedbacks = append(feedbacks, f)
		}
	}
	sort.Slice(feedbacks, func(i, j int) bool { return feedbacks[i].ID < feedbacks[j].ID })
	return feedbacks, nil
}

func (m *Memory) sortedEvents() []models.Event {
	events := make([]models.Event, 0, len(m.state.events))
	for _, e := range m.state.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}
