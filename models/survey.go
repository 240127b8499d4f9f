package models

type QuestionGroup struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Type    string `json:"type"` // PRE_EVENT, POST_EVENT
	Seq     int    `json:"seq"`
	Title   string `json:"title"`
}

type Question struct {
	ID              string `json:"id"`
	QuestionGroupID string `json:"question_group_id"`
	Seq             int    `json:"seq"`
	AnswerType      string `json:"answer_type"` // SCALE, TEXT
	IsOptional      bool   `json:"is_optional"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle,omitempty"`
}

type Answer struct {
	ID          string `json:"id"`
	UserEventID string `json:"user_event_id"`
	QuestionID  string `json:"question_id"`
	Value       string `json:"value"`
}

// AnswerInput is one (question, value) pair of an incoming survey batch.
type AnswerInput struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}

const (
	SurveyPreEvent  = "PRE_EVENT"
	SurveyPostEvent = "POST_EVENT"
)

func ValidSurveyType(t string) bool {
	return t == SurveyPreEvent || t == SurveyPostEvent
}
