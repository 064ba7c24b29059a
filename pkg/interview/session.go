package interview

import (
	"errors"
	"fmt"

	"github.com/voxlab/interviewd/pkg/genai"
)

var (
	// ErrInvalidTransition indicates a mutation that is illegal in the
	// session's current phase. An ordering bug, never surfaced to clients.
	ErrInvalidTransition = errors.New("interview: invalid transition")
	// ErrNoActiveQuestion indicates an answer arrived with no question
	// outstanding. Benign; the event is dropped.
	ErrNoActiveQuestion = errors.New("interview: no active question")
)

// Phase is the stage of a session's lifecycle.
type Phase string

const (
	PhaseSetup     Phase = "SETUP"
	PhaseAsking    Phase = "ASKING"
	PhaseListening Phase = "LISTENING"
	PhaseDeciding  Phase = "DECIDING"
	PhaseComplete  Phase = "COMPLETE"
)

// legal phase graph: SETUP → ASKING → LISTENING → DECIDING → {ASKING | COMPLETE}.
var phaseSuccessors = map[Phase][]Phase{
	PhaseSetup:     {PhaseAsking},
	PhaseAsking:    {PhaseListening, PhaseDeciding},
	PhaseListening: {PhaseDeciding},
	PhaseDeciding:  {PhaseAsking, PhaseComplete},
	PhaseComplete:  {},
}

// Difficulty is the current question difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Question is one generated interview question. Immutable once created.
type Question struct {
	Text              string   `json:"question_text"`
	Difficulty        string   `json:"difficulty"`
	ExpectedKeyPoints []string `json:"expected_key_points"`
}

// Response records one answered question. Created exactly once, never edited.
type Response struct {
	Question   Question         `json:"question"`
	AnswerText string           `json:"answer"`
	Evaluation genai.Evaluation `json:"evaluation"`
}

// Session holds the durable state of one interview. It is owned by the
// Registry and touched only by the single orchestrator invocation handling
// one inbound event, so the entity itself carries no lock.
type Session struct {
	id           string
	phase        Phase
	failed       bool
	resumeText   string
	jdText       string
	questions    []Question
	currentIndex int
	responses    []Response
	difficulty   Difficulty
}

// NewSession builds a SETUP-phase session starting at Medium difficulty.
func NewSession(id string) *Session {
	return &Session{id: id, phase: PhaseSetup, difficulty: DifficultyMedium}
}

func (s *Session) ID() string             { return s.id }
func (s *Session) Phase() Phase           { return s.phase }
func (s *Session) Difficulty() Difficulty { return s.difficulty }
func (s *Session) CurrentIndex() int      { return s.currentIndex }

// Failed reports whether the session hit a terminal setup error
// (analysis failed or no questions generated) and is unusable.
func (s *Session) Failed() bool { return s.failed }

// MarkFailed records a terminal setup error.
func (s *Session) MarkFailed() { s.failed = true }

// SetContext pins the résumé and job-description text. Legal only in SETUP.
func (s *Session) SetContext(resumeText, jdText string) error {
	if s.phase != PhaseSetup {
		return fmt.Errorf("%w: set context in %s", ErrInvalidTransition, s.phase)
	}
	s.resumeText = resumeText
	s.jdText = jdText
	return nil
}

// Context returns the résumé and job-description text.
func (s *Session) Context() (resumeText, jdText string) {
	return s.resumeText, s.jdText
}

// SetQuestions fixes the question list, exactly once, while leaving SETUP.
func (s *Session) SetQuestions(questions []Question) error {
	if s.phase != PhaseSetup || s.questions != nil {
		return fmt.Errorf("%w: questions already set", ErrInvalidTransition)
	}
	s.questions = questions
	return nil
}

// Questions returns the fixed question list.
func (s *Session) Questions() []Question { return s.questions }

// CurrentQuestion returns the question at the cursor, or ErrNoActiveQuestion
// when the cursor has run past the list.
func (s *Session) CurrentQuestion() (Question, error) {
	if s.currentIndex < 0 || s.currentIndex >= len(s.questions) {
		return Question{}, ErrNoActiveQuestion
	}
	return s.questions[s.currentIndex], nil
}

// AppendResponse records one answered question and advances the cursor.
// Legal only while a question is being asked or listened to.
func (s *Session) AppendResponse(q Question, answerText string, eval genai.Evaluation) error {
	if s.phase != PhaseAsking && s.phase != PhaseListening && s.phase != PhaseDeciding {
		return fmt.Errorf("%w: append response in %s", ErrInvalidTransition, s.phase)
	}
	if s.currentIndex >= len(s.questions) {
		return ErrNoActiveQuestion
	}
	s.responses = append(s.responses, Response{Question: q, AnswerText: answerText, Evaluation: eval})
	s.currentIndex++
	return nil
}

// Responses returns the append-only response history.
func (s *Session) Responses() []Response { return s.responses }

// IsComplete reports whether every question has been answered.
func (s *Session) IsComplete() bool {
	return s.currentIndex >= len(s.questions)
}

// Advance moves the session to next, validating against the phase graph.
func (s *Session) Advance(next Phase) error {
	for _, legal := range phaseSuccessors[s.phase] {
		if legal == next {
			s.phase = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, next)
}

// SetDifficulty applies the adaptation rule's outcome.
func (s *Session) SetDifficulty(d Difficulty) { s.difficulty = d }
