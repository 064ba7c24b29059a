// Package orchestrator drives interview sessions through their phase graph:
// SETUP → ASKING → LISTENING → DECIDING → {ASKING | COMPLETE}. Each session
// owns a mailbox goroutine so inbound events are processed strictly one at a
// time per session while sessions never block each other.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxlab/interviewd/pkg/genai"
	"github.com/voxlab/interviewd/pkg/interview"
	"github.com/voxlab/interviewd/pkg/telemetry"
)

const (
	defaultQuestionCount = 2
	defaultMailboxSize   = 16
)

var (
	// ErrSessionUnknown indicates an event for a session that is not live.
	ErrSessionUnknown = errors.New("orchestrator: unknown session")
	// ErrMailboxFull indicates the per-session event queue overflowed.
	ErrMailboxFull = errors.New("orchestrator: mailbox full")
)

// Generator is the boundary to the text-generation capability. Every method
// returns a well-formed (possibly empty/default) structure; failures never
// surface as errors past this boundary.
type Generator interface {
	AnalyzeResume(ctx context.Context, resumeText, jdText string) genai.Analysis
	GenerateQuestions(ctx context.Context, analysis genai.Analysis, count int) []genai.QuestionDraft
	EvaluateAnswer(ctx context.Context, questionText, answerText, difficulty string) genai.Evaluation
	GenerateReport(ctx context.Context, history []genai.ResponseSummary) genai.Report
}

// Emitter delivers outbound events back to one client connection.
// Implementations must tolerate calls after the connection is gone.
type Emitter interface {
	Status(state string)
	StateUpdate(q interview.Question)
	Speak(text string)
	Complete(redirect string, report genai.Report)
}

// Event is an inbound client event.
type Event interface{ isEvent() }

// StartEvent carries the résumé and job description that open a session.
type StartEvent struct {
	ResumeText string
	JDText     string
}

// AnswerEvent carries one transcribed answer.
type AnswerEvent struct {
	Text string
}

func (StartEvent) isEvent()  {}
func (AnswerEvent) isEvent() {}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithQuestionCount sets how many questions each interview generates.
func WithQuestionCount(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.questionCount = n
		}
	}
}

// WithMailboxSize bounds the per-session inbound queue.
func WithMailboxSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.mailboxSize = n
		}
	}
}

// Orchestrator sequences generation calls per session. It holds no session
// state of its own; sessions live in the registry and are touched only by
// the mailbox goroutine handling one event at a time.
type Orchestrator struct {
	registry      *interview.Registry
	gen           Generator
	questionCount int
	mailboxSize   int

	mu        sync.Mutex
	mailboxes map[string]*mailbox
	wg        sync.WaitGroup
}

// New builds an orchestrator over registry and gen.
func New(registry *interview.Registry, gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:      registry,
		gen:           gen,
		questionCount: defaultQuestionCount,
		mailboxSize:   defaultMailboxSize,
		mailboxes:     make(map[string]*mailbox),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type mailbox struct {
	events  chan Event
	done    chan struct{}
	once    sync.Once
	emitter Emitter
}

func (mb *mailbox) close() {
	mb.once.Do(func() { close(mb.done) })
}

func (mb *mailbox) closed() bool {
	select {
	case <-mb.done:
		return true
	default:
		return false
	}
}

// Outbound delivery stops the moment the session detaches; an in-flight
// generation simply completes and its result is discarded.
func (mb *mailbox) status(state string) {
	if !mb.closed() {
		mb.emitter.Status(state)
	}
}

func (mb *mailbox) stateUpdate(q interview.Question) {
	if !mb.closed() {
		mb.emitter.StateUpdate(q)
	}
}

func (mb *mailbox) speak(text string) {
	if !mb.closed() {
		mb.emitter.Speak(text)
	}
}

func (mb *mailbox) complete(redirect string, report genai.Report) {
	if !mb.closed() {
		mb.emitter.Complete(redirect, report)
	}
}

// Attach registers a new session for one connection and starts its mailbox
// worker. The returned id keys every later Dispatch and Detach call.
func (o *Orchestrator) Attach(emitter Emitter) string {
	session := o.registry.Create()
	mb := &mailbox{
		events:  make(chan Event, o.mailboxSize),
		done:    make(chan struct{}),
		emitter: emitter,
	}
	o.mu.Lock()
	o.mailboxes[session.ID()] = mb
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(session, mb)
	log.Printf("orchestrator: session %s attached", session.ID())
	return session.ID()
}

// Dispatch queues one inbound event for a session. Events queue in arrival
// order; a full mailbox rejects rather than interleaves.
func (o *Orchestrator) Dispatch(id string, ev Event) error {
	o.mu.Lock()
	mb, ok := o.mailboxes[id]
	o.mu.Unlock()
	if !ok {
		return ErrSessionUnknown
	}
	select {
	case <-mb.done:
		return ErrSessionUnknown
	case mb.events <- ev:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Detach removes the session and stops outbound delivery. Idempotent.
func (o *Orchestrator) Detach(id string) {
	o.mu.Lock()
	mb, ok := o.mailboxes[id]
	delete(o.mailboxes, id)
	o.mu.Unlock()
	o.registry.Remove(id)
	if ok {
		mb.close()
		log.Printf("orchestrator: session %s detached", id)
	}
}

// Close detaches every live session and waits for their workers to drain.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	ids := make([]string, 0, len(o.mailboxes))
	for id := range o.mailboxes {
		ids = append(ids, id)
	}
	o.mu.Unlock()
	for _, id := range ids {
		o.Detach(id)
	}
	o.wg.Wait()
}

func (o *Orchestrator) run(session *interview.Session, mb *mailbox) {
	defer o.wg.Done()
	for {
		select {
		case <-mb.done:
			return
		case ev := <-mb.events:
			o.handle(session, mb, ev)
		}
	}
}

func (o *Orchestrator) handle(session *interview.Session, mb *mailbox, ev Event) {
	ctx, span := telemetry.StartSpan(context.Background(), "orchestrator.handle", trace.WithAttributes(
		attribute.String("session.id", session.ID()),
		attribute.String("session.phase", string(session.Phase())),
	))
	defer telemetry.EndSpan(span, nil)

	switch e := ev.(type) {
	case StartEvent:
		o.handleStart(ctx, session, mb, e)
	case AnswerEvent:
		o.handleAnswer(ctx, session, mb, e)
	default:
		log.Printf("orchestrator: session %s dropped unknown event %T", session.ID(), ev)
	}
}

func (o *Orchestrator) handleStart(ctx context.Context, session *interview.Session, mb *mailbox, ev StartEvent) {
	if session.Phase() != interview.PhaseSetup || session.Failed() {
		log.Printf("orchestrator: session %s dropped start event in %s", session.ID(), session.Phase())
		return
	}
	if err := session.SetContext(ev.ResumeText, ev.JDText); err != nil {
		log.Printf("orchestrator: session %s: %v", session.ID(), err)
		return
	}

	mb.status("ANALYZING_RESUME")
	analysis := o.gen.AnalyzeResume(ctx, ev.ResumeText, ev.JDText)
	if analysis.Empty() {
		session.MarkFailed()
		mb.status("ANALYSIS_FAILED")
		log.Printf("orchestrator: session %s analysis failed", session.ID())
		return
	}

	drafts := o.gen.GenerateQuestions(ctx, analysis, o.questionCount)
	if len(drafts) == 0 {
		session.MarkFailed()
		mb.status("NO_QUESTIONS")
		log.Printf("orchestrator: session %s produced no questions", session.ID())
		return
	}

	questions := make([]interview.Question, len(drafts))
	for i, d := range drafts {
		questions[i] = interview.Question{
			Text:              d.QuestionText,
			Difficulty:        d.Difficulty,
			ExpectedKeyPoints: d.ExpectedKeyPoints,
		}
	}
	if err := session.SetQuestions(questions); err != nil {
		log.Printf("orchestrator: session %s: %v", session.ID(), err)
		return
	}
	o.advance(session, interview.PhaseAsking)
	mb.stateUpdate(questions[0])
	mb.speak(questions[0].Text)
	o.advance(session, interview.PhaseListening)
}

func (o *Orchestrator) handleAnswer(ctx context.Context, session *interview.Session, mb *mailbox, ev AnswerEvent) {
	question, err := session.CurrentQuestion()
	if err != nil {
		// Stray or late answer. Re-emit the completion notice when the
		// interview already finished, otherwise drop silently.
		if session.Phase() == interview.PhaseComplete {
			mb.complete("/analysis", genai.Report{})
			return
		}
		log.Printf("orchestrator: session %s dropped answer with no active question", session.ID())
		return
	}

	o.advance(session, interview.PhaseDeciding)
	evaluation := o.gen.EvaluateAnswer(ctx, question.Text, ev.Text, string(session.Difficulty()))
	if err := session.AppendResponse(question, ev.Text, evaluation); err != nil {
		log.Printf("orchestrator: session %s: %v", session.ID(), err)
		return
	}

	if session.IsComplete() {
		o.advance(session, interview.PhaseComplete)
		mb.status("COMPLETING")
		report := o.gen.GenerateReport(ctx, historyOf(session))
		mb.complete("/analysis", report)
		return
	}

	session.SetDifficulty(adaptDifficulty(session.Difficulty(), evaluation.AccuracyScore))
	o.advance(session, interview.PhaseAsking)
	next, err := session.CurrentQuestion()
	if err != nil {
		log.Printf("orchestrator: session %s: %v", session.ID(), err)
		return
	}
	mb.stateUpdate(next)
	mb.speak(next.Text)
	o.advance(session, interview.PhaseListening)
}

func (o *Orchestrator) advance(session *interview.Session, next interview.Phase) {
	if err := session.Advance(next); err != nil {
		log.Printf("orchestrator: session %s: %v", session.ID(), err)
		return
	}
	log.Printf("orchestrator: session %s moved to %s", session.ID(), next)
}

// adaptDifficulty is a pure function of the most recent accuracy score.
func adaptDifficulty(current interview.Difficulty, accuracy int) interview.Difficulty {
	switch {
	case accuracy > 80:
		return interview.DifficultyHard
	case accuracy < 40:
		return interview.DifficultyEasy
	default:
		return current
	}
}

func historyOf(session *interview.Session) []genai.ResponseSummary {
	responses := session.Responses()
	history := make([]genai.ResponseSummary, len(responses))
	for i, r := range responses {
		history[i] = genai.ResponseSummary{
			Question: r.Question.Text,
			Answer:   r.AnswerText,
			Score:    r.Evaluation.AccuracyScore,
		}
	}
	return history
}
