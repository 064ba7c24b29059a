package transport

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/voxlab/interviewd/pkg/genai"
	"github.com/voxlab/interviewd/pkg/interview"
	"github.com/voxlab/interviewd/pkg/orchestrator"
)

type stubGenerator struct{}

func (stubGenerator) AnalyzeResume(ctx context.Context, resumeText, jdText string) genai.Analysis {
	return genai.Analysis{CandidateName: "Ada", MatchingSkills: []string{"Go"}}
}

func (stubGenerator) GenerateQuestions(ctx context.Context, analysis genai.Analysis, count int) []genai.QuestionDraft {
	return []genai.QuestionDraft{{QuestionText: "What is a slice?", Difficulty: "Easy"}}
}

func (stubGenerator) EvaluateAnswer(ctx context.Context, questionText, answerText, difficulty string) genai.Evaluation {
	return genai.Evaluation{AccuracyScore: 60, Feedback: "Nice"}
}

func (stubGenerator) GenerateReport(ctx context.Context, history []genai.ResponseSummary) genai.Report {
	return genai.Report{OverallScore: 60, HiringRecommendation: "Hire"}
}

func dialTestServer(t *testing.T, orc *orchestrator.Orchestrator) *websocket.Conn {
	t.Helper()
	server := NewServer(orc, nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, err := websocket.Dial(wsURL, "", ts.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func receiveFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame Frame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, websocket.JSON.Send(conn, Frame{Event: event, Data: data}))
}

func TestInterviewOverWebsocket(t *testing.T) {
	registry := interview.NewRegistry()
	orc := orchestrator.New(registry, stubGenerator{}, orchestrator.WithQuestionCount(1))
	defer orc.Close()

	conn := dialTestServer(t, orc)

	greeting := receiveFrame(t, conn)
	assert.Equal(t, "message", greeting.Event)

	sendFrame(t, conn, "start_session", map[string]string{"resume": "Python dev, 3 yrs", "jd": "Backend engineer"})

	status := receiveFrame(t, conn)
	assert.Equal(t, "status", status.Event)
	assert.JSONEq(t, `{"state":"ANALYZING_RESUME"}`, string(status.Data))

	update := receiveFrame(t, conn)
	assert.Equal(t, "state_update", update.Event)
	var updatePayload struct {
		State string             `json:"state"`
		Data  interview.Question `json:"data"`
	}
	require.NoError(t, json.Unmarshal(update.Data, &updatePayload))
	assert.Equal(t, "ASKING", updatePayload.State)
	assert.Equal(t, "What is a slice?", updatePayload.Data.Text)

	speak := receiveFrame(t, conn)
	assert.Equal(t, "interviewer_speak", speak.Event)

	sendFrame(t, conn, "answer_audio", map[string]string{"text": "A view over an array"})

	completing := receiveFrame(t, conn)
	assert.Equal(t, "status", completing.Event)
	assert.JSONEq(t, `{"state":"COMPLETING"}`, string(completing.Data))

	complete := receiveFrame(t, conn)
	assert.Equal(t, "interview_complete", complete.Event)
	var completePayload struct {
		Redirect string       `json:"redirect"`
		Report   genai.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(complete.Data, &completePayload))
	assert.Equal(t, "/analysis", completePayload.Redirect)
	assert.Equal(t, 60, completePayload.Report.OverallScore)
}

func TestDisconnectRemovesSession(t *testing.T) {
	registry := interview.NewRegistry()
	orc := orchestrator.New(registry, stubGenerator{}, orchestrator.WithQuestionCount(1))
	defer orc.Close()

	conn := dialTestServer(t, orc)
	_ = receiveFrame(t, conn) // greeting
	require.Equal(t, 1, registry.Len())

	require.NoError(t, conn.Close())
	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Zero(t, registry.Len())
}

func TestAnswerTextPrefersDirectText(t *testing.T) {
	s := NewServer(nil, nil)

	text, err := s.answerText(json.RawMessage(`{"text":"typed answer"}`))
	require.NoError(t, err)
	assert.Equal(t, "typed answer", text)

	// No text: audio path resolves to the fixed placeholder transcript.
	text, err = s.answerText(json.RawMessage(`{"audio":"AAAA"}`))
	require.NoError(t, err)
	assert.Equal(t, placeholderTranscript, text)

	_, err = s.answerText(json.RawMessage(`{"audio":"%%%not-base64"}`))
	require.Error(t, err)
}

func TestUnknownFrameIsIgnored(t *testing.T) {
	registry := interview.NewRegistry()
	orc := orchestrator.New(registry, stubGenerator{}, orchestrator.WithQuestionCount(1))
	defer orc.Close()

	conn := dialTestServer(t, orc)
	_ = receiveFrame(t, conn)

	sendFrame(t, conn, "bogus_event", map[string]string{"x": "y"})
	sendFrame(t, conn, "start_session", map[string]string{"resume": "r", "jd": "j"})
	status := receiveFrame(t, conn)
	assert.Equal(t, "status", status.Event)
}
