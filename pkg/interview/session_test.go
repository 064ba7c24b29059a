package interview

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlab/interviewd/pkg/genai"
)

func twoQuestions() []Question {
	return []Question{
		{Text: "What is a slice?", Difficulty: "Easy"},
		{Text: "What is a goroutine?", Difficulty: "Easy"},
	}
}

func TestNewSessionStartsInSetupAtMedium(t *testing.T) {
	s := NewSession("s1")
	assert.Equal(t, PhaseSetup, s.Phase())
	assert.Equal(t, DifficultyMedium, s.Difficulty())
	assert.Zero(t, s.CurrentIndex())
	assert.True(t, s.IsComplete()) // no questions yet
}

func TestSetContextOnlyInSetup(t *testing.T) {
	s := NewSession("s1")
	require.NoError(t, s.SetContext("resume", "jd"))
	resume, jd := s.Context()
	assert.Equal(t, "resume", resume)
	assert.Equal(t, "jd", jd)

	require.NoError(t, s.SetQuestions(twoQuestions()))
	require.NoError(t, s.Advance(PhaseAsking))
	err := s.SetContext("other", "other")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetQuestionsOnlyOnce(t *testing.T) {
	s := NewSession("s1")
	require.NoError(t, s.SetQuestions(twoQuestions()))
	err := s.SetQuestions(twoQuestions())
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAppendResponseKeepsCursorInvariant(t *testing.T) {
	s := NewSession("s1")
	require.NoError(t, s.SetQuestions(twoQuestions()))
	require.NoError(t, s.Advance(PhaseAsking))

	for i := 0; i < 2; i++ {
		q, err := s.CurrentQuestion()
		require.NoError(t, err)
		require.NoError(t, s.AppendResponse(q, "answer", genai.Evaluation{AccuracyScore: 50}))
		// len(responses) == currentIndex after every append.
		assert.Equal(t, s.CurrentIndex(), len(s.Responses()))
	}
	assert.True(t, s.IsComplete())

	_, err := s.CurrentQuestion()
	require.ErrorIs(t, err, ErrNoActiveQuestion)
	err = s.AppendResponse(Question{}, "stray", genai.Evaluation{})
	require.ErrorIs(t, err, ErrNoActiveQuestion)
}

func TestAppendResponseIllegalInSetupAndComplete(t *testing.T) {
	s := NewSession("s1")
	require.NoError(t, s.SetQuestions(twoQuestions()))
	err := s.AppendResponse(Question{}, "a", genai.Evaluation{})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPhaseGraph(t *testing.T) {
	legal := [][2]Phase{
		{PhaseSetup, PhaseAsking},
		{PhaseAsking, PhaseListening},
		{PhaseListening, PhaseDeciding},
		{PhaseDeciding, PhaseAsking},
		{PhaseDeciding, PhaseComplete},
	}
	for _, tc := range legal {
		s := NewSession("s")
		s.phase = tc[0]
		assert.NoErrorf(t, s.Advance(tc[1]), "%s -> %s", tc[0], tc[1])
	}

	illegal := [][2]Phase{
		{PhaseSetup, PhaseListening},
		{PhaseSetup, PhaseDeciding},
		{PhaseSetup, PhaseComplete},
		{PhaseAsking, PhaseComplete},
		{PhaseListening, PhaseAsking},
		{PhaseComplete, PhaseAsking},
		{PhaseComplete, PhaseSetup},
	}
	for _, tc := range illegal {
		s := NewSession("s")
		s.phase = tc[0]
		err := s.Advance(tc[1])
		assert.Truef(t, errors.Is(err, ErrInvalidTransition), "%s -> %s should be illegal", tc[0], tc[1])
	}
}

func TestMarkFailed(t *testing.T) {
	s := NewSession("s1")
	assert.False(t, s.Failed())
	s.MarkFailed()
	assert.True(t, s.Failed())
}
