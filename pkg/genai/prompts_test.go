package genai

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDefaults(t *testing.T) {
	store := NewPromptStore()

	analysis, err := store.Render(KindAnalysis, struct{ ResumeText, JDText string }{"Python dev, 3 yrs", "Backend engineer"})
	require.NoError(t, err)
	assert.Contains(t, analysis, "Python dev, 3 yrs")
	assert.Contains(t, analysis, "Backend engineer")
	assert.Contains(t, analysis, "candidate_name")

	questions, err := store.Render(KindQuestions, struct {
		Count   int
		Context string
	}{2, `{"candidate_name":"Ada"}`})
	require.NoError(t, err)
	assert.Contains(t, questions, "Generate 2 BEGINNER-FRIENDLY")
	assert.Contains(t, questions, "Avoid complex system design")

	eval, err := store.Render(KindEvaluation, struct{ QuestionText, AnswerText, Difficulty string }{"What is a slice?", "A view over an array", "Easy"})
	require.NoError(t, err)
	assert.Contains(t, eval, "Question (Easy): What is a slice?")

	report, err := store.Render(KindReport, struct{ History string }{`[{"question":"q","answer":"a","score":70}]`})
	require.NoError(t, err)
	assert.Contains(t, report, "Final Interview Report")
}

func TestRenderUnknownKind(t *testing.T) {
	store := NewPromptStore()
	_, err := store.Render(Kind("bogus"), nil)
	require.Error(t, err)
}

func TestLoadDirOverridesTemplate(t *testing.T) {
	dir := t.TempDir()
	override := `Custom evaluation for {{.QuestionText}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "evaluation.tmpl"), []byte(override), 0o644))
	// Unknown kinds and non-template files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bogus.tmpl"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

	store := NewPromptStore()
	require.NoError(t, store.LoadDir(dir))

	eval, err := store.Render(KindEvaluation, struct{ QuestionText, AnswerText, Difficulty string }{"What is a map?", "", ""})
	require.NoError(t, err)
	assert.Equal(t, "Custom evaluation for What is a map?", eval)

	// Other kinds keep their defaults.
	analysis, err := store.Render(KindAnalysis, struct{ ResumeText, JDText string }{"r", "j"})
	require.NoError(t, err)
	assert.Contains(t, analysis, "Skill Matrix")
}

func TestLoadDirKeepsPreviousTemplateOnParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.tmpl"), []byte("{{.Unclosed"), 0o644))

	store := NewPromptStore()
	require.NoError(t, store.LoadDir(dir))

	report, err := store.Render(KindReport, struct{ History string }{"[]"})
	require.NoError(t, err)
	assert.Contains(t, report, "Final Interview Report")
}
