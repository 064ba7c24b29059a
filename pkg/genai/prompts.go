package genai

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/fsnotify/fsnotify"
)

// Kind selects one of the four fixed request shapes.
type Kind string

const (
	KindAnalysis   Kind = "analysis"
	KindQuestions  Kind = "questions"
	KindEvaluation Kind = "evaluation"
	KindReport     Kind = "report"
)

const systemPrompt = "You are an AI technical interviewer. Reply with a single JSON document and nothing else."

// Default templates. A template directory, when configured, overrides these
// per-kind via <kind>.tmpl files.
var defaultTemplates = map[Kind]string{
	KindAnalysis: `Analyze the following Resume and Job Description.
Extract a 'Skill Matrix' and identify key areas to probe.

Resume:
{{.ResumeText}}

Job Description:
{{.JDText}}

Return a JSON object with this schema:
{"candidate_name": "str", "matching_skills": ["str"], "missing_skills": ["str"], "suggested_focus_areas": ["str"]}`,

	KindQuestions: `Generate {{.Count}} BEGINNER-FRIENDLY interview questions based on the skill matrix below.
The goal is to BUILD CONFIDENCE in the candidate.
Start with very simple concepts and "warm-up" questions.
Avoid complex system design or deep architectural questions.

Context:
{{.Context}}

The questions should be mostly Easy complexity.
Return a JSON ARRAY of objects with this schema:
[{"question_text": "str", "difficulty": "str", "expected_key_points": ["str"]}]`,

	KindEvaluation: `Evaluate the candidate's answer to the interview question.

Question ({{.Difficulty}}): {{.QuestionText}}
Candidate Answer: "{{.AnswerText}}"

Evaluation Criteria:
1. Be encouraging and supportive.
2. Focus on what they got right, even if it's basic.
3. If they missed something, suggest it gently as a learning tip.

Return a JSON object with this schema:
{"accuracy_score": int, "clarity_score": int, "depth_score": int, "feedback": "str", "sentiment": "Positive/Neutral/Negative"}`,

	KindReport: `Generate a Final Interview Report based on this session history:
{{.History}}

The candidate was being interviewed for a role.

Return a JSON object with this schema:
{"overall_score": int, "strengths": ["str"], "weaknesses": ["str"], "final_feedback": "str", "hiring_recommendation": "Strong Hire/Hire/No Hire"}`,
}

// PromptStore renders the prompt for each kind. Templates start from the
// embedded defaults; LoadDir layers on-disk overrides and Watch keeps them
// fresh while the process runs.
type PromptStore struct {
	mu        sync.RWMutex
	templates map[Kind]*template.Template
	dir       string
}

// NewPromptStore parses the default templates. The defaults are compile-time
// constants, so a parse failure is a programming error.
func NewPromptStore() *PromptStore {
	s := &PromptStore{templates: make(map[Kind]*template.Template, len(defaultTemplates))}
	for kind, text := range defaultTemplates {
		s.templates[kind] = template.Must(template.New(string(kind)).Parse(text))
	}
	return s
}

// LoadDir replaces templates for every <kind>.tmpl file found under dir.
// Unknown files are ignored; a file that fails to parse keeps the previous
// template for its kind.
func (s *PromptStore) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("prompts: read %s: %w", dir, err)
	}
	s.mu.Lock()
	s.dir = dir
	s.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}
		s.loadFile(filepath.Join(dir, entry.Name()))
	}
	return nil
}

// Watch reloads templates when files under the configured directory change.
// It blocks until the watcher is closed via the returned stop function.
func (s *PromptStore) Watch() (stop func(), err error) {
	s.mu.RLock()
	dir := s.dir
	s.mu.RUnlock()
	if dir == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if strings.HasSuffix(ev.Name, ".tmpl") {
					s.loadFile(ev.Name)
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("prompts: watch error: %v", werr)
			}
		}
	}()
	return func() { _ = watcher.Close() }, nil
}

func (s *PromptStore) loadFile(path string) {
	kind := Kind(strings.TrimSuffix(filepath.Base(path), ".tmpl"))
	if _, known := defaultTemplates[kind]; !known {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("prompts: read %s: %v", path, err)
		return
	}
	tmpl, err := template.New(string(kind)).Parse(string(raw))
	if err != nil {
		log.Printf("prompts: parse %s: %v", path, err)
		return
	}
	s.mu.Lock()
	s.templates[kind] = tmpl
	s.mu.Unlock()
	log.Printf("prompts: loaded override for %s", kind)
}

// Render executes the template for kind against data.
func (s *PromptStore) Render(kind Kind, data any) (string, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[kind]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("prompts: unknown kind %q", kind)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompts: render %s: %w", kind, err)
	}
	return buf.String(), nil
}
