// Package transport frames client events over a websocket and forwards them
// to the orchestrator. It owns no ordering or failure-recovery logic; it is
// a thin adapter either side of the orchestration core.
package transport

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/voxlab/interviewd/pkg/genai"
	"github.com/voxlab/interviewd/pkg/interview"
	"github.com/voxlab/interviewd/pkg/orchestrator"
)

// Frame is the wire envelope for both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type startPayload struct {
	Resume string `json:"resume"`
	JD     string `json:"jd"`
}

type answerPayload struct {
	Text  string `json:"text"`
	Audio string `json:"audio"`
}

// Server accepts websocket connections and bridges them to the orchestrator.
type Server struct {
	orc         *orchestrator.Orchestrator
	transcriber Transcriber
}

// NewServer builds a websocket server. A nil transcriber falls back to the
// static placeholder.
func NewServer(orc *orchestrator.Orchestrator, transcriber Transcriber) *Server {
	if transcriber == nil {
		transcriber = StaticTranscriber{}
	}
	return &Server{orc: orc, transcriber: transcriber}
}

// Handler returns the websocket handler for mounting on a mux.
func (s *Server) Handler() websocket.Handler {
	return websocket.Handler(s.serve)
}

func (s *Server) serve(ws *websocket.Conn) {
	emitter := newWSEmitter(ws)
	id := s.orc.Attach(emitter)
	defer s.orc.Detach(id)

	emitter.send("message", map[string]string{"data": "Connected to AI Interviewer"})

	for {
		var frame Frame
		if err := websocket.JSON.Receive(ws, &frame); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("transport: session %s receive: %v", id, err)
			}
			return
		}
		if err := s.dispatch(id, frame); err != nil {
			log.Printf("transport: session %s %s: %v", id, frame.Event, err)
		}
	}
}

func (s *Server) dispatch(id string, frame Frame) error {
	switch frame.Event {
	case "start_session":
		var payload startPayload
		if err := unmarshalData(frame.Data, &payload); err != nil {
			return err
		}
		return s.orc.Dispatch(id, orchestrator.StartEvent{
			ResumeText: payload.Resume,
			JDText:     payload.JD,
		})
	case "answer_audio":
		text, err := s.answerText(frame.Data)
		if err != nil {
			return err
		}
		return s.orc.Dispatch(id, orchestrator.AnswerEvent{Text: text})
	default:
		log.Printf("transport: session %s ignored event %q", id, frame.Event)
		return nil
	}
}

// answerText prefers a direct text payload (browser speech recognition) and
// otherwise runs the audio bytes through the transcriber.
func (s *Server) answerText(data json.RawMessage) (string, error) {
	var payload answerPayload
	if err := unmarshalData(data, &payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.Text) != "" {
		return payload.Text, nil
	}
	var audio []byte
	if payload.Audio != "" {
		decoded, err := base64.StdEncoding.DecodeString(payload.Audio)
		if err != nil {
			return "", err
		}
		audio = decoded
	}
	return s.transcriber.Transcribe(audio)
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("transport: frame carried no data")
	}
	return json.Unmarshal(data, v)
}

// wsEmitter serializes outbound frames onto one connection. A single writer
// mutex keeps concurrent emissions from interleaving on the wire.
type wsEmitter struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func newWSEmitter(ws *websocket.Conn) *wsEmitter {
	return &wsEmitter{ws: ws}
}

func (e *wsEmitter) send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("transport: marshal %s: %v", event, err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := websocket.JSON.Send(e.ws, Frame{Event: event, Data: data}); err != nil {
		log.Printf("transport: send %s: %v", event, err)
	}
}

func (e *wsEmitter) Status(state string) {
	e.send("status", map[string]string{"state": state})
}

func (e *wsEmitter) StateUpdate(q interview.Question) {
	e.send("state_update", map[string]any{"state": "ASKING", "data": q})
}

func (e *wsEmitter) Speak(text string) {
	e.send("interviewer_speak", map[string]string{"text": text})
}

func (e *wsEmitter) Complete(redirect string, report genai.Report) {
	e.send("interview_complete", map[string]any{"redirect": redirect, "report": report})
}
