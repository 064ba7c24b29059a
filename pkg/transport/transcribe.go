package transport

// Transcriber turns an opaque audio payload into text. Real speech-to-text
// is an upstream collaborator; the default implementation returns a fixed
// placeholder transcript.
//
// TODO: wire a real STT backend once one is chosen; clients currently fall
// back to browser speech recognition and send text directly.
type Transcriber interface {
	Transcribe(audio []byte) (string, error)
}

const placeholderTranscript = "I am a strong candidate because I have experience with React and Python."

// StaticTranscriber is the placeholder Transcriber.
type StaticTranscriber struct{}

func (StaticTranscriber) Transcribe([]byte) (string, error) {
	return placeholderTranscript, nil
}
