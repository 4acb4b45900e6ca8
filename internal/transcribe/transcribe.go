// Package transcribe turns recorded reading audio into a timed transcript.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/verte-zerg/umeed/internal/apperr"
	"github.com/verte-zerg/umeed/internal/model"
)

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (model.Transcript, error)
}

const (
	defaultLanguage = "en"
	defaultTimeout  = 60 * time.Second
	maxErrorBody    = 512
)

var _ Transcriber = (*Whisper)(nil)

// Option configures a Whisper client.
type Option func(*Whisper)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Whisper) {
		w.httpClient = c
	}
}

// WithModel asks the server for a specific model.
func WithModel(model string) Option {
	return func(w *Whisper) {
		w.model = model
	}
}

// WithLanguage sets the language used when a request does not name one.
func WithLanguage(lang string) Option {
	return func(w *Whisper) {
		w.language = lang
	}
}

// Whisper talks to a whisper.cpp compatible server over its /inference endpoint.
type Whisper struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// NewWhisper returns a client for the server at serverURL.
func NewWhisper(serverURL string, opts ...Option) (*Whisper, error) {
	serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if serverURL == "" {
		return nil, apperr.E(apperr.CodeInvalidInput, "transcribe.NewWhisper", "server url must not be empty", nil)
	}
	w := &Whisper{
		serverURL:  serverURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

type verboseResponse struct {
	Text     string    `json:"text"`
	Duration float64   `json:"duration"`
	Segments []segment `json:"segments"`
}

type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe uploads audio and parses the verbose JSON reply. Every failure
// is reported as UNAVAILABLE so callers never score a made-up transcript.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte, language string) (model.Transcript, error) {
	const op = "transcribe.Whisper"
	if len(audio) == 0 {
		return model.Transcript{}, apperr.E(apperr.CodeInvalidInput, op, "empty audio", nil)
	}
	if language == "" {
		language = w.language
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return model.Transcript{}, apperr.E(apperr.CodeInternal, op, "create form file", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return model.Transcript{}, apperr.E(apperr.CodeInternal, op, "write audio", err)
	}
	fields := [][2]string{
		{"response_format", "verbose_json"},
		{"language", language},
		{"model", w.model},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return model.Transcript{}, apperr.E(apperr.CodeInternal, op, "write "+f[0]+" field", err)
		}
	}
	if err := mw.Close(); err != nil {
		return model.Transcript{}, apperr.E(apperr.CodeInternal, op, "close multipart writer", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.serverURL+"/inference", &body)
	if err != nil {
		return model.Transcript{}, apperr.E(apperr.CodeInternal, op, "create request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return model.Transcript{}, apperr.E(apperr.CodeUnavailable, op, "http request", err)
	}
	defer func() {
		_ = resp.Body.Close() // Best-effort close.
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := fmt.Sprintf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return model.Transcript{}, apperr.E(apperr.CodeUnavailable, op, msg, nil)
	}

	var out verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Transcript{}, apperr.E(apperr.CodeUnavailable, op, "decode response", err)
	}
	return out.transcript()
}

func (r verboseResponse) transcript() (model.Transcript, error) {
	t := model.Transcript{
		Text:            strings.TrimSpace(r.Text),
		DurationSeconds: r.Duration,
	}
	var parts []string
	for _, seg := range r.Segments {
		parts = append(parts, strings.TrimSpace(seg.Text))
		for _, wd := range seg.Words {
			text := strings.TrimSpace(wd.Word)
			if text == "" {
				continue
			}
			t.Words = append(t.Words, model.WordTiming{Text: text, Start: wd.Start, End: wd.End})
		}
		if seg.End > t.DurationSeconds {
			t.DurationSeconds = seg.End
		}
	}
	if t.Text == "" {
		t.Text = strings.TrimSpace(strings.Join(parts, " "))
	}
	if t.Text == "" && len(r.Segments) == 0 {
		return model.Transcript{}, apperr.E(apperr.CodeUnavailable, "transcribe.Whisper", "empty transcription", errors.New("no text and no segments"))
	}
	return t, nil
}
