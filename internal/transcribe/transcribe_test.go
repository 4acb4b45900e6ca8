package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/umeed/internal/apperr"
)

func TestNewWhisperRequiresURL(t *testing.T) {
	_, err := NewWhisper("  ")
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidInput))
}

func TestTranscribeParsesVerboseJSON(t *testing.T) {
	var gotFormat, gotLang, gotAudio string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inference", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		gotFormat = r.FormValue("response_format")
		gotLang = r.FormValue("language")
		if f, _, err := r.FormFile("file"); assert.NoError(t, err) {
			data, _ := io.ReadAll(f)
			gotAudio = string(data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"text": " The cat sat. ",
			"duration": 2.5,
			"segments": [{
				"text": " The cat sat.", "start": 0, "end": 2.4,
				"words": [
					{"word": " The", "start": 0.0, "end": 0.3},
					{"word": " cat", "start": 0.5, "end": 0.9},
					{"word": " sat.", "start": 1.2, "end": 1.6}
				]
			}]
		}`)
	}))
	defer srv.Close()

	w, err := NewWhisper(srv.URL+"/", WithLanguage("hi"))
	require.NoError(t, err)
	tr, err := w.Transcribe(context.Background(), []byte("RIFFdata"), "")
	require.NoError(t, err)

	assert.Equal(t, "verbose_json", gotFormat)
	assert.Equal(t, "hi", gotLang)
	assert.Equal(t, "RIFFdata", gotAudio)
	assert.Equal(t, "The cat sat.", tr.Text)
	assert.Equal(t, 2.5, tr.DurationSeconds)
	require.Len(t, tr.Words, 3)
	assert.Equal(t, "cat", tr.Words[1].Text)
	assert.Equal(t, 0.5, tr.Words[1].Start)
}

func TestTranscribeFallsBackToSegmentText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"segments":[{"text":" one two","start":0,"end":1},{"text":" three","start":1,"end":3.5}]}`)
	}))
	defer srv.Close()

	w, err := NewWhisper(srv.URL)
	require.NoError(t, err)
	tr, err := w.Transcribe(context.Background(), []byte("x"), "en")
	require.NoError(t, err)
	assert.Equal(t, "one two three", tr.Text)
	assert.Equal(t, 3.5, tr.DurationSeconds)
	assert.Empty(t, tr.Words)
}

func TestTranscribeServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w, err := NewWhisper(srv.URL)
	require.NoError(t, err)
	_, err = w.Transcribe(context.Background(), []byte("x"), "")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))
	assert.Contains(t, err.Error(), "503")
}

func TestTranscribeUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	w, err := NewWhisper(url)
	require.NoError(t, err)
	_, err = w.Transcribe(context.Background(), []byte("x"), "")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))
}

func TestTranscribeEmptyAudio(t *testing.T) {
	w, err := NewWhisper("http://localhost:1")
	require.NoError(t, err)
	_, err = w.Transcribe(context.Background(), nil, "")
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidInput))
}

func TestTranscribeEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"text":""}`)
	}))
	defer srv.Close()

	w, err := NewWhisper(srv.URL)
	require.NoError(t, err)
	_, err = w.Transcribe(context.Background(), []byte("x"), "")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))
}
