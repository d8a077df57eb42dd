package speech_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/speech"
)

func TestTranscribe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-subscription-key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "en-IN", r.FormValue("target_language_code"))
		assert.Equal(t, "true", r.FormValue("translate"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "clip.ogg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcript": "नमस्ते", "translated_text": "hello", "language_code": "hi"}`))
	}))
	defer srv.Close()

	tr := speech.NewTranscriber("secret", speech.WithEndpoint(srv.URL))
	result, err := tr.Transcribe(context.Background(), speech.Input{
		Audio:    []byte("fake-audio"),
		MimeType: "audio/ogg",
		FileName: "clip.ogg",
	})
	require.NoError(t, err)

	assert.Equal(t, "नमस्ते", result.SourceText)
	assert.Equal(t, "hello", result.TranslatedText)
	assert.Equal(t, "hi", result.SourceLanguage)
	assert.Equal(t, "en", result.TargetLanguage)
}

func TestTranscribe_SourceFallsBackToTranslation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translated_text": "hello"}`))
	}))
	defer srv.Close()

	tr := speech.NewTranscriber("k", speech.WithEndpoint(srv.URL))
	result, err := tr.Transcribe(context.Background(), speech.Input{Audio: []byte("a")})
	require.NoError(t, err)
	assert.Equal(t, "hello", result.SourceText)
	assert.Empty(t, result.SourceLanguage)
}

func TestTranscribe_MissingText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	tr := speech.NewTranscriber("k", speech.WithEndpoint(srv.URL))
	_, err := tr.Transcribe(context.Background(), speech.Input{Audio: []byte("a")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	assert.ErrorContains(t, err, "did not include transcribed text")
}

func TestTranscribe_UpstreamStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := speech.NewTranscriber("k", speech.WithEndpoint(srv.URL))
	_, err := tr.Transcribe(context.Background(), speech.Input{Audio: []byte("a")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	assert.ErrorContains(t, err, "(401)")
}
