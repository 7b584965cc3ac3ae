package openai

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"annonce-backend/internal/transcribe"
)

type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Save(ctx context.Context, namespace, fileName string, r io.Reader) (string, int64, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := namespace + "/" + fileName
	s.objects[key] = data
	return key, int64(len(data)), "audio/mp4", nil
}

func (s *memStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	data, ok := s.objects[storageKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Delete(ctx context.Context, storageKey string) error {
	delete(s.objects, storageKey)
	return nil
}

func TestTranscribeUploadsStoredAudio(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	store := newMemStore()
	if _, _, _, err := store.Save(context.Background(), "recordings", "rec.m4a", bytes.NewReader([]byte("audio-bytes"))); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	var gotModel, gotLanguage string
	var gotFile []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		gotFile, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  veste en jean bleu  "}`))
	}))
	defer server.Close()
	apiURL = server.URL

	client := NewClient("test-key", "", store)
	text, err := client.Transcribe(context.Background(), "recordings/rec.m4a", "fr-FR")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "veste en jean bleu" {
		t.Fatalf("expected trimmed text, got %q", text)
	}
	if gotModel != "whisper-1" {
		t.Fatalf("expected default model whisper-1, got %q", gotModel)
	}
	if gotLanguage != "fr" {
		t.Fatalf("expected language fr from locale fr-FR, got %q", gotLanguage)
	}
	if string(gotFile) != "audio-bytes" {
		t.Fatalf("expected stored audio uploaded, got %q", gotFile)
	}
}

func TestTranscribeWithoutCredential(t *testing.T) {
	client := NewClient("", "whisper-1", newMemStore())
	if client.HasPermission() {
		t.Fatalf("expected no permission without credential")
	}
	if _, err := client.Transcribe(context.Background(), "recordings/rec.m4a", "fr-FR"); !errors.Is(err, transcribe.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestTranscribeMapsServerErrors(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	store := newMemStore()
	if _, _, _, err := store.Save(context.Background(), "recordings", "rec.m4a", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, transcribe.ErrPermissionDenied},
		{"server error", http.StatusBadGateway, `{"error":{"message":"upstream"}}`, transcribe.ErrRecognitionUnavailable},
		{"unsupported language", http.StatusBadRequest, `{"error":{"message":"language 'xx' is not supported"}}`, transcribe.ErrLanguageUnsupported},
		{"other client error", http.StatusBadRequest, `{"error":{"message":"file too large"}}`, transcribe.ErrTranscriptionFailed},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		apiURL = server.URL

		client := NewClient("test-key", "whisper-1", store)
		_, err := client.Transcribe(context.Background(), "recordings/rec.m4a", "fr-FR")
		server.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTranscribeEmptyResultFails(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	store := newMemStore()
	if _, _, _, err := store.Save(context.Background(), "recordings", "rec.m4a", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"   "}`))
	}))
	defer server.Close()
	apiURL = server.URL

	client := NewClient("test-key", "whisper-1", store)
	if _, err := client.Transcribe(context.Background(), "recordings/rec.m4a", "fr-FR"); !errors.Is(err, transcribe.ErrTranscriptionFailed) {
		t.Fatalf("expected ErrTranscriptionFailed, got %v", err)
	}
}

func TestLanguageFromLocale(t *testing.T) {
	cases := map[string]string{
		"fr-FR": "fr",
		"fr_FR": "fr",
		"en-US": "en",
		"de":    "de",
		"":      "",
	}
	for locale, want := range cases {
		got, err := languageFromLocale(locale)
		if err != nil {
			t.Fatalf("locale %q: %v", locale, err)
		}
		if got != want {
			t.Fatalf("locale %q: expected %q, got %q", locale, want, got)
		}
	}

	if _, err := languageFromLocale("bad-locale-tag"); !errors.Is(err, transcribe.ErrLanguageUnsupported) {
		t.Fatalf("expected ErrLanguageUnsupported for malformed tag, got %v", err)
	}
}
