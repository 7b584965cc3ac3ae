package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"annonce-backend/internal/shared/storage/object"
	"annonce-backend/internal/transcribe"
)

var apiURL = "https://api.openai.com/v1/audio/transcriptions"

// Client implements transcribe.Transcriber against the OpenAI audio
// transcription endpoint. Recorded audio is read back from the object store
// by storage key. The response is always a final result.
type Client struct {
	apiKey string
	model  string
	store  object.ObjectStore
	http   *resty.Client
}

// NewClient constructs a transcription client. An empty API key is allowed;
// the permission gate then reports no grant and Transcribe refuses to run.
func NewClient(apiKey, model string, store object.ObjectStore) *Client {
	if model == "" {
		model = "whisper-1"
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		store:  store,
		http:   resty.New().SetTimeout(120 * time.Second),
	}
}

// RequestPermission reports whether the capability grant is present. There is
// no interactive prompt on a server; the grant is the configured credential.
func (c *Client) RequestPermission(ctx context.Context) bool {
	_ = ctx
	return c.HasPermission()
}

// HasPermission reports whether the capability credential is configured.
func (c *Client) HasPermission() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

type transcriptionResponse struct {
	Text  string `json:"text"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Transcribe uploads the stored audio and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audioKey, locale string) (string, error) {
	if !c.HasPermission() {
		return "", transcribe.ErrPermissionDenied
	}

	language, err := languageFromLocale(locale)
	if err != nil {
		return "", err
	}

	audio, err := c.store.Open(ctx, audioKey)
	if err != nil {
		return "", fmt.Errorf("%w: open audio: %v", transcribe.ErrTranscriptionFailed, err)
	}
	defer audio.Close()

	var parsed transcriptionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetFileReader("file", path.Base(audioKey), audio).
		SetMultipartFormData(map[string]string{
			"model":    c.model,
			"language": language,
		}).
		SetResult(&parsed).
		SetError(&parsed).
		Post(apiURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", transcribe.ErrUserCancelled
		}
		return "", fmt.Errorf("%w: %v", transcribe.ErrRecognitionUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return "", transcribe.ErrPermissionDenied
	case resp.StatusCode() >= 500:
		return "", fmt.Errorf("%w: http status %d", transcribe.ErrRecognitionUnavailable, resp.StatusCode())
	case resp.IsError():
		if parsed.Error != nil && strings.Contains(strings.ToLower(parsed.Error.Message), "language") {
			return "", fmt.Errorf("%w: %s", transcribe.ErrLanguageUnsupported, parsed.Error.Message)
		}
		msg := fmt.Sprintf("http status %d", resp.StatusCode())
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: %s", transcribe.ErrTranscriptionFailed, msg)
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty result", transcribe.ErrTranscriptionFailed)
	}
	return text, nil
}

// languageFromLocale maps a BCP 47 tag to the two-letter code the endpoint
// expects. An empty locale defers to the service's own detection.
func languageFromLocale(locale string) (string, error) {
	trimmed := strings.TrimSpace(locale)
	if trimmed == "" {
		return "", nil
	}
	base := trimmed
	for _, sep := range []string{"-", "_"} {
		if idx := strings.Index(base, sep); idx >= 0 {
			base = base[:idx]
		}
	}
	base = strings.ToLower(base)
	if len(base) != 2 {
		return "", fmt.Errorf("%w: %q", transcribe.ErrLanguageUnsupported, locale)
	}
	return base, nil
}

var _ transcribe.Transcriber = (*Client)(nil)
