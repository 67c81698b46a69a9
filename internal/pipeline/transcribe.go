package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aaronpeng2020/spext/internal/config"
	"github.com/aaronpeng2020/spext/internal/jsonpath"
	"github.com/aaronpeng2020/spext/internal/language"
)

// TranscribeRequest describes one clip upload.
type TranscribeRequest struct {
	Audio []byte
	// Language is a BCP-47 code or sentinel; only concrete languages are
	// forwarded to the endpoint.
	Language string
	// Prompt is the optional hint text. Empty means no prompt field.
	Prompt string
}

// Transcriber uploads WAV clips to a Whisper-style transcription endpoint
// and extracts the text from the JSON response.
type Transcriber struct {
	cfg        config.Config
	httpClient *http.Client
	log        *zap.Logger

	// postProcess runs on every trimmed transcript before it is returned.
	// Identity for now; the hook exists so cleanup steps slot in without
	// touching the retry loop.
	postProcess func(string) string
}

// NewTranscriber creates a transcriber sharing the given HTTP client.
func NewTranscriber(cfg config.Config, httpClient *http.Client, log *zap.Logger) *Transcriber {
	return &Transcriber{
		cfg:         cfg,
		httpClient:  httpClient,
		log:         log,
		postProcess: func(s string) string { return s },
	}
}

// Transcribe uploads the clip, retrying transient failures with a linearly
// growing delay. A 401 aborts immediately with an AuthError.
func (t *Transcriber) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	if len(req.Audio) == 0 {
		return "", fmt.Errorf("empty audio clip")
	}

	var lastErr error
	for attempt := 1; attempt <= t.cfg.MaxRetry+1; attempt++ {
		text, err := t.upload(ctx, req)
		if err == nil {
			return t.postProcess(strings.TrimSpace(text)), nil
		}
		var ae *AuthError
		if errors.As(err, &ae) {
			return "", err
		}
		if !transient(err) {
			return "", err
		}
		lastErr = err
		if attempt > t.cfg.MaxRetry {
			break
		}

		delay := time.Duration(t.cfg.RetryBaseDelay * float64(attempt) * float64(time.Second))
		t.log.Warn("transcription attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", &RetryExhaustedError{Attempts: t.cfg.MaxRetry + 1, MaxRetry: t.cfg.MaxRetry, LastErr: lastErr}
}

func (t *Transcriber) upload(ctx context.Context, req TranscribeRequest) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "clip.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}

	_ = writer.WriteField("model", t.cfg.WhisperModel)
	_ = writer.WriteField("response_format", "json")
	_ = writer.WriteField("temperature", strconv.FormatFloat(t.cfg.WhisperTemperature, 'f', -1, 64))
	if language.IsConcrete(req.Language) {
		_ = writer.WriteField("language", language.WhisperCode(req.Language))
	}
	if req.Prompt != "" {
		_ = writer.WriteField("prompt", req.Prompt)
	}
	_ = writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.TranscribeEndpoint, body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if key := t.cfg.TranscribeKey(); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}
	httpReq.Header.Set("User-Agent", "spext/1.0")

	start := time.Now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if t.cfg.UPLOAD_DEBUG {
		t.log.Debug("transcription response",
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("bytes", len(respBody)))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return "", &AuthError{Endpoint: t.cfg.TranscribeEndpoint}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{status: resp.StatusCode, body: truncate(string(respBody), 200)}
	}

	// An empty transcript is a valid answer (no speech in the clip); only a
	// response with no text field at all is malformed.
	text, ok := jsonpath.ExtractText(respBody, t.cfg.TEXTPath)
	if !ok {
		return "", fmt.Errorf("no text field in response (path %q)", t.cfg.TEXTPath)
	}
	return text, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
