package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultWhisperModel = "whisper-1"

// WhisperClient transcribes audio via an OpenAI-compatible
// /audio/transcriptions endpoint.
type WhisperClient struct {
	apiKey   string
	apiBase  string
	model    string
	language string
	client   *http.Client
	logger   *slog.Logger
}

type WhisperConfig struct {
	APIKey   string
	APIBase  string
	Model    string
	Language string // optional ISO-639-1 code
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewWhisperClient(cfg WhisperConfig) *WhisperClient {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &WhisperClient{
		apiKey:   cfg.APIKey,
		apiBase:  cfg.APIBase,
		model:    cfg.Model,
		language: cfg.Language,
		client:   newHTTPClient(cfg.Timeout),
		logger:   cfg.Logger,
	}
}

// Transcribe posts the audio bytes as a multipart form and returns the
// recognized text. filename must carry the audio extension the API uses to
// sniff the container format. The audio is buffered up front so the form
// can be rebuilt for each retry attempt.
func (w *WhisperClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	raw, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	buildReq := func() (*http.Request, error) {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)

		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(raw); err != nil {
			return nil, fmt.Errorf("write audio: %w", err)
		}
		writer.WriteField("model", w.model)
		writer.WriteField("response_format", "json")
		if w.language != "" {
			writer.WriteField("language", w.language)
		}
		writer.Close()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiBase+"/audio/transcriptions", &body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
		return req, nil
	}

	resp, err := doWithRetry(ctx, w.client, buildReq, w.logger)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}

	w.logger.Info("transcription complete", "text_len", len(result.Text))
	return result.Text, nil
}
