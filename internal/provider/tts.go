package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultTTSModel = "tts-1"
	defaultTTSVoice = "alloy"
)

// TTSClient synthesizes speech via an OpenAI-compatible /audio/speech
// endpoint. The response body is MP3 audio.
type TTSClient struct {
	apiKey  string
	apiBase string
	model   string
	voice   string
	client  *http.Client
	logger  *slog.Logger
}

type TTSConfig struct {
	APIKey  string
	APIBase string
	Model   string
	Voice   string
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewTTSClient(cfg TTSConfig) *TTSClient {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = defaultTTSModel
	}
	if cfg.Voice == "" {
		cfg.Voice = defaultTTSVoice
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &TTSClient{
		apiKey:  cfg.APIKey,
		apiBase: cfg.APIBase,
		model:   cfg.Model,
		voice:   cfg.Voice,
		client:  newHTTPClient(cfg.Timeout),
		logger:  cfg.Logger,
	}
}

// Synthesize converts text to MP3 audio. The caller owns the returned body.
func (t *TTSClient) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	body, err := json.Marshal(map[string]string{
		"model": t.model,
		"input": text,
		"voice": t.voice,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	buildReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiBase+"/audio/speech", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
		return req, nil
	}

	resp, err := doWithRetry(ctx, t.client, buildReq, t.logger)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("speech %d: %s", resp.StatusCode, string(respBody))
	}

	t.logger.Debug("speech synthesized", "text_len", len(text), "voice", t.voice)
	return resp.Body, nil
}
