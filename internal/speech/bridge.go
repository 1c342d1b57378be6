// Package speech pairs the transcription and synthesis capabilities for the
// voice channel: recording URL in, reply audio URL out.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"receptionist/internal/audio"
	"receptionist/internal/domain"
)

// Bridge fetches call recordings, transcribes them, and turns reply text
// into served audio artifacts.
type Bridge struct {
	transcriber domain.Transcriber
	synthesizer domain.Synthesizer
	artifacts   *audio.Store
	client      *http.Client
	logger      *slog.Logger
}

type Config struct {
	Transcriber domain.Transcriber
	Synthesizer domain.Synthesizer
	Artifacts   *audio.Store
	Logger      *slog.Logger
}

func NewBridge(cfg Config) *Bridge {
	return &Bridge{
		transcriber: cfg.Transcriber,
		synthesizer: cfg.Synthesizer,
		artifacts:   cfg.Artifacts,
		client:      &http.Client{Timeout: 60 * time.Second},
		logger:      cfg.Logger,
	}
}

// TranscribeRecording downloads the recording and hands the bytes to the
// transcription backend.
func (b *Bridge) TranscribeRecording(ctx context.Context, recordingURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return "", fmt.Errorf("recording request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", &domain.UpstreamError{Service: "transcribe", Err: fmt.Errorf("fetch recording: %w", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &domain.UpstreamError{
			Service: "transcribe",
			Err:     fmt.Errorf("fetch recording: status %d", resp.StatusCode),
		}
	}

	filename := path.Base(req.URL.Path)
	if path.Ext(filename) == "" {
		filename += ".wav"
	}

	text, err := b.transcriber.Transcribe(ctx, resp.Body, filename)
	if err != nil {
		return "", &domain.UpstreamError{Service: "transcribe", Err: err}
	}

	b.logger.Info("recording transcribed", "url", recordingURL, "text_len", len(text))
	return text, nil
}

// SynthesizeReply renders text to speech and stores it as a uniquely named
// artifact, returning the URL path the gateway serves it from.
func (b *Bridge) SynthesizeReply(ctx context.Context, text string) (string, error) {
	stream, err := b.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return "", &domain.UpstreamError{Service: "synthesize", Err: err}
	}
	defer stream.Close()

	url, err := b.artifacts.Save(stream)
	if err != nil {
		return "", fmt.Errorf("store reply audio: %w", err)
	}

	b.logger.Info("reply synthesized", "audio_url", url, "text_len", len(text))
	return url, nil
}

// PruneArtifacts removes stored reply audio older than maxAge.
func (b *Bridge) PruneArtifacts(maxAge time.Duration) error {
	removed, err := b.artifacts.Prune(maxAge)
	if removed > 0 {
		b.logger.Info("pruned reply audio", "removed", removed)
	}
	return err
}
