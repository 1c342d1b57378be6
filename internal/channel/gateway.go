// Package channel hosts the inbound surfaces of the receptionist: the HTTP
// gateway (chat, SMS, and voice webhooks), the Telegram poller, and an
// interactive terminal session. Every surface funnels into the same
// conversation handler.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"receptionist/internal/business"
	"receptionist/internal/domain"
	"receptionist/internal/speech"
)

// GatewayConfig configures the HTTP gateway.
type GatewayConfig struct {
	Host          string
	Port          int
	PublicBaseURL string        // absolute base for audio URLs handed to telephony; empty = relative
	StaticDir     string        // directory served under /static/
	ArtifactTTL   time.Duration // prune synthesized audio older than this; 0 disables pruning
	RecordSeconds int           // max caller recording length (default 30)
	Handler       domain.Handler
	Speech        *speech.Bridge // nil disables the voice endpoints
	Profile       *business.Profile
	Metrics       http.Handler // optional, mounted at /metrics
	Logger        *slog.Logger
}

// Gateway is the HTTP server exposing the chat, SMS, and voice webhooks.
type Gateway struct {
	host          string
	port          int
	publicBase    string
	staticDir     string
	artifactTTL   time.Duration
	recordSeconds int
	handler       domain.Handler
	speech        *speech.Bridge
	profile       *business.Profile
	metrics       http.Handler
	logger        *slog.Logger
	server        *http.Server
}

// NewGateway creates the HTTP gateway.
func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.RecordSeconds == 0 {
		cfg.RecordSeconds = 30
	}
	return &Gateway{
		host:          cfg.Host,
		port:          cfg.Port,
		publicBase:    strings.TrimRight(cfg.PublicBaseURL, "/"),
		staticDir:     cfg.StaticDir,
		artifactTTL:   cfg.ArtifactTTL,
		recordSeconds: cfg.RecordSeconds,
		handler:       cfg.Handler,
		speech:        cfg.Speech,
		profile:       cfg.Profile,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

func (g *Gateway) Name() string { return "gateway" }

var _ domain.Channel = (*Gateway)(nil)

// Routes builds the gateway's handler. Exposed separately so tests can drive
// it through httptest without binding a port.
func (g *Gateway) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", g.handleChat)
	mux.HandleFunc("POST /sms", g.handleSMS)
	mux.HandleFunc("POST /voice", g.handleVoice)
	mux.HandleFunc("POST /handle-recording", g.handleRecording)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(g.staticDir))))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	if g.metrics != nil {
		mux.Handle("GET /metrics", g.metrics)
	}
	return mux
}

// Start runs the server until ctx is cancelled.
func (g *Gateway) Start(ctx context.Context) error {
	g.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", g.host, g.port),
		Handler:           g.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if g.artifactTTL > 0 && g.speech != nil {
		go g.pruneLoop(ctx)
	}

	g.logger.Info("gateway starting", "addr", g.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		g.logger.Info("gateway shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return g.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("gateway server: %w", err)
	}
}

func (g *Gateway) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(g.artifactTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.speech.PruneArtifacts(g.artifactTTL); err != nil {
				g.logger.Warn("audio prune failed", "error", err)
			}
		}
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
	EventID  string `json:"event_id,omitempty"`
}

func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	defer r.Body.Close()

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := g.handler.Handle(r.Context(), domain.IncomingMessage{
		Channel:    domain.ChannelChat,
		ChatID:     r.RemoteAddr,
		Text:       req.Message,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		g.logger.Error("chat handling failed", "error", err)
		reply.Text = g.fallbackText(err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatResponse{Response: reply.Text, EventID: reply.EventID})
}

func (g *Gateway) handleSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(r.PostFormValue("Body"))
	if text == "" {
		http.Error(w, "Body is required", http.StatusBadRequest)
		return
	}

	reply, err := g.handler.Handle(r.Context(), domain.IncomingMessage{
		Channel:    domain.ChannelSMS,
		ChatID:     r.PostFormValue("From"),
		Text:       text,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		g.logger.Error("sms handling failed", "error", err)
		reply.Text = g.fallbackText(err)
	}

	g.writeTwiML(w, func() (string, error) { return smsReply(reply.Text) })
}

func (g *Gateway) handleVoice(w http.ResponseWriter, r *http.Request) {
	if g.speech == nil {
		http.Error(w, "voice is not configured", http.StatusNotImplemented)
		return
	}
	g.writeTwiML(w, func() (string, error) {
		return voiceGreeting(g.profile.VoiceGreeting, "/handle-recording", g.recordSeconds)
	})
}

func (g *Gateway) handleRecording(w http.ResponseWriter, r *http.Request) {
	if g.speech == nil {
		http.Error(w, "voice is not configured", http.StatusNotImplemented)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	recordingURL := r.PostFormValue("RecordingUrl")
	if recordingURL == "" {
		http.Error(w, "RecordingUrl is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	text, err := g.speech.TranscribeRecording(ctx, recordingURL)
	if err != nil {
		g.logger.Error("transcription failed", "error", err, "recording_url", recordingURL)
		g.writeTwiML(w, func() (string, error) { return voiceSay(g.fallbackText(err)) })
		return
	}

	reply, err := g.handler.Handle(ctx, domain.IncomingMessage{
		Channel:      domain.ChannelVoice,
		ChatID:       r.PostFormValue("From"),
		Text:         text,
		RecordingURL: recordingURL,
		ReceivedAt:   time.Now(),
	})
	if err != nil {
		g.logger.Error("voice handling failed", "error", err)
		reply.Text = g.fallbackText(err)
	}

	audioURL, err := g.speech.SynthesizeReply(ctx, reply.Text)
	if err != nil {
		// Degrade to <Say> so the caller still hears the answer.
		g.logger.Warn("synthesis failed, falling back to say", "error", err)
		g.writeTwiML(w, func() (string, error) { return voiceSay(reply.Text) })
		return
	}
	if g.publicBase != "" && strings.HasPrefix(audioURL, "/") {
		audioURL = g.publicBase + audioURL
	}

	g.writeTwiML(w, func() (string, error) { return voicePlayback(audioURL) })
}

func (g *Gateway) writeTwiML(w http.ResponseWriter, render func() (string, error)) {
	doc, err := render()
	if err != nil {
		g.logger.Error("twiml render failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, doc)
}

// fallbackText maps failures to the profile's fallback reply so a provider
// outage never reaches an end user as a raw error.
func (g *Gateway) fallbackText(err error) string {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		g.logger.Warn("upstream failure", "service", upstream.Service)
	}
	return g.profile.FallbackReply
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
