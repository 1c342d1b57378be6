package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"receptionist/internal/audio"
	"receptionist/internal/domain"
)

type fakeTranscriber struct {
	text     string
	err      error
	gotName  string
	gotBytes []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, r io.Reader, filename string) (string, error) {
	f.gotName = filename
	f.gotBytes, _ = io.ReadAll(r)
	return f.text, f.err
}

type fakeSynthesizer struct {
	audio string
	err   error
}

func (f *fakeSynthesizer) Synthesize(context.Context, string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.audio)), nil
}

func testBridge(t *testing.T, tr domain.Transcriber, syn domain.Synthesizer) *Bridge {
	t.Helper()
	store, err := audio.NewStore(t.TempDir(), "/static")
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewBridge(Config{Transcriber: tr, Synthesizer: syn, Artifacts: store, Logger: logger})
}

func TestTranscribeRecording(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("wav-bytes"))
	}))
	defer srv.Close()

	tr := &fakeTranscriber{text: "I need an appointment"}
	b := testBridge(t, tr, &fakeSynthesizer{})

	text, err := b.TranscribeRecording(context.Background(), srv.URL+"/recordings/abc.wav")
	if err != nil {
		t.Fatalf("TranscribeRecording: %v", err)
	}
	if text != "I need an appointment" {
		t.Errorf("text = %q", text)
	}
	if tr.gotName != "abc.wav" {
		t.Errorf("filename = %q", tr.gotName)
	}
	if string(tr.gotBytes) != "wav-bytes" {
		t.Errorf("audio bytes = %q", tr.gotBytes)
	}
}

func TestTranscribeRecording_NoExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	tr := &fakeTranscriber{text: "hi"}
	b := testBridge(t, tr, &fakeSynthesizer{})

	if _, err := b.TranscribeRecording(context.Background(), srv.URL+"/recordings/RE123"); err != nil {
		t.Fatal(err)
	}
	if tr.gotName != "RE123.wav" {
		t.Errorf("filename = %q, want wav extension appended", tr.gotName)
	}
}

func TestTranscribeRecording_FetchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	b := testBridge(t, &fakeTranscriber{}, &fakeSynthesizer{})
	_, err := b.TranscribeRecording(context.Background(), srv.URL+"/missing.wav")

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) || upstream.Service != "transcribe" {
		t.Fatalf("want transcribe UpstreamError, got %v", err)
	}
}

func TestSynthesizeReply(t *testing.T) {
	b := testBridge(t, &fakeTranscriber{}, &fakeSynthesizer{audio: "mp3"})

	url, err := b.SynthesizeReply(context.Background(), "your appointment is booked")
	if err != nil {
		t.Fatalf("SynthesizeReply: %v", err)
	}
	if !strings.HasPrefix(url, "/static/") || !strings.HasSuffix(url, ".mp3") {
		t.Errorf("url = %q", url)
	}
}

func TestSynthesizeReply_UpstreamFailure(t *testing.T) {
	b := testBridge(t, &fakeTranscriber{}, &fakeSynthesizer{err: errors.New("boom")})

	_, err := b.SynthesizeReply(context.Background(), "text")
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) || upstream.Service != "synthesize" {
		t.Fatalf("want synthesize UpstreamError, got %v", err)
	}
}
