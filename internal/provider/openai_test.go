package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestChatClient_Complete(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "We open at 9am."}},
			},
		})
	}))
	defer srv.Close()

	c := NewChatClient(ChatConfig{APIKey: "test-key", APIBase: srv.URL, Logger: testLogger()})
	reply, err := c.Complete(context.Background(), "system prompt", "What are your hours?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "We open at 9am." {
		t.Errorf("reply = %q", reply)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("unexpected message shape: %+v", gotReq.Messages)
	}
}

func TestChatClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewChatClient(ChatConfig{APIKey: "wrong", APIBase: srv.URL, Logger: testLogger()})
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestChatClient_RetriesTransientFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	c := NewChatClient(ChatConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	reply, err := c.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "ok" || attempts != 2 {
		t.Errorf("reply=%q attempts=%d", reply, attempts)
	}
}

func TestWhisperClient_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatal(err)
		}
		defer file.Close()
		if header.Filename != "recording.wav" {
			t.Errorf("filename = %q", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "book me for tomorrow"})
	}))
	defer srv.Close()

	c := NewWhisperClient(WhisperConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	text, err := c.Transcribe(context.Background(), strings.NewReader("fake-audio"), "recording.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "book me for tomorrow" {
		t.Errorf("text = %q", text)
	}
}

func TestTTSClient_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["input"] != "hello there" || body["voice"] != "alloy" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := NewTTSClient(TTSConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	rc, err := c.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "mp3-bytes" {
		t.Errorf("audio = %q", data)
	}
}

func TestTTSClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "input too long", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewTTSClient(TTSConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	if _, err := c.Synthesize(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on 400")
	}
}

// The speech endpoints ride the same retry policy as chat completions.
func TestWhisperClient_RetriesTransientFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		// The multipart form must survive the rebuild for the second attempt.
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatal(err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "fake-audio" {
			t.Errorf("audio bytes on retry = %q", data)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello"})
	}))
	defer srv.Close()

	c := NewWhisperClient(WhisperConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	text, err := c.Transcribe(context.Background(), strings.NewReader("fake-audio"), "rec.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello" || attempts != 2 {
		t.Errorf("text=%q attempts=%d", text, attempts)
	}
}

func TestTTSClient_RetriesTransientFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "try again", http.StatusTooManyRequests)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"input":"hi"`) {
			t.Errorf("request body on retry = %s", body)
		}
		w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	c := NewTTSClient(TTSConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	rc, err := c.Synthesize(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "mp3" || attempts != 2 {
		t.Errorf("audio=%q attempts=%d", data, attempts)
	}
}
