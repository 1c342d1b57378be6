package channel

import (
	"strings"
	"testing"
)

func TestSMSReplyEscapes(t *testing.T) {
	doc, err := smsReply(`we're open <always> & free`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(doc, "<?xml") {
		t.Errorf("missing xml declaration: %s", doc)
	}
	if !strings.Contains(doc, "we&#39;re open &lt;always&gt; &amp; free") {
		t.Errorf("content not escaped: %s", doc)
	}
}

func TestVoiceGreetingVerbs(t *testing.T) {
	doc, err := voiceGreeting("Thanks for calling.", "/handle-recording", 30)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"<Say>Thanks for calling.</Say>",
		`action="/handle-recording"`,
		`method="POST"`,
		`maxLength="30"`,
		`playBeep="true"`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("missing %q in: %s", want, doc)
		}
	}
}

func TestVoicePlayback(t *testing.T) {
	doc, err := voicePlayback("/static/abc.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc, "<Play>/static/abc.mp3</Play>") {
		t.Errorf("missing play verb: %s", doc)
	}
	if !strings.Contains(doc, "<Hangup") {
		t.Errorf("missing hangup: %s", doc)
	}
}
