package channel

import (
	"encoding/xml"
	"fmt"
)

// TwiML response documents for the SMS and voice webhooks.

type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

type voiceResponse struct {
	XMLName xml.Name    `xml:"Response"`
	Say     []string    `xml:"Say,omitempty"`
	Record  *recordVerb `xml:"Record,omitempty"`
	Play    string      `xml:"Play,omitempty"`
	Hangup  *struct{}   `xml:"Hangup,omitempty"`
}

type recordVerb struct {
	Action    string `xml:"action,attr"`
	Method    string `xml:"method,attr,omitempty"`
	MaxLength int    `xml:"maxLength,attr,omitempty"`
	PlayBeep  bool   `xml:"playBeep,attr"`
}

// renderTwiML serializes v with the XML declaration TwiML consumers expect.
func renderTwiML(v any) (string, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal twiml: %w", err)
	}
	return xml.Header + string(body) + "\n", nil
}

// smsReply renders a one-message SMS response.
func smsReply(text string) (string, error) {
	return renderTwiML(messagingResponse{Message: text})
}

// voiceGreeting asks the caller to speak and records the answer.
func voiceGreeting(greeting, recordAction string, maxSeconds int) (string, error) {
	return renderTwiML(voiceResponse{
		Say: []string{greeting},
		Record: &recordVerb{
			Action:    recordAction,
			Method:    "POST",
			MaxLength: maxSeconds,
			PlayBeep:  true,
		},
	})
}

// voicePlayback plays a synthesized audio file back to the caller.
func voicePlayback(audioURL string) (string, error) {
	return renderTwiML(voiceResponse{Play: audioURL, Hangup: &struct{}{}})
}

// voiceSay speaks text directly, used when synthesis is unavailable.
func voiceSay(text string) (string, error) {
	return renderTwiML(voiceResponse{Say: []string{text}, Hangup: &struct{}{}})
}
