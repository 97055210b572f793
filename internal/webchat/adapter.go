package webchat

import (
	"time"

	"github.com/wolfman30/geecurly-receptionist/internal/receptionist"
	"github.com/wolfman30/geecurly-receptionist/internal/transcript"
)

func historyFromMessages(msgs []receptionist.Message) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, HistoryMessage{
			Sender:     m.Sender,
			Text:       m.Text,
			Type:       string(m.Type),
			Timestamp:  m.Timestamp.UTC().Format(time.RFC3339),
			Confidence: m.Confidence,
		})
	}
	return out
}

func historyFromEntries(entries []transcript.Entry) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryMessage{
			Sender:     e.Sender,
			Text:       e.Text,
			Type:       e.Type,
			Step:       e.Step,
			Timestamp:  e.Timestamp.UTC().Format(time.RFC3339),
			Confidence: e.Confidence,
		})
	}
	return out
}
