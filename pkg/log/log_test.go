package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestChildLoggersCarryFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	cases := []struct {
		name   string
		logger zerolog.Logger
		field  string
		value  string
	}{
		{"component", WithComponent("booking"), "component", "booking"},
		{"node id", WithNodeID("node-1"), "node_id", "node-1"},
		{"show id", WithShowID("hamlet"), "show_id", "hamlet"},
		{"booking id", WithBookingID("txn-9"), "booking_id", "txn-9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			tc.logger.Info().Msg("event")

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
			}
			if entry[tc.field] != tc.value {
				t.Errorf("field %s = %v, want %s", tc.field, entry[tc.field], tc.value)
			}
			if entry["message"] != "event" {
				t.Errorf("message = %v, want event", entry["message"])
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: ErrorLevel, JSONOutput: true, Output: &buf})

	Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info line emitted at error level: %q", buf.String())
	}

	Error("emitted")
	if buf.Len() == 0 {
		t.Fatal("error line suppressed at error level")
	}
}
