package utils

import (
	"context"
	"testing"
)

func TestLogPipeline_NoBrokers(t *testing.T) {
	cases := []struct {
		name    string
		brokers []string
	}{
		{"nil brokers", nil},
		{"single empty entry from splitting an unset env var", []string{""}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := &LogPipeline{Brokers: c.brokers, Topic: "logs", GroupID: "es-pusher", Index: "logs"}
			if err := p.Run(context.Background()); err == nil {
				t.Error("expected an error for missing brokers")
			}
		})
	}
}
