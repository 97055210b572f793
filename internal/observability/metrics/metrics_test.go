package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveTurn("greeting", "booking")
	m.ObserveTurn("greeting", "booking")
	m.ObserveTransition("greeting", "location_selection")
	m.ObserveTransition("service_selection", "service_selection")
	m.ObserveBooking("created")
	m.ObserveSlotQueryFailure()
	m.ObserveSlotDefaulted()
	m.ObserveTurnLatency("greeting", 0.01)
	m.SetActiveSessions(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]*dto.MetricFamily{}
	for _, f := range families {
		byName[f.GetName()] = f
	}

	turns := byName["geecurly_chat_turns_total"]
	if turns == nil || turns.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("expected two turns recorded, got %v", turns)
	}
	transitions := byName["geecurly_chat_transitions_total"]
	if transitions == nil || len(transitions.GetMetric()) != 1 {
		t.Fatalf("expected self-transition to be ignored, got %v", transitions)
	}
	if got := byName["geecurly_chat_active_sessions"].GetMetric()[0].GetGauge().GetValue(); got != 3 {
		t.Fatalf("expected 3 active sessions, got %v", got)
	}
	if got := byName["geecurly_chat_slot_defaulted_total"].GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected one defaulted slot, got %v", got)
	}
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveTurn("greeting", "general")
	m.ObserveTransition("a", "b")
	m.ObserveBooking("failed")
	m.ObserveSlotQueryFailure()
	m.ObserveSlotDefaulted()
	m.ObserveTurnLatency("greeting", 0.1)
	m.SetActiveSessions(1)
}
