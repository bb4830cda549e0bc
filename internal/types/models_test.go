// internal/types/models_test.go
package types

import "testing"

func TestAIOffline(t *testing.T) {
	tests := []struct {
		name   string
		status HealthStatus
		want   bool
	}{
		{"unknown before mount", UnknownHealth(), false},
		{"healthy with llm", HealthStatus{Status: HealthHealthy, Services: map[string]bool{LLMService: true}}, false},
		{"healthy without llm key", HealthStatus{Status: HealthHealthy, Services: map[string]bool{"vector_store": true}}, false},
		{"llm reported down", HealthStatus{Status: HealthHealthy, Services: map[string]bool{LLMService: false}}, true},
		{"unreachable backend", HealthStatus{Status: HealthUnhealthy}, true},
		{"unhealthy but llm reported up", HealthStatus{Status: HealthUnhealthy, Services: map[string]bool{LLMService: true}}, false},
		{"unhealthy without llm key", HealthStatus{Status: HealthUnhealthy, Services: map[string]bool{"vector_store": false}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.AIOffline(); got != tt.want {
				t.Errorf("AIOffline() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceAvailable(t *testing.T) {
	h := HealthStatus{Status: HealthHealthy, Services: map[string]bool{"vector_store": false}}

	available, known := h.ServiceAvailable("vector_store")
	if !known || available {
		t.Errorf("expected known unavailable, got available=%v known=%v", available, known)
	}
	if _, known := h.ServiceAvailable("document_processor"); known {
		t.Error("expected unreported service to be unknown")
	}
}

func TestParseConfidence(t *testing.T) {
	if ParseConfidence("high") != ConfidenceHigh {
		t.Error("expected high")
	}
	if ParseConfidence("LOW") != "" {
		t.Error("expected case-sensitive match to drop LOW")
	}
	if ParseConfidence("") != "" {
		t.Error("expected empty confidence for empty input")
	}
}
