package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func resetHealth() {
	healthChecker = &HealthChecker{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
	}
}

func TestRegisterComponent(t *testing.T) {
	resetHealth()

	RegisterComponent("object-store", true, "ready")

	if len(healthChecker.components) != 1 {
		t.Errorf("expected 1 component, got %d", len(healthChecker.components))
	}

	comp := healthChecker.components["object-store"]
	if !comp.Healthy {
		t.Error("component should be healthy")
	}
	if comp.Message != "ready" {
		t.Errorf("expected message 'ready', got '%s'", comp.Message)
	}
}

func TestGetHealth_AllHealthy(t *testing.T) {
	resetHealth()
	healthChecker.version = "1.0.0"

	RegisterComponent("object-store", true, "ready")
	RegisterComponent("data-store", true, "connected")

	health := GetHealth()

	if health.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", health.Status)
	}
	if health.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", health.Version)
	}
	if len(health.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(health.Components))
	}
}

func TestGetHealth_Unhealthy(t *testing.T) {
	resetHealth()

	RegisterComponent("object-store", true, "ready")
	RegisterComponent("data-store", false, "connection refused")

	health := GetHealth()

	if health.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got '%s'", health.Status)
	}
	if health.Components["data-store"] != "unhealthy: connection refused" {
		t.Errorf("unexpected component status: %s", health.Components["data-store"])
	}
}

func TestGetHealth_NoComponents(t *testing.T) {
	resetHealth()

	health := GetHealth()
	if health.Status != "healthy" {
		t.Errorf("expected status 'healthy' with no components, got '%s'", health.Status)
	}
}

func TestUpdateComponent(t *testing.T) {
	resetHealth()

	RegisterComponent("auth", true, "configured")
	UpdateComponent("auth", false, "discovery failed")

	health := GetHealth()
	if health.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy' after update, got '%s'", health.Status)
	}
}

func TestDeregisterComponent(t *testing.T) {
	resetHealth()

	RegisterComponent("auth", false, "down")
	DeregisterComponent("auth")

	health := GetHealth()
	if health.Status != "healthy" {
		t.Errorf("expected status 'healthy' after deregister, got '%s'", health.Status)
	}
}

func TestGetReadiness_NoComponents(t *testing.T) {
	resetHealth()

	readiness := GetReadiness()
	if readiness.Status != "not_ready" {
		t.Errorf("expected 'not_ready' with no components, got '%s'", readiness.Status)
	}
}

func TestGetReadiness_Ready(t *testing.T) {
	resetHealth()

	RegisterComponent("provider", true, "resolved")

	readiness := GetReadiness()
	if readiness.Status != "ready" {
		t.Errorf("expected 'ready', got '%s'", readiness.Status)
	}
}

func TestGetReadiness_Waiting(t *testing.T) {
	resetHealth()

	RegisterComponent("provider", true, "resolved")
	RegisterComponent("data-store", false, "connecting")

	readiness := GetReadiness()
	if readiness.Status != "not_ready" {
		t.Errorf("expected 'not_ready', got '%s'", readiness.Status)
	}
	if readiness.Message != "waiting for data-store" {
		t.Errorf("unexpected message: %s", readiness.Message)
	}
}

func TestHealthHandler(t *testing.T) {
	resetHealth()
	RegisterComponent("provider", true, "resolved")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	HealthHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var health HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("expected 'healthy', got '%s'", health.Status)
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	resetHealth()
	RegisterComponent("provider", false, "unreachable")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	HealthHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestReadyHandler_NotReady(t *testing.T) {
	resetHealth()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	ReadyHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestLivenessHandler(t *testing.T) {
	resetHealth()

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()
	LivenessHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("expected 'alive', got '%s'", body["status"])
	}
}
