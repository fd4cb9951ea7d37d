package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	podledger "arboretum/contexts/garden-core/pod-ledger"
	rewarddistributor "arboretum/contexts/garden-core/reward-distributor"
	"arboretum/internal/platform/messaging"
)

func newTestServer() *Server {
	bus, _ := messaging.NewKafka(nil, nil)
	pods := podledger.NewInMemoryModule(nil)
	rewards := rewarddistributor.NewInMemoryModule("authority", "garden", nil)
	return New(pods, rewards, bus, nil, ":0")
}

func TestCreatePodRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/garden/pods", bytes.NewReader([]byte(`{"amount":100}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestShakeRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/garden/rewards/shake", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestTweakParametersRejectsNonAuthority(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"growth_multiplier":2,"minimum_blocks_for_reward":5,"max_reward_basis_points":1000}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/garden/parameters", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "gardener_1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreatePodMapsTransferFailure(t *testing.T) {
	server := newTestServer()
	// No balance has been seeded, so the deposit debit is rejected.
	req := httptest.NewRequest(http.MethodPost, "/v1/garden/pods", bytes.NewReader([]byte(`{"amount":100}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "gardener_1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetPodUnknownIDReturnsNotFound(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/v1/garden/pods/42", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestShakeEmptyPoolMapsToConflict(t *testing.T) {
	server := newTestServer()
	server.rewards.Store.AdvanceBlocks(11)

	req := httptest.NewRequest(http.MethodPost, "/v1/garden/rewards/shake", nil)
	req.Header.Set("X-User-Id", "gardener_1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestShakeCooldownMapsToTooManyRequests(t *testing.T) {
	server := newTestServer()
	_ = server.rewards.Store.Credit(context.Background(), "funder_1", 1000)
	_ = server.rewards.Store.SetPoolBalance(context.Background(), 1000)

	req := httptest.NewRequest(http.MethodPost, "/v1/garden/rewards/shake", nil)
	req.Header.Set("X-User-Id", "gardener_1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestParametersRoundTrip(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/v1/garden/parameters", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data struct {
			GrowthMultiplier       uint64 `json:"growth_multiplier"`
			MinimumBlocksForReward uint64 `json:"minimum_blocks_for_reward"`
			MaxRewardBasisPoints   uint64 `json:"max_reward_basis_points"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.Data.GrowthMultiplier != 1 || resp.Data.MinimumBlocksForReward != 10 || resp.Data.MaxRewardBasisPoints != 1000 {
		t.Fatalf("unexpected default parameters: %+v", resp.Data)
	}
}
