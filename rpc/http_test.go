package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"farmercore/core/runtime"
	"farmercore/core/state"
	"farmercore/crypto"
	"farmercore/native/farmer"
	"farmercore/storage"
	"farmercore/storage/trie"
)

func newTestRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	rt, err := runtime.New(state.NewManager(tr))
	require.NoError(t, err)
	require.NoError(t, rt.Register(farmer.NewProgram(farmer.ProgramID)))
	return rt
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	srv := NewServer(newTestRuntime(t), farmer.ProgramID, nil)
	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestConfigNotFoundBeforeInitialize(t *testing.T) {
	srv := NewServer(newTestRuntime(t), farmer.ProgramID, nil)
	rec := get(t, srv, "/v1/config")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, uint32(6000), body.Code)
	require.Equal(t, "NotFound", body.Name)
}

func TestConfigAfterInitialize(t *testing.T) {
	rt := newTestRuntime(t)
	admin, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	require.NoError(t, rt.Fund(admin.PubKey(), 1_000_000_000))

	mint := crypto.Pubkey{0x33}
	ix, err := farmer.NewInitializeInstruction(farmer.ProgramID, admin.PubKey(), farmer.InitializeArgs{
		FeeWallet:            crypto.Pubkey{0xfe},
		AllowedPaymentTokens: []crypto.Pubkey{mint},
	})
	require.NoError(t, err)
	tx := runtime.NewTransaction(1, ix)
	require.NoError(t, tx.Sign(admin))
	_, err = rt.Execute(context.Background(), tx)
	require.NoError(t, err)

	srv := NewServer(rt, farmer.ProgramID, nil)
	rec := get(t, srv, "/v1/config")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, admin.PubKey().String(), body.Admin)
	require.Equal(t, []string{mint.String()}, body.AllowedPaymentTokens)
	require.False(t, body.Paused)
	require.Equal(t, rt.Slot(), body.Slot)

	addr, bump, err := farmer.ConfigAddress(farmer.ProgramID)
	require.NoError(t, err)
	require.Equal(t, addr.String(), body.Address)
	require.Equal(t, bump, body.Bump)
}

func TestConfigAddress(t *testing.T) {
	srv := NewServer(newTestRuntime(t), farmer.ProgramID, nil)
	rec := get(t, srv, "/v1/config/address")
	require.Equal(t, http.StatusOK, rec.Code)

	var body AddressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, farmer.ProgramID.String(), body.ProgramID)
	require.Equal(t, []string{"config"}, body.Seeds)
}

func TestMetricsExposed(t *testing.T) {
	srv := NewServer(newTestRuntime(t), farmer.ProgramID, nil)
	get(t, srv, "/healthz")
	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	if !strings.Contains(rec.Body.String(), "farmercore_http_requests_total") {
		t.Fatalf("http metrics missing from /metrics output")
	}
}
