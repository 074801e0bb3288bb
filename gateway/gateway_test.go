package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/foodtrace/asset"
	"github.com/c360studio/foodtrace/contract"
	"github.com/c360studio/foodtrace/ledger/memledger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := contract.New(memledger.New(), logger)
	srv := NewServer(core, nil, "", "", logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, org, user, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if org != "" {
		req.Header.Set(HeaderOrganisation, org)
		req.Header.Set(HeaderUser, user)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func createAsset(t *testing.T, ts *httptest.Server, org, user, seed string) string {
	t.Helper()

	body := `{"type":"Chicken","location":"Cranfield","weight":0.5,"temperature":18,"useByDate":"23/12/23","seed":"` + seed + `"}`
	resp := doRequest(t, ts, http.MethodPost, "/api/assets", org, user, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var receipt contract.Receipt
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))
	require.Equal(t, contract.OpCreateAsset, receipt.Operation)
	require.NotEmpty(t, receipt.AssetID)
	return receipt.AssetID
}

func TestCreateAndRead(t *testing.T) {
	ts := newTestServer(t)
	id := createAsset(t, ts, "Org1", "alice", "2023-01-01")

	resp := doRequest(t, ts, http.MethodGet, "/api/assets/"+id, "Org1", "alice", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var a asset.Asset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&a))
	require.Equal(t, id, a.ID)
	require.Equal(t, "Org1", a.OwnerOrg)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	id := createAsset(t, ts, "Org1", "alice", "2023-01-01")

	t.Run("unknown asset is 404", func(t *testing.T) {
		resp := doRequest(t, ts, http.MethodGet, "/api/assets/no-such-id", "Org1", "alice", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("foreign organisation is 403", func(t *testing.T) {
		resp := doRequest(t, ts, http.MethodGet, "/api/assets/"+id, "Org2", "bob", "")
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("duplicate creation is 409", func(t *testing.T) {
		body := `{"type":"Chicken","location":"Cranfield","weight":0.5,"temperature":18,"useByDate":"23/12/23","seed":"2023-01-01"}`
		resp := doRequest(t, ts, http.MethodPost, "/api/assets", "Org1", "alice", body)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("completion without a pending transfer is 409", func(t *testing.T) {
		body := `{"new_owner_user":"bob","location":"London","temperature":4,"weight":0.45}`
		resp := doRequest(t, ts, http.MethodPost, "/api/assets/"+id+"/transfer-complete", "Org2", "bob", body)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		resp := doRequest(t, ts, http.MethodPost, "/api/assets", "Org1", "alice", "{not json")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing identity is 403", func(t *testing.T) {
		resp := doRequest(t, ts, http.MethodGet, "/api/assets/"+id, "", "", "")
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestTransferHandshakeOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	id := createAsset(t, ts, "Org1", "alice", "2023-01-01")

	resp := doRequest(t, ts, http.MethodPost, "/api/assets/"+id+"/transfer-request", "Org1", "alice", `{"target_org":"Org2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := `{"new_owner_user":"bob","location":"London","temperature":4,"weight":0.45}`
	resp = doRequest(t, ts, http.MethodPost, "/api/assets/"+id+"/transfer-complete", "Org2", "bob", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var receipt contract.Receipt
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))
	require.Equal(t, "Org1", receipt.From)
	require.Equal(t, "Org2", receipt.To)

	resp = doRequest(t, ts, http.MethodGet, "/api/assets", "Org2", "bob", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var assets []asset.Asset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&assets))
	require.Len(t, assets, 1)
	require.Equal(t, "Org2", assets[0].OwnerOrg)
}

func TestListIsOrganisationScoped(t *testing.T) {
	ts := newTestServer(t)
	createAsset(t, ts, "Org1", "alice", "a")
	createAsset(t, ts, "Org2", "bob", "b")

	resp := doRequest(t, ts, http.MethodGet, "/api/assets", "Org1", "alice", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var assets []asset.Asset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&assets))
	require.Len(t, assets, 1)
	require.Equal(t, "Org1", assets[0].OwnerOrg)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	createAsset(t, ts, "Org1", "alice", "a")

	resp := doRequest(t, ts, http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), "foodtrace_operations_total")
}
