package jsonrpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanteakoisi/GreenPledge/config"
	"github.com/kanteakoisi/GreenPledge/db"
	"github.com/kanteakoisi/GreenPledge/events"
	"github.com/kanteakoisi/GreenPledge/ledger"
	"github.com/kanteakoisi/GreenPledge/store"
)

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	provider := db.NewMemoryProvider()
	creditStore, err := store.NewGenericCreditStore(provider)
	require.NoError(t, err)
	journalStore, err := store.NewGenericJournalStore(provider)
	require.NoError(t, err)
	stateStore, err := store.NewGenericStateStore(provider)
	require.NoError(t, err)

	lgr := ledger.NewLedger(creditStore, journalStore, stateStore, provider, events.NewEventBus(), ledger.NewManualClock(1))
	require.NoError(t, lgr.Initialize(&config.GenesisConfig{Admin: "admin-1"}))

	mux := http.NewServeMux()
	server := NewServer(":0", lgr)
	server.Start(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method string, params interface{}) rpcResponse {
	t.Helper()

	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		body["params"] = params
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGetInfo(t *testing.T) {
	ts := newTestServer(t)

	resp := call(t, ts, "ledger.getInfo", nil)
	require.Nil(t, resp.Error)

	var info infoResult
	require.NoError(t, json.Unmarshal(resp.Result, &info))
	assert.Equal(t, config.CreditName, info.Name)
	assert.Equal(t, config.CreditSymbol, info.Symbol)
	assert.Equal(t, uint8(0), info.Decimals)
}

func TestMintAndQueryFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := call(t, ts, "ledger.addMinter", map[string]string{"caller": "admin-1", "target": "minter-1"})
	require.Nil(t, resp.Error)

	resp = call(t, ts, "ledger.mint", map[string]string{
		"caller":    "minter-1",
		"amount":    "1000",
		"recipient": "holder-r",
		"metadata":  "verified milestone",
	})
	require.Nil(t, resp.Error)
	var minted mintResult
	require.NoError(t, json.Unmarshal(resp.Result, &minted))
	assert.Equal(t, uint64(0), minted.RecordIndex)

	resp = call(t, ts, "ledger.getBalance", map[string]string{"identity": "holder-r"})
	require.Nil(t, resp.Error)
	var balance balanceResult
	require.NoError(t, json.Unmarshal(resp.Result, &balance))
	assert.Equal(t, "1000", balance.Balance)

	resp = call(t, ts, "ledger.getTotalSupply", nil)
	require.Nil(t, resp.Error)
	var supply totalSupplyResult
	require.NoError(t, json.Unmarshal(resp.Result, &supply))
	assert.Equal(t, "1000", supply.TotalSupply)

	resp = call(t, ts, "ledger.verifyCredit", map[string]interface{}{
		"index":     0,
		"recipient": "holder-r",
		"amount":    "1000",
	})
	require.Nil(t, resp.Error)

	resp = call(t, ts, "ledger.getMintRecord", map[string]interface{}{"index": 0})
	require.Nil(t, resp.Error)
	var record mintRecordResult
	require.NoError(t, json.Unmarshal(resp.Result, &record))
	assert.Equal(t, "1000", record.Amount)
	assert.Equal(t, "holder-r", record.Recipient)
	assert.Equal(t, "verified milestone", record.Metadata)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	// non-minter mint surfaces the categorical code in the error data
	resp := call(t, ts, "ledger.mint", map[string]string{
		"caller":    "stranger-u",
		"amount":    "10",
		"recipient": "holder-r",
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32002, resp.Error.Code)

	var data struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(resp.Error.Data, &data))
	assert.Equal(t, "invalid_minter", data.Code)

	// malformed amount is rejected before hitting the ledger
	resp = call(t, ts, "ledger.mint", map[string]string{
		"caller":    "admin-1",
		"amount":    "not-a-number",
		"recipient": "holder-r",
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32010, resp.Error.Code)

	// missing record
	resp = call(t, ts, "ledger.getMintRecord", map[string]interface{}{"index": 5})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32006, resp.Error.Code)

	// pause gate surfaces through the transport too
	resp = call(t, ts, "ledger.pause", map[string]string{"caller": "admin-1"})
	require.Nil(t, resp.Error)
	resp = call(t, ts, "ledger.burn", map[string]string{"caller": "holder-r", "amount": "1"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32003, resp.Error.Code)
}
