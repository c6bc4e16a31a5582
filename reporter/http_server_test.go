package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/TEENet-io/ordinals-go/btcman/assembler"
	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/rpc"
	"github.com/TEENet-io/ordinals-go/ordinals"
	"github.com/TEENet-io/ordinals-go/store"
)

const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// offlineNode is a node that cannot be reached.
type offlineNode struct {
	*rpc.MockNodeClient
}

func (n *offlineNode) CheckConnection(ctx context.Context) bool {
	return false
}

type fixture struct {
	router *gin.Engine
	store  *store.SQLiteStore
	wif    string
	addr   string
	twif   string // testnet
	taddr  string
}

func newSigner(t *testing.T, net network.Network) (string, string) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	wif, err := btcutil.NewWIF(privKey, net.Params(), true)
	require.NoError(t, err)
	op, err := assembler.NewTaprootOperator(wif.String(), net)
	require.NoError(t, err)
	return wif.String(), op.P2TR.EncodeAddress()
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, network.Mainnet, map[network.Network]rpc.NodeClient{
		network.Mainnet: rpc.NewMockNodeClient(network.Mainnet),
		network.Regtest: &offlineNode{rpc.NewMockNodeClient(network.Regtest)},
	})
}

func newFixtureWith(t *testing.T, def network.Network, nodes map[network.Network]rpc.NodeClient) *fixture {
	gin.SetMode(gin.TestMode)
	network.SetDefault(def)
	t.Cleanup(func() { network.SetDefault(network.Mainnet) })

	st, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := ordinals.NewService(nodes)

	f := &fixture{
		router: NewHttpReporter("127.0.0.1", "0", svc, st).SetupRouter(),
		store:  st,
	}
	f.wif, f.addr = newSigner(t, network.Mainnet)
	f.twif, f.taddr = newSigner(t, network.Testnet)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (int, gjson.Result, http.Header) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w.Code, gjson.Parse(w.Body.String()), w.Header()
}

func (f *fixture) ordinalBody() map[string]interface{} {
	return map[string]interface{}{
		"bitcoinAddress": f.addr,
		"privateKey":     f.wif,
		"name":           "Test",
		"image":          pngDataURL,
		"attributes":     []map[string]interface{}{{"trait_type": "eyes", "value": "laser"}},
	}
}

func TestCreateAndGetOrdinal(t *testing.T) {
	f := newFixture(t)

	code, res, header := f.do(t, http.MethodPost, "/api/v1/ordinals", f.ordinalBody())
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.True(t, res.Get("success").Bool())

	data := res.Get("data")
	id := data.Get("id").String()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Len(t, data.Get("txid").String(), 64)
	assert.Equal(t, data.Get("txid").String()+"i0", data.Get("inscription").String())
	assert.Equal(t, "pending", data.Get("status").String())
	assert.Equal(t, "mainnet", data.Get("network").String())
	// default fee rate of ordinals
	assert.Equal(t, data.Get("vsize").Int()*ordinals.DefaultOrdinalFeeRate, data.Get("fees").Int())
	_, err = uuid.Parse(header.Get(HEADER_REQUEST_ID))
	assert.NoError(t, err)

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/ordinals/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Test", res.Get("data.name").String())
	assert.Equal(t, "laser", res.Get("data.attributes.0.value").String())
	assert.Equal(t, data.Get("txid").String(), res.Get("data.txid").String())
	assert.Equal(t, "pending", res.Get("data.status").String())

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/ordinals?bitcoinAddress="+f.addr, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Get("data").Array(), 1)

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/ordinals?bitcoinAddress=nobody", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Get("data").IsArray())
	assert.Empty(t, res.Get("data").Array())
}

func TestCreateOrdinalErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		edit   func(body map[string]interface{})
		status int
		code   string
	}{
		{"missing name", func(b map[string]interface{}) { delete(b, "name") }, http.StatusBadRequest, CODE_INVALID_PARAMETERS},
		{"bad checksum", func(b map[string]interface{}) {
			b["bitcoinAddress"] = "bc1p9yfwlm0w3vlczd7xzz3au0g08wnf89u838z3fvz90zkct7t2f9tqgskn6s"
		}, http.StatusBadRequest, string(ordinals.CodeInvalidAddress)},
		{"testnet address", func(b map[string]interface{}) {
			b["bitcoinAddress"] = f.taddr
			b["useTestnet"] = false
		}, http.StatusBadRequest, string(ordinals.CodeNetworkMismatch)},
		{"fee rate", func(b map[string]interface{}) { b["feeRate"] = 0 }, http.StatusBadRequest, string(ordinals.CodeInvalidFeeRate)},
		{"bad image", func(b map[string]interface{}) { b["image"] = "nope" }, http.StatusBadRequest, string(ordinals.CodeInvalidDataURL)},
		{"unknown collection", func(b map[string]interface{}) { b["collectionId"] = uuid.NewString() }, http.StatusBadRequest, CODE_INVALID_PARAMETERS},
		{"no node for testnet", func(b map[string]interface{}) {
			b["bitcoinAddress"] = f.taddr
			b["privateKey"] = f.twif
			b["useTestnet"] = true
		}, http.StatusServiceUnavailable, string(ordinals.CodeNodeUnavailable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := f.ordinalBody()
			tt.edit(body)
			code, res, _ := f.do(t, http.MethodPost, "/api/v1/ordinals", body)
			assert.Equal(t, tt.status, code, res.Raw)
			assert.False(t, res.Get("success").Bool())
			assert.Equal(t, tt.code, res.Get("error.code").String())
			assert.NotContains(t, res.Raw, f.wif)
		})
	}

	list, err := f.store.ListOrdinals(context.Background(), store.OrdinalFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetOrdinalErrors(t *testing.T) {
	f := newFixture(t)

	code, res, _ := f.do(t, http.MethodGet, "/api/v1/ordinals/42", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CODE_INVALID_ID, res.Get("error.code").String())

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/ordinals/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, CODE_NOT_FOUND, res.Get("error.code").String())
}

func TestCollectionFlow(t *testing.T) {
	f := newFixture(t)

	code, res, _ := f.do(t, http.MethodPost, "/api/v1/collections", map[string]interface{}{
		"bitcoinAddress": f.addr,
		"privateKey":     f.wif,
		"name":           "Punks",
		"symbol":         "PNK",
		"image":          pngDataURL,
	})
	require.Equal(t, http.StatusOK, code, res.Raw)
	colID := res.Get("data.id").String()
	assert.Equal(t, res.Get("data.vsize").Int()*ordinals.DefaultCollectionFeeRate, res.Get("data.fees").Int())

	body := f.ordinalBody()
	body["collectionId"] = colID
	code, res, _ = f.do(t, http.MethodPost, "/api/v1/ordinals", body)
	require.Equal(t, http.StatusOK, code, res.Raw)
	ordID := res.Get("data.id").String()

	// one more, outside the collection
	code, _, _ = f.do(t, http.MethodPost, "/api/v1/ordinals", f.ordinalBody())
	require.Equal(t, http.StatusOK, code)

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/collections/"+colID+"/ordinals", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PNK", res.Get("data.collection.symbol").String())
	ords := res.Get("data.ordinals").Array()
	require.Len(t, ords, 1)
	assert.Equal(t, ordID, ords[0].Get("id").String())

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/ordinals?collectionId="+colID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Get("data").Array(), 1)

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/collections", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Get("data").Array(), 1)

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/collections/"+colID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Punks", res.Get("data.name").String())

	code, _, _ = f.do(t, http.MethodGet, "/api/v1/collections/"+uuid.NewString()+"/ordinals", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNodeRoutes(t *testing.T) {
	f := newFixture(t)

	code, res, _ := f.do(t, http.MethodGet, "/api/v1/node/info", nil)
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.Equal(t, "mainnet", res.Get("data.chain").String())
	assert.Equal(t, int64(rpc.DefaultFastestFee), res.Get("data.feeEstimates.fastestFee").Int())
	assert.Greater(t, res.Get("data.blocks").Int(), int64(0))

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/node/info?network=regtest", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, CODE_NODE_UNAVAILABLE, res.Get("error.code").String())

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/node/info?network=moon", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/node/status", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Get("data.connected").Bool())
	assert.Equal(t, "mainnet node at mock", res.Get("data.nodeUrl").String())

	code, res, _ = f.do(t, http.MethodGet, "/api/v1/node/status?network=testnet", nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, res.Get("data.connected").Bool())
	assert.Equal(t, "testnet", res.Get("data.network").String())
	assert.Equal(t, gjson.Null, res.Get("data.nodeUrl").Type)
}

func TestNetworkRoutes(t *testing.T) {
	f := newFixture(t)

	code, res, _ := f.do(t, http.MethodGet, "/api/v1/network", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "mainnet", res.Get("data.network").String())

	code, res, _ = f.do(t, http.MethodPut, "/api/v1/network", map[string]interface{}{"useTestnet": true})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Get("data.useTestnet").Bool())
	assert.Equal(t, network.Testnet, network.CurrentNetwork())

	// requests without useTestnet now default to testnet
	body := f.ordinalBody()
	code, res, _ = f.do(t, http.MethodPost, "/api/v1/ordinals", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(ordinals.CodeNetworkMismatch), res.Get("error.code").String())

	code, res, _ = f.do(t, http.MethodPut, "/api/v1/network", map[string]interface{}{"network": "regtest"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "regtest", res.Get("data.network").String())

	code, _, _ = f.do(t, http.MethodPut, "/api/v1/network", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _, _ = f.do(t, http.MethodPut, "/api/v1/network", map[string]interface{}{"network": "moon"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRegtestDefault(t *testing.T) {
	f := newFixtureWith(t, network.Regtest, map[network.Network]rpc.NodeClient{
		network.Regtest: rpc.NewMockNodeClient(network.Regtest),
	})
	wif, addr := newSigner(t, network.Regtest)
	body := f.ordinalBody()
	body["bitcoinAddress"] = addr
	body["privateKey"] = wif

	code, res, _ := f.do(t, http.MethodPost, "/api/v1/ordinals", body)
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.Equal(t, "regtest", res.Get("data.network").String())

	body["useTestnet"] = true
	code, res, _ = f.do(t, http.MethodPost, "/api/v1/ordinals", body)
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.Equal(t, "regtest", res.Get("data.network").String())

	code, res, _ = f.do(t, http.MethodPost, "/api/v1/collections", map[string]interface{}{
		"bitcoinAddress": addr,
		"privateKey":     wif,
		"name":           "Local",
		"image":          pngDataURL,
		"useTestnet":     true,
	})
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.Equal(t, "regtest", res.Get("data.network").String())

	// switching the flag keeps the configured test network
	code, res, _ = f.do(t, http.MethodPut, "/api/v1/network", map[string]interface{}{"useTestnet": true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "regtest", res.Get("data.network").String())

	// mainnet was asked for explicitly
	body["useTestnet"] = false
	code, res, _ = f.do(t, http.MethodPost, "/api/v1/ordinals", body)
	assert.Equal(t, http.StatusBadRequest, code, res.Raw)
	assert.Equal(t, string(ordinals.CodeNetworkMismatch), res.Get("error.code").String())
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/v1/network", nil)

	req := httptest.NewRequest(http.MethodGet, ROUTE_METRICS, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "teenet_ordinals_http_duration"))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(ordinals.CodeInvalidPrivateKey))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(ordinals.CodeNoUtxos))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(ordinals.CodeInsufficientFunds))
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(ordinals.CodeNodeUnavailable))
	assert.Equal(t, http.StatusBadGateway, StatusOf(ordinals.CodeBroadcastRejected))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(ordinals.CodeInternalError))
}
