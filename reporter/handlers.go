package reporter

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/rpc"
	"github.com/TEENet-io/ordinals-go/metrics"
	"github.com/TEENet-io/ordinals-go/ordinals"
	"github.com/TEENet-io/ordinals-go/store"
)

// request bodies. Optional fields are pointers so defaults can apply.
type createOrdinalBody struct {
	BitcoinAddress string               `json:"bitcoinAddress" binding:"required"`
	PrivateKey     string               `json:"privateKey" binding:"required"`
	Name           string               `json:"name" binding:"required"`
	Description    string               `json:"description"`
	Attributes     []ordinals.Attribute `json:"attributes"`
	Image          string               `json:"image" binding:"required"`
	CollectionID   string               `json:"collectionId"`
	FeeRate        *int64               `json:"feeRate"`
	UseTestnet     *bool                `json:"useTestnet"`
}

type createCollectionBody struct {
	BitcoinAddress string `json:"bitcoinAddress" binding:"required"`
	PrivateKey     string `json:"privateKey" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	Symbol         string `json:"symbol"`
	Image          string `json:"image" binding:"required"`
	FeeRate        *int64 `json:"feeRate"`
	UseTestnet     *bool  `json:"useTestnet"`
}

type setNetworkBody struct {
	Network    string `json:"network"`
	UseTestnet *bool  `json:"useTestnet"`
}

// response shapes
type creationView struct {
	ID                string       `json:"id"`
	Txid              string       `json:"txid"`
	CommitTxid        string       `json:"commitTxid"`
	Inscription       string       `json:"inscription"`
	BlockHeight       *int64       `json:"blockHeight,omitempty"`
	HeightApproximate bool         `json:"heightApproximate,omitempty"`
	Timestamp         time.Time    `json:"timestamp"`
	Fees              int64        `json:"fees"`
	Size              int          `json:"size"`
	VirtualSize       int64        `json:"vsize"`
	Status            store.Status `json:"status"`
	Network           string       `json:"network"`
}

type collectionOrdinalsView struct {
	Collection *store.Collection `json:"collection"`
	Ordinals   []*store.Ordinal  `json:"ordinals"`
}

type nodeInfoView struct {
	*rpc.ChainInfo
	Network      string           `json:"network"`
	FeeEstimates rpc.FeeEstimates `json:"feeEstimates"`
}

type nodeStatusView struct {
	Connected bool    `json:"connected"`
	Network   string  `json:"network"`
	NodeURL   *string `json:"nodeUrl"`
}

type networkView struct {
	Network    string `json:"network"`
	UseTestnet bool   `json:"useTestnet"`
}

func feeRateOr(rate *int64, def int64) int64 {
	if rate == nil {
		return def
	}
	return *rate
}

// requestNetwork resolves useTestnet against the process default.
// Absent, the default itself is used.
func requestNetwork(useTestnet *bool) network.Network {
	current := network.CurrentNetwork()
	if useTestnet == nil {
		return current
	}
	return network.Resolve(*useTestnet, current)
}

func newCreationView(id string, res *ordinals.CreationResult, ins *store.Inscription) creationView {
	return creationView{
		ID:                id,
		Txid:              res.Txid,
		CommitTxid:        res.CommitTxid,
		Inscription:       res.InscriptionID,
		BlockHeight:       res.BlockHeight,
		HeightApproximate: res.HeightApproximate,
		Timestamp:         ins.Timestamp,
		Fees:              res.Fees,
		Size:              res.Size,
		VirtualSize:       res.VirtualSize,
		Status:            ins.Status,
		Network:           ins.Network,
	}
}

func (h *HttpReporter) CreateOrdinal(c *gin.Context) {
	var body createOrdinalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, CODE_INVALID_PARAMETERS, "Invalid request parameters: "+err.Error())
		return
	}
	if body.CollectionID != "" {
		if _, err := h.store.GetCollection(c.Request.Context(), body.CollectionID); err != nil {
			if store.IsNotFound(err) {
				fail(c, http.StatusBadRequest, CODE_INVALID_PARAMETERS, "Unknown collection "+body.CollectionID)
				return
			}
			fail(c, http.StatusInternalServerError, CODE_INTERNAL_ERROR, err.Error())
			return
		}
	}

	net := requestNetwork(body.UseTestnet)
	res, err := h.service.CreateOrdinal(c.Request.Context(), &ordinals.OrdinalRequest{
		BitcoinAddress: body.BitcoinAddress,
		PrivateKey:     body.PrivateKey,
		Name:           body.Name,
		Description:    body.Description,
		Attributes:     body.Attributes,
		Image:          body.Image,
		CollectionID:   body.CollectionID,
		FeeRate:        feeRateOr(body.FeeRate, ordinals.DefaultOrdinalFeeRate),
		UseTestnet:     net.IsTestnet(),
		Network:        &net,
	})
	if err != nil {
		failService(c, err)
		return
	}

	o := &store.Ordinal{
		Name:           body.Name,
		Description:    body.Description,
		BitcoinAddress: body.BitcoinAddress,
		CollectionID:   body.CollectionID,
		Attributes:     body.Attributes,
		Image:          body.Image,
		Inscription:    store.InscriptionFromResult(res),
	}
	if err := h.store.CreateOrdinal(c.Request.Context(), o); err != nil {
		requestLogger(c).WithField("txid", res.Txid).Errorf("failed to record ordinal: %v", err)
		fail(c, http.StatusInternalServerError, CODE_INTERNAL_ERROR,
			fmt.Sprintf("inscription %s was broadcast but could not be recorded", res.InscriptionID))
		return
	}
	ok(c, newCreationView(o.ID, res, &o.Inscription))
}

func (h *HttpReporter) CreateCollection(c *gin.Context) {
	var body createCollectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, CODE_INVALID_PARAMETERS, "Invalid request parameters: "+err.Error())
		return
	}

	net := requestNetwork(body.UseTestnet)
	res, err := h.service.CreateCollection(c.Request.Context(), &ordinals.CollectionRequest{
		BitcoinAddress: body.BitcoinAddress,
		PrivateKey:     body.PrivateKey,
		Name:           body.Name,
		Description:    body.Description,
		Symbol:         body.Symbol,
		Image:          body.Image,
		FeeRate:        feeRateOr(body.FeeRate, ordinals.DefaultCollectionFeeRate),
		UseTestnet:     net.IsTestnet(),
		Network:        &net,
	})
	if err != nil {
		failService(c, err)
		return
	}

	col := &store.Collection{
		Name:           body.Name,
		Description:    body.Description,
		Symbol:         body.Symbol,
		BitcoinAddress: body.BitcoinAddress,
		Image:          body.Image,
		Inscription:    store.InscriptionFromResult(res),
	}
	if err := h.store.CreateCollection(c.Request.Context(), col); err != nil {
		requestLogger(c).WithField("txid", res.Txid).Errorf("failed to record collection: %v", err)
		fail(c, http.StatusInternalServerError, CODE_INTERNAL_ERROR,
			fmt.Sprintf("inscription %s was broadcast but could not be recorded", res.InscriptionID))
		return
	}
	ok(c, newCreationView(col.ID, res, &col.Inscription))
}

func (h *HttpReporter) ListOrdinals(c *gin.Context) {
	list, err := h.store.ListOrdinals(c.Request.Context(), store.OrdinalFilter{
		CollectionID:   c.Query("collectionId"),
		BitcoinAddress: c.Query("bitcoinAddress"),
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, CODE_INTERNAL_ERROR, err.Error())
		return
	}
	ok(c, nonNil(list))
}

// recordID reads and checks the :id param.
func recordID(c *gin.Context, what string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, CODE_INVALID_ID, "Invalid "+what+" ID")
		return "", false
	}
	return id, true
}

func (h *HttpReporter) GetOrdinal(c *gin.Context) {
	id, valid := recordID(c, "ordinal")
	if !valid {
		return
	}
	o, err := h.store.GetOrdinal(c.Request.Context(), id)
	if err != nil {
		h.failLookup(c, "Ordinal", err)
		return
	}
	ok(c, o)
}

func (h *HttpReporter) ListCollections(c *gin.Context) {
	list, err := h.store.ListCollections(c.Request.Context(), store.CollectionFilter{BitcoinAddress: c.Query("bitcoinAddress")})
	if err != nil {
		fail(c, http.StatusInternalServerError, CODE_INTERNAL_ERROR, err.Error())
		return
	}
	ok(c, nonNil(list))
}

func (h *HttpReporter) GetCollection(c *gin.Context) {
	id, valid := recordID(c, "collection")
	if !valid {
		return
	}
	col, err := h.store.GetCollection(c.Request.Context(), id)
	if err != nil {
		h.failLookup(c, "Collection", err)
		return
	}
	ok(c, col)
}

func (h *HttpReporter) GetCollectionOrdinals(c *gin.Context) {
	id, valid := recordID(c, "collection")
	if !valid {
		return
	}
	col, err := h.store.GetCollection(c.Request.Context(), id)
	if err != nil {
		h.failLookup(c, "Collection", err)
		return
	}
	list, err := h.store.ListOrdinals(c.Request.Context(), store.OrdinalFilter{CollectionID: id})
	if err != nil {
		fail(c, http.StatusInternalServerError, CODE_INTERNAL_ERROR, err.Error())
		return
	}
	ok(c, collectionOrdinalsView{Collection: col, Ordinals: nonNil(list)})
}

func (h *HttpReporter) failLookup(c *gin.Context, what string, err error) {
	if store.IsNotFound(err) {
		fail(c, http.StatusNotFound, CODE_NOT_FOUND, what+" not found")
		return
	}
	fail(c, http.StatusInternalServerError, CODE_INTERNAL_ERROR, err.Error())
}

// queryNetwork reads ?network=, the process default when absent.
func queryNetwork(c *gin.Context) (network.Network, bool) {
	name := c.Query("network")
	if name == "" {
		return network.CurrentNetwork(), true
	}
	net, err := network.Parse(name)
	if err != nil {
		fail(c, http.StatusBadRequest, CODE_INVALID_PARAMETERS, err.Error())
		return net, false
	}
	return net, true
}

func (h *HttpReporter) NodeInfo(c *gin.Context) {
	net, valid := queryNetwork(c)
	if !valid {
		return
	}
	node, err := h.service.NodeClient(net)
	if err != nil || !node.CheckConnection(c.Request.Context()) {
		fail(c, http.StatusServiceUnavailable, CODE_NODE_UNAVAILABLE, "Bitcoin node is not available or not responding")
		return
	}
	info, err := node.GetBlockchainInfo(c.Request.Context())
	if err != nil {
		fail(c, http.StatusServiceUnavailable, CODE_NODE_UNAVAILABLE, err.Error())
		return
	}
	fees := node.GetFeeEstimates(c.Request.Context())
	for tier, rate := range map[string]int64{
		"fastest":  fees.FastestFee,
		"halfHour": fees.HalfHourFee,
		"hour":     fees.HourFee,
		"economy":  fees.EconomyFee,
	} {
		metrics.FeeEstimate.WithLabelValues(net.String(), tier).Set(float64(rate))
	}
	ok(c, nodeInfoView{ChainInfo: info, Network: net.String(), FeeEstimates: fees})
}

func (h *HttpReporter) NodeStatus(c *gin.Context) {
	net, valid := queryNetwork(c)
	if !valid {
		return
	}
	view := nodeStatusView{Network: net.String()}
	if node, err := h.service.NodeClient(net); err == nil && node.CheckConnection(c.Request.Context()) {
		url := fmt.Sprintf("%s node at %s", net, rpc.EndpointOf(node))
		view.Connected = true
		view.NodeURL = &url
	}
	ok(c, view)
}

func currentNetworkView() networkView {
	net := network.CurrentNetwork()
	return networkView{Network: net.String(), UseTestnet: net.IsTestnet()}
}

func (h *HttpReporter) GetNetwork(c *gin.Context) {
	ok(c, currentNetworkView())
}

// SetNetwork switches the default used by requests that do not say.
func (h *HttpReporter) SetNetwork(c *gin.Context) {
	var body setNetworkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, CODE_INVALID_PARAMETERS, err.Error())
		return
	}
	switch {
	case body.Network != "":
		net, err := network.Parse(body.Network)
		if err != nil {
			fail(c, http.StatusBadRequest, CODE_INVALID_PARAMETERS, err.Error())
			return
		}
		network.SetDefault(net)
	case body.UseTestnet != nil:
		network.SetNetwork(*body.UseTestnet)
	default:
		fail(c, http.StatusBadRequest, CODE_INVALID_PARAMETERS, "network or useTestnet is required")
		return
	}
	requestLogger(c).WithField("network", network.CurrentNetwork().String()).Info("Default network switched")
	ok(c, currentNetworkView())
}

// nonNil makes empty lists encode as [] instead of null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
