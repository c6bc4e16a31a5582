// This is a http type of reporter.
// It serves the inscription api on top of the ordinals service
// and the record store.

package reporter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/ordinals-go/metrics"
	"github.com/TEENet-io/ordinals-go/ordinals"
	"github.com/TEENet-io/ordinals-go/store"
)

const (
	ROUTE_API                 = "/api/v1"
	ROUTE_ORDINALS            = "/ordinals"
	ROUTE_ORDINAL             = "/ordinals/:id"
	ROUTE_COLLECTIONS         = "/collections"
	ROUTE_COLLECTION          = "/collections/:id"
	ROUTE_COLLECTION_ORDINALS = "/collections/:id/ordinals"
	ROUTE_NODE_INFO           = "/node/info"
	ROUTE_NODE_STATUS         = "/node/status"
	ROUTE_NETWORK             = "/network"
	ROUTE_METRICS             = "/metrics"

	HEADER_REQUEST_ID = "X-Request-ID"

	shutdownTimeout = 10 * time.Second
)

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	service *ordinals.Service
	store   store.Store
}

func NewHttpReporter(serverIP string, serverPort string, service *ordinals.Service, st store.Store) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		service:    service,
		store:      st,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID, metrics.HTTP)

	router.GET(ROUTE_METRICS, gin.WrapH(promhttp.Handler()))

	api := router.Group(ROUTE_API)
	api.POST(ROUTE_ORDINALS, h.CreateOrdinal)
	api.GET(ROUTE_ORDINALS, h.ListOrdinals)
	api.GET(ROUTE_ORDINAL, h.GetOrdinal)
	api.POST(ROUTE_COLLECTIONS, h.CreateCollection)
	api.GET(ROUTE_COLLECTIONS, h.ListCollections)
	api.GET(ROUTE_COLLECTION, h.GetCollection)
	api.GET(ROUTE_COLLECTION_ORDINALS, h.GetCollectionOrdinals)
	api.GET(ROUTE_NODE_INFO, h.NodeInfo)
	api.GET(ROUTE_NODE_STATUS, h.NodeStatus)
	api.GET(ROUTE_NETWORK, h.GetNetwork)
	api.PUT(ROUTE_NETWORK, h.SetNetwork)

	return router
}

func (h *HttpReporter) Address() string {
	return h.serverIP + ":" + h.serverPort
}

// Run serves until ctx is done, then shuts down gracefully.
func (h *HttpReporter) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              h.Address(),
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", srv.Addr).Info("Http reporter listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RequestID tags every request and response with an id.
func RequestID(c *gin.Context) {
	id := c.GetHeader(HEADER_REQUEST_ID)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Set(HEADER_REQUEST_ID, id)
	c.Header(HEADER_REQUEST_ID, id)
	c.Next()
}

func requestLogger(c *gin.Context) *logger.Entry {
	return logger.WithFields(logger.Fields{
		"requestId": c.GetString(HEADER_REQUEST_ID),
		"route":     c.FullPath(),
	})
}
