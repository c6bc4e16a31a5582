// Reader is a small client of a running http reporter.
// The cli and the tests use it.

package reporter

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type HttpReader struct {
	serverIP   string // listen ip
	serverPort string // listen port
	client     *http.Client
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		serverIP:   serverIP,
		serverPort: serverPort,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (hr *HttpReader) url(route string, query url.Values) string {
	u := "http://" + hr.serverIP + ":" + hr.serverPort + ROUTE_API + route
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get returns the body of a GET, whatever the status.
func (hr *HttpReader) get(route string, query url.Values) (int, string, error) {
	resp, err := hr.client.Get(hr.url(route, query))
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	// Read the response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}

	// Convert the body to a string
	return resp.StatusCode, string(body), nil
}

func networkQuery(net string) url.Values {
	if net == "" {
		return nil
	}
	return url.Values{"network": []string{net}}
}

func (hr *HttpReader) GetNodeStatus(net string) (int, string, error) {
	return hr.get(ROUTE_NODE_STATUS, networkQuery(net))
}

func (hr *HttpReader) GetNodeInfo(net string) (int, string, error) {
	return hr.get(ROUTE_NODE_INFO, networkQuery(net))
}

func (hr *HttpReader) GetNetwork() (int, string, error) {
	return hr.get(ROUTE_NETWORK, nil)
}

func (hr *HttpReader) GetOrdinal(id string) (int, string, error) {
	return hr.get(strings.Replace(ROUTE_ORDINAL, ":id", url.PathEscape(id), 1), nil)
}

func (hr *HttpReader) GetCollection(id string) (int, string, error) {
	return hr.get(strings.Replace(ROUTE_COLLECTION, ":id", url.PathEscape(id), 1), nil)
}

// Check turns a non 200 answer into an error.
func Check(status int, body string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return body, fmt.Errorf("http %d: %s", status, body)
	}
	return body, nil
}
