package network

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"stock-deck/src/helpers"
	"stock-deck/src/logger"
	"stock-deck/src/models"
)

// -----------------------------------------------------------------------------
// NetworkManager performs single-attempt HTTP calls against the backend.
// Failures surface as *helpers.FetchError; the caller decides retry vs
// display policy.
// -----------------------------------------------------------------------------

type NetworkManager struct {
	Config *models.MConfig
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MConfig, log *logger.Logger) *NetworkManager {
	transport := &http.Transport{}

	// Optional static proxy for locked-down networks.
	if cfg.Backend.Proxy != "" {
		if proxyURL, err := url.Parse(cfg.Backend.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			log.Warning("Ignoring invalid proxy url '%s': %v", cfg.Backend.Proxy, err)
		}
	}

	return &NetworkManager{
		Config: cfg,
		Logger: log,
		Client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Backend.RequestTimeout) * time.Second,
		},
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request with query parameters.
func (nm *NetworkManager) Get(urlStr string, params map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewFetchError("GET "+urlStr, 0, err)
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	req, err := http.NewRequest(http.MethodGet, reqUrl.String(), nil)
	if err != nil {
		return nil, helpers.NewFetchError("GET "+urlStr, 0, err)
	}

	return nm.do(req)
}

// -----------------------------------------------------------------------------

// Post performs a POST request with an optional JSON body.
func (nm *NetworkManager) Post(urlStr string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, helpers.NewFetchError("POST "+urlStr, 0, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, urlStr, reader)
	if err != nil {
		return nil, helpers.NewFetchError("POST "+urlStr, 0, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return nm.do(req)
}

// -----------------------------------------------------------------------------

// Delete performs a DELETE request.
func (nm *NetworkManager) Delete(urlStr string) error {
	req, err := http.NewRequest(http.MethodDelete, urlStr, nil)
	if err != nil {
		return helpers.NewFetchError("DELETE "+urlStr, 0, err)
	}

	_, err = nm.do(req)
	return err
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) do(req *http.Request) ([]byte, error) {
	op := req.Method + " " + req.URL.Path

	resp, err := nm.Client.Do(req)
	if err != nil {
		nm.Logger.Debug("Request failed: %s: %v", op, err)
		return nil, helpers.NewFetchError(op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewFetchError(op, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		nm.Logger.Debug("Bad status %d for %s", resp.StatusCode, op)
		return nil, helpers.NewFetchError(op, resp.StatusCode, nil)
	}

	return body, nil
}
