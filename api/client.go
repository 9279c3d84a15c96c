package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the coordinator's HTTP API. It handles request encoding,
// response parsing, and error mapping; all cryptography stays with the
// caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an API client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string, timeout ...time.Duration) *Client {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// Upload registers a client-side encrypted document.
func (c *Client) Upload(req *UploadRequest) (*UploadResponse, error) {
	var resp UploadResponse
	if err := c.post("/api/files", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestAccess asks for an access decision on a file. The response is
// returned for every terminal status; the error is non-nil only for
// transport or encoding failures.
func (c *Client) RequestAccess(fileID string, req *AccessRequest) (*AccessResponse, error) {
	body, status, err := c.do(http.MethodPost, fmt.Sprintf("/api/files/%s/access", fileID), req)
	if err != nil {
		return nil, err
	}

	var resp AccessResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode access response (HTTP %d): %w", status, err)
	}
	return &resp, nil
}

// Revoke revokes all future access to a file.
func (c *Client) Revoke(fileID string, req *RevokeRequest) (*RevokeResponse, error) {
	var resp RevokeResponse
	if err := c.post(fmt.Sprintf("/api/files/%s/revoke", fileID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListFiles returns all registered files.
func (c *Client) ListFiles() (*ListFilesResponse, error) {
	var resp ListFilesResponse
	if err := c.get("/api/files", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Audit returns the full audit ledger.
func (c *Client) Audit() (*AuditResponse, error) {
	var resp AuditResponse
	if err := c.get("/api/audit", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyAudit runs a server-side chain verification pass.
func (c *Client) VerifyAudit() (*AuditVerifyResponse, error) {
	var resp AuditVerifyResponse
	if err := c.get("/api/audit/verify", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BrokerPubkey fetches the escrow broker's public key.
func (c *Client) BrokerPubkey() (*BrokerPubkeyResponse, error) {
	var resp BrokerPubkeyResponse
	if err := c.get("/api/broker/pubkey", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(path string, out interface{}) error {
	body, status, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("request failed with code %d: %s", status, string(body))
	}
	return json.Unmarshal(body, out)
}

func (c *Client) post(path string, in, out interface{}) error {
	body, status, err := c.do(http.MethodPost, path, in)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("request failed with code %d: %s", status, string(body))
	}
	return json.Unmarshal(body, out)
}

func (c *Client) do(method, path string, in interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
