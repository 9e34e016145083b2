package signerClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/config"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/server"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/transportSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// Config holds the signing server client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	// ExpectedSignerAddress, when set, requires every successful response to
	// carry a valid signature header from this address.
	ExpectedSignerAddress *common.Address
}

// DefaultConfig returns a client config pointing at a local server
func DefaultConfig() *Config {
	return &Config{
		BaseURL: fmt.Sprintf("http://localhost:%d", config.DefaultPort),
		Timeout: 10 * time.Second,
	}
}

// APIError is returned for any non-2xx response from the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("signer API error (status %d, code %s, request %s): %s", e.StatusCode, e.Code, e.RequestID, e.Message)
	}
	return fmt.Sprintf("signer API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to the signing server over HTTP
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	expectedSigner *common.Address
	logger         *zap.Logger
}

// NewClient creates a new client. A nil cfg uses DefaultConfig.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must use http or https, got %q", base.Scheme)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Client{
		baseURL:        base,
		httpClient:     &http.Client{Timeout: timeout},
		expectedSigner: cfg.ExpectedSignerAddress,
		logger:         logger,
	}, nil
}

// NewSignerClientFromRemoteSignerConfig builds a client from CLI configuration
func NewSignerClientFromRemoteSignerConfig(rsc *config.RemoteSignerConfig, logger *zap.Logger) (*Client, error) {
	if rsc == nil {
		return NewClient(nil, logger)
	}
	if err := rsc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid remote signer config: %w", err)
	}
	cfg := &Config{
		BaseURL: rsc.Url,
		Timeout: rsc.Timeout,
	}
	if rsc.ExpectedSignerAddress != "" {
		addr := common.HexToAddress(rsc.ExpectedSignerAddress)
		cfg.ExpectedSignerAddress = &addr
	}
	return NewClient(cfg, logger)
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) SignHash(ctx context.Context, hash []byte, privateKey string) (*server.SignatureResponse, error) {
	var resp server.SignatureResponse
	err := c.post(ctx, server.RouteSignHash, &server.SignHashRequest{
		Hash:       util.EncodeHex(hash),
		PrivateKey: privateKey,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SignMessage(ctx context.Context, message []byte, privateKey string) (*server.SignatureResponse, error) {
	var resp server.SignatureResponse
	err := c.post(ctx, server.RouteSignMessage, &server.SignMessageRequest{
		Message:    util.EncodeHex(message),
		Encoding:   server.MessageEncodingHex,
		PrivateKey: privateKey,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SignTypedData(ctx context.Context, typedData json.RawMessage, privateKey string) (*server.SignatureResponse, error) {
	if !json.Valid(typedData) {
		return nil, fmt.Errorf("typed data is not valid JSON")
	}
	var resp server.SignatureResponse
	err := c.post(ctx, server.RouteSignTypedData, &server.SignTypedDataRequest{
		TypedData:  typedData,
		PrivateKey: privateKey,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SignTransaction(ctx context.Context, fields ethSigner.TransactionFields, privateKey string) (*server.TransactionResponse, error) {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction fields: %w", err)
	}
	var resp server.TransactionResponse
	err = c.post(ctx, server.RouteSignTransaction, &server.SignTransactionRequest{
		Transaction: encoded,
		PrivateKey:  privateKey,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) (*server.HealthResponse, error) {
	var resp server.HealthResponse
	if err := c.do(ctx, http.MethodGet, server.RouteHealth, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, route string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, route, payload, out)
}

func (c *Client) do(ctx context.Context, method string, route string, payload []byte, out any) error {
	endpoint := c.baseURL.JoinPath(route).String()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", route, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	requestID := resp.Header.Get(server.RequestIDHeader)
	c.logger.Sugar().Debugw("Signer API response",
		"route", route,
		"status", resp.StatusCode,
		"requestId", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
		var errResp server.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Code != "" {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if c.expectedSigner != nil {
		if err := verifyResponseSignature(resp.Header.Get(transportSigner.SignatureHeader), respBody, *c.expectedSigner); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func verifyResponseSignature(header string, body []byte, expected common.Address) error {
	if header == "" {
		return fmt.Errorf("response is missing the %s header", transportSigner.SignatureHeader)
	}
	sig, err := util.DecodeHex(header)
	if err != nil {
		return fmt.Errorf("invalid response signature: %w", err)
	}
	if err := transportSigner.NewSignedMessage(body, sig).Verify(expected); err != nil {
		return fmt.Errorf("response signature verification failed: %w", err)
	}
	return nil
}
