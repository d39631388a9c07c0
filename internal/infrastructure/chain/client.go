package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/pkg/circuitbreaker"
	"github.com/tdex-network/notewallet/pkg/util"
	"go.uber.org/ratelimit"
)

const (
	// DefaultRequestsPerSecond caps the rate of calls to the node.
	DefaultRequestsPerSecond = 20
	// DefaultTimeout ...
	DefaultTimeout = 2 * time.Minute
)

// ErrServiceUnavailable is returned while the circuit breaker is open.
var ErrServiceUnavailable = errors.New("chain service unavailable")

// RequestError is returned for any non 200 response.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("chain request failed with status %d: %s", e.StatusCode, e.Message)
}

type client struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	limiter    ratelimit.Limiter
}

// Opts ...
type Opts struct {
	URL               string
	RequestsPerSecond int
	Timeout           time.Duration
}

func (o Opts) validate() error {
	if o.URL == "" {
		return fmt.Errorf("missing chain url")
	}
	u, err := url.Parse(o.URL)
	if err != nil {
		return fmt.Errorf("invalid chain url: %s", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid chain url scheme %q", u.Scheme)
	}
	return nil
}

// NewClient returns a ports.ChainClient talking to the node REST API at the
// given url.
func NewClient(opts Opts) (ports.ChainClient, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cb:         circuitbreaker.New(circuitbreaker.Settings{Service: "chain"}),
		limiter:    ratelimit.New(rps),
	}, nil
}

func (c *client) GetBlockHeight(ctx context.Context) (int64, error) {
	res := blockHeightResponse{}
	if err := c.call(ctx, http.MethodGet, "/v1/blocks/tip/height", nil, &res); err != nil {
		return 0, err
	}
	return res.Height, nil
}

func (c *client) GetRecords(
	ctx context.Context, afterID int64, limit int,
) ([]domain.RecordMetadata, error) {
	path := fmt.Sprintf("/v1/records?after=%d&limit=%d", afterID, limit)
	res := recordsResponse{}
	if err := c.call(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	if res.Records == nil {
		return []domain.RecordMetadata{}, nil
	}
	return res.Records, nil
}

func (c *client) GetLatestRecordID(
	ctx context.Context, blockHeight int64,
) (int64, error) {
	path := fmt.Sprintf("/v1/records/latest?block_height=%d", blockHeight)
	res := latestRecordResponse{}
	if err := c.call(ctx, http.MethodGet, path, nil, &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (c *client) TagRecord(
	ctx context.Context, recordID int64, tag, proof string,
) error {
	path := fmt.Sprintf("/v1/records/%d/tag", recordID)
	return c.call(ctx, http.MethodPost, path, tagRequest{tag, proof}, nil)
}

func (c *client) BuildTransaction(
	ctx context.Context, tx domain.QueuedTransaction,
) (*ports.UnsignedTransaction, error) {
	req := buildRequest{
		ID:               tx.ID,
		Type:             string(tx.Type),
		AccountPublicKey: tx.AccountPublicKey,
		Payload:          tx.Payload,
	}
	res := &ports.UnsignedTransaction{}
	if err := c.call(ctx, http.MethodPost, "/v1/transactions/build", req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *client) ProveTransaction(
	ctx context.Context, tx ports.UnsignedTransaction, signature string,
) (*ports.ProvenTransaction, error) {
	req := proveRequest{tx, signature}
	res := &ports.ProvenTransaction{}
	if err := c.call(ctx, http.MethodPost, "/v1/transactions/prove", req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *client) SubmitTransaction(
	ctx context.Context, tx ports.ProvenTransaction,
) (string, error) {
	res := submitResponse{}
	if err := c.call(ctx, http.MethodPost, "/v1/transactions/submit", tx, &res); err != nil {
		return "", err
	}
	if res.TxHash == "" {
		return "", fmt.Errorf("chain returned an empty transaction hash")
	}
	return res.TxHash, nil
}

// call performs the request through the rate limiter and the circuit
// breaker. Only transport errors and 5xx responses count as failures for the
// breaker.
func (c *client) call(
	ctx context.Context, method, path string, req, res interface{},
) error {
	var body []byte
	if req != nil {
		var err error
		if body, err = json.Marshal(req); err != nil {
			return err
		}
	}

	c.limiter.Take()
	if err := ctx.Err(); err != nil {
		return err
	}

	var reqErr *RequestError
	iBody, err := c.cb.Execute(func() (interface{}, error) {
		status, resBody, err := util.NewHTTPRequest(
			ctx, c.httpClient, method, c.baseURL+path, body, nil,
		)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			e := &RequestError{status, parseErrorMessage(resBody)}
			if status >= http.StatusInternalServerError {
				return nil, e
			}
			reqErr = e
			return nil, nil
		}
		return resBody, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s", ErrServiceUnavailable, err)
		}
		return err
	}
	if reqErr != nil {
		return reqErr
	}

	if res == nil {
		return nil
	}
	if err := json.Unmarshal(iBody.([]byte), res); err != nil {
		return fmt.Errorf("failed to parse chain response: %w", err)
	}
	return nil
}

func parseErrorMessage(body []byte) string {
	e := errorResponse{}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
