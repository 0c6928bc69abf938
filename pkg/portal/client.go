package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/logging"
	"github.com/seqcat-bio/seqcat-engine/pkg/retry"
)

// Record is one flat search result, keyed by the requested field names.
// The portal serializes every field value as a string.
type Record map[string]string

// AuthMode selects the credential mode for one call. A call is always
// entirely public or entirely authenticated, never mixed.
type AuthMode int

const (
	// AsPublic attaches no credentials.
	AsPublic AuthMode = iota
	// AsDataHub attaches the elevated data-hub service account via HTTP
	// Basic auth, granting access to pre-publication records.
	AsDataHub
)

// Credentials is the fixed elevated service account.
type Credentials struct {
	Username string
	Password string
}

// Client executes search requests against the portal with bounded retry.
type Client struct {
	baseURL    string
	portalTag  DataPortal
	creds      Credentials
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NewClient creates a portal client. retryCfg may be nil for defaults.
func NewClient(baseURL string, portalTag DataPortal, creds Credentials, retryCfg *retry.Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		portalTag:  portalTag,
		creds:      creds,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retryCfg:   retryCfg,
		logger:     logger,
	}
}

// transportError marks a failure as transient: network errors and 5xx
// responses. Only these are retried.
type transportError struct {
	err error
}

func (e *transportError) Error() string     { return e.err.Error() }
func (e *transportError) Unwrap() error     { return e.err }
func (e *transportError) IsRetryable() bool { return true }

// protocolError marks a structurally invalid response: malformed payload,
// an embedded API error message, or a 4xx status. Never retried.
type protocolError struct {
	err error
}

func (e *protocolError) Error() string     { return e.err.Error() }
func (e *protocolError) Unwrap() error     { return e.err }
func (e *protocolError) IsRetryable() bool { return false }

// Execute runs req against the portal. Transient failures are retried on
// the configured budget; protocol errors fail immediately.
//
// allowEmpty is deliberately a required argument at every call site: an
// empty result list is returned as apperrors.ErrNotAvailable unless the
// caller explicitly states that zero results is a meaningful answer.
func (c *Client) Execute(ctx context.Context, req Request, auth AuthMode, allowEmpty bool) ([]Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	records, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]Record, error) {
		return c.doOnce(ctx, req, auth)
	})
	if err != nil {
		var pe *protocolError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrPortalProtocol, logging.SanitizeError(pe.err))
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPortalUnavailable, logging.SanitizeError(err))
	}

	if len(records) == 0 && !allowEmpty {
		return nil, apperrors.ErrNotAvailable
	}
	return records, nil
}

// ExecutePaged runs req repeatedly with increasing offsets until a page
// comes back short, streaming every record through fn. req.Limit is used
// as the page size and must be positive. allowEmpty applies to the first
// page only; later short or empty pages just terminate the loop.
func (c *Client) ExecutePaged(ctx context.Context, req Request, auth AuthMode, allowEmpty bool, fn func(Record) error) error {
	if req.Limit <= 0 {
		return fmt.Errorf("%w: paged execution requires a positive limit", apperrors.ErrInvalidQuery)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	offset := 0
	for {
		records, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]Record, error) {
			return c.doPage(ctx, req, auth, offset)
		})
		if err != nil {
			var pe *protocolError
			if errors.As(err, &pe) {
				return fmt.Errorf("%w: %s", apperrors.ErrPortalProtocol, logging.SanitizeError(pe.err))
			}
			return fmt.Errorf("%w: %s", apperrors.ErrPortalUnavailable, logging.SanitizeError(err))
		}
		if len(records) == 0 && offset == 0 && !allowEmpty {
			return apperrors.ErrNotAvailable
		}
		for _, r := range records {
			if err := fn(r); err != nil {
				return err
			}
		}
		if len(records) < req.Limit {
			return nil
		}
		offset += len(records)
	}
}

func (c *Client) doOnce(ctx context.Context, req Request, auth AuthMode) ([]Record, error) {
	return c.doPage(ctx, req, auth, 0)
}

func (c *Client) doPage(ctx context.Context, req Request, auth AuthMode, offset int) ([]Record, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, &protocolError{err: err}
	}
	httpReq.URL.RawQuery = req.params(c.portalTag, offset).Encode()
	if auth == AsDataHub {
		httpReq.SetBasicAuth(c.creds.Username, c.creds.Password)
	}

	c.logger.Debug("Querying portal",
		zap.String("result", string(req.Result)),
		zap.String("url", logging.SanitizeURL(httpReq.URL.String())),
		zap.Bool("authenticated", auth == AsDataHub),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: err}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &transportError{err: fmt.Errorf("portal returned %d: %s", resp.StatusCode, truncate(body, 200))}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return nil, &protocolError{err: fmt.Errorf("portal returned %d: %s", resp.StatusCode, truncate(body, 200))}
	}
	if resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return nil, nil
	}

	return parseBody(body)
}

// parseBody decodes the portal's JSON. A top-level object with a message
// key is an API-level error and non-retriable.
func parseBody(body []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return nil, &protocolError{err: fmt.Errorf("error response: %s", apiErr.Message)}
	}
	return nil, &protocolError{err: fmt.Errorf("bad JSON response: %s", truncate(body, 200))}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
