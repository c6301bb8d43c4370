/**
 * @description
 * This package provides a client for the external CRC (Credit Reference Company)
 * API. It encapsulates authenticated HTTP requests to the credit check endpoint,
 * response parsing, and the classification of failures into transient (retryable)
 * versus definitive errors.
 *
 * @notes
 * - The credit check call can take multiple seconds; every request runs with a
 *   bounded timeout and must never execute on a request-handling goroutine.
 * - The raw response body is returned verbatim so callers can retain it for
 *   compliance auditing. It is never parsed beyond the documented fields.
 */
package crcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTimeout bounds a single credit check request.
const DefaultTimeout = 30 * time.Second

// Client is a client for the CRC API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new CRC API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// CreditCheckRequest carries the identity profile sent to the bureau.
type CreditCheckRequest struct {
	NationalID    string              `json:"national_id"`
	FullName      string              `json:"full_name"`
	DateOfBirth   string              `json:"dob"`
	Address       string              `json:"address"`
	PhoneNumber   string              `json:"phone_number"`
	MonthlyIncome decimal.NullDecimal `json:"income_level,omitempty"`
}

// CreditResult is a definitive verdict from the bureau.
type CreditResult struct {
	Approved       bool
	Score          int
	ApprovedLimit  decimal.NullDecimal
	DecisionReason string
	// Raw is the verbatim response body, retained for audit.
	Raw json.RawMessage
}

// creditCheckResponse mirrors the CRC API's response document.
type creditCheckResponse struct {
	Status        string              `json:"status"`
	Score         int                 `json:"score"`
	Message       string              `json:"message"`
	ApprovedLimit decimal.NullDecimal `json:"approved_limit"`
}

// TransientError marks a retryable failure: network error, timeout, or an HTTP
// status that indicates the bureau may recover (5xx, 408, 429).
type TransientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("crc %s: transient failure (status %d)", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("crc %s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable CRC failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// APIError is a definitive, non-retryable error from the CRC API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crc api error: status %d: %s", e.StatusCode, e.Body)
}

// CheckCredit queries the bureau for a creditworthiness verdict.
func (c *Client) CheckCredit(ctx context.Context, req CreditCheckRequest) (*CreditResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credit check request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/credit_check", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create credit check request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		// Dial failures, resets and client timeouts are all retryable.
		return nil, &TransientError{Op: "credit_check", Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Op: "credit_check", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if retryableStatus(resp.StatusCode) {
			log.Printf("level=warn component=crc_client op=credit_check status=%d msg=\"transient response\"", resp.StatusCode)
			return nil, &TransientError{Op: "credit_check", StatusCode: resp.StatusCode}
		}
		log.Printf("level=warn component=crc_client op=credit_check status=%d msg=\"definitive error response\"", resp.StatusCode)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var parsed creditCheckResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode credit check response: %w", err)
	}

	return &CreditResult{
		Approved:       parsed.Status == "approved",
		Score:          parsed.Score,
		ApprovedLimit:  parsed.ApprovedLimit,
		DecisionReason: parsed.Message,
		Raw:            json.RawMessage(bodyBytes),
	}, nil
}

// retryableStatus classifies HTTP statuses that count as transient. 4xx other
// than timeout and throttling is a definitive rejection of the request itself.
func retryableStatus(code int) bool {
	switch {
	case code >= 500:
		return true
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	}
	return false
}
