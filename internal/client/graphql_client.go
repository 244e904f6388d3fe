package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// worklogOverlapConstraint is the backend's uniqueness constraint preventing
// overlapping work logs. Violating it means another run already wrote the
// same span, which callers treat as success.
const worklogOverlapConstraint = "UQ_USER_WORK_LOG_NON_OVERLAPPING"

// Request is one GraphQL operation.
type Request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLError is one structured error from the backend response.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Execer is the request/response capability the services depend on; tests
// substitute fakes for it.
type Execer interface {
	Do(ctx context.Context, token string, req Request, out interface{}) error
}

// GraphQLClient executes operations against the backend over HTTP.
type GraphQLClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGraphQLClient(endpoint string, timeout time.Duration, logger *zap.Logger) *GraphQLClient {
	return &GraphQLClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Do executes one operation and unmarshals the response's data field into
// out (which may be nil). Backend errors come back as typed values:
// *ConflictError for the work-log overlap constraint, *AuthError for
// authentication failures, *RequestError for everything else.
func (c *GraphQLClient) Do(ctx context.Context, token string, greq Request, out interface{}) error {
	body, err := json.Marshal(greq)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.Error("GraphQL request failed",
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Error("Authentication failed",
			zap.Int("status_code", resp.StatusCode),
		)
		return &AuthError{Message: string(respBody), StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Backend error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(respBody)),
		)
		return &RequestError{
			Errors: []GraphQLError{{Message: fmt.Sprintf("backend returned status %d: %s", resp.StatusCode, string(respBody))}},
		}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []GraphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		c.logger.Debug("GraphQL response carried errors",
			zap.Int("error_count", len(envelope.Errors)),
			zap.Duration("duration", duration),
		)
		return classifyErrors(envelope.Errors)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to parse response data: %w", err)
		}
	}

	return nil
}

// classifyErrors turns the backend's error list into a typed error value,
// keeping the message-shape knowledge in one place.
func classifyErrors(errs []GraphQLError) error {
	for _, gqlErr := range errs {
		if strings.Contains(gqlErr.Message, worklogOverlapConstraint) {
			return &ConflictError{Constraint: worklogOverlapConstraint, Errors: errs}
		}
	}
	for _, gqlErr := range errs {
		if code, ok := gqlErr.Extensions["code"].(string); ok {
			if code == "invalid-jwt" || code == "access-denied" {
				return &AuthError{Message: gqlErr.Message}
			}
		}
	}
	return &RequestError{Errors: errs}
}

// ConflictError reports a uniqueness-constraint violation on a work-log
// write. A prior run already applied the write; callers treat it as done.
type ConflictError struct {
	Constraint string
	Errors     []GraphQLError
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Constraint, joinMessages(e.Errors))
}

// AuthError reports that the backend rejected the token.
type AuthError struct {
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// RequestError carries any other structured backend failure.
type RequestError struct {
	Errors []GraphQLError
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("graphql request failed: %s", joinMessages(e.Errors))
}

func joinMessages(errs []GraphQLError) string {
	messages := make([]string, len(errs))
	for i, gqlErr := range errs {
		messages[i] = gqlErr.Message
	}
	return strings.Join(messages, "; ")
}
