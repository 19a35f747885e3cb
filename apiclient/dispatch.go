package apiclient

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

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const requestIDHeader = "X-Request-ID"

// dispatch performs exactly one HTTP call for a. Only 2xx counts as success.
func (c *Client) dispatch(ctx context.Context, a attempt) (*Response, error) {
	method := a.req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := c.tracer.Start(ctx, "bank.http",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", a.req.Path),
			attribute.Bool("bank.retried", a.retried),
		),
	)
	defer span.End()

	req, err := c.newHTTPRequest(ctx, method, a)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	requestID := req.Header.Get(requestIDHeader)
	logger := c.logger.With().Str("request_id", requestID).Str("method", method).Str("path", a.req.Path).Logger()

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := &Error{IsNetworkError: true, Message: err.Error(), Method: method, Path: a.req.Path, Err: err}
		logger.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("request failed without response")
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, "network error")
		return nil, apiErr
	}
	defer func() {
		if errClose := httpResp.Body.Close(); errClose != nil {
			logger.Debug().Err(errClose).Msg("close response body")
		}
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		apiErr := &Error{Status: httpResp.StatusCode, IsNetworkError: true, Message: err.Error(), Method: method, Path: a.req.Path, Err: err}
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, "read body")
		return nil, apiErr
	}

	logger.Debug().Int("status", httpResp.StatusCode).Dur("elapsed", time.Since(start)).Bool("retried", a.retried).Msg("request completed")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		apiErr := &Error{
			Status:  httpResp.StatusCode,
			Message: serverMessage(body, httpResp.StatusCode),
			Method:  method,
			Path:    a.req.Path,
			Body:    body,
		}
		span.SetStatus(codes.Error, apiErr.Message)
		return nil, apiErr
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, method string, a attempt) (*http.Request, error) {
	target := c.resolve(a.req.Path)
	if len(a.req.Params) > 0 {
		q := target.Query()
		for k, vs := range a.req.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	body, err := encodeBody(a.req.Data)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", method, a.req.Path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, a.req.Path, err)
	}
	for k, vs := range c.headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range a.req.Headers {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	if req.Header.Get(requestIDHeader) == "" {
		req.Header.Set(requestIDHeader, uuid.NewString())
	}

	if a.anonymous {
		req.Header.Del("Authorization")
		return req, nil
	}
	accessToken := a.accessToken
	if accessToken == "" {
		if accessToken, err = c.store.AccessToken(ctx); err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
	}
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return req, nil
}

// resolve joins path onto the base URL; absolute URLs are used unchanged
func (c *Client) resolve(path string) *url.URL {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if u, err := c.baseURL.Parse(path); err == nil {
			return u
		}
	}
	u := *c.baseURL
	p, rawQuery, _ := strings.Cut(path, "?")
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(p, "/")
	u.RawPath = ""
	u.RawQuery = rawQuery
	return &u
}

func encodeBody(data any) (io.Reader, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(v), nil
	case json.RawMessage:
		return bytes.NewReader(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(raw), nil
	}
}
