package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Lark (Feishu) Open API host
	DefaultBaseURL = "https://open.feishu.cn"

	DefaultConnectTimeout = 3 * time.Second
	DefaultTimeout        = 7 * time.Second

	HeaderRequestID = "X-Request-Id"
	HeaderLogID     = "X-Tt-Logid"

	contentTypeJSON = "application/json; charset=utf-8"
)

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client executes requests against the Lark Open API
type Client struct {
	doer           Doer
	baseURL        string
	connectTimeout time.Duration
	timeout        time.Duration
	logger         *slog.Logger
	tokens         oauth2.TokenSource
	requestID      bool
	metrics        *Metrics
	validate       *validator.Validate
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the transport. Timeouts configured with WithTimeouts
// do not apply to a custom transport.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithBaseURL sets the host relative addresses are resolved against
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithTimeouts sets the connect and total timeouts of the default transport
func WithTimeouts(connect, total time.Duration) Option {
	return func(c *Client) {
		c.connectTimeout = connect
		c.timeout = total
	}
}

// WithLogger sets the logger; the default is slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTokenSource adds `Authorization: Bearer <token>` to requests that set
// no Authorization header themselves
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithRequestID adds a fresh X-Request-Id to requests that carry none
func WithRequestID() Option {
	return func(c *Client) {
		c.requestID = true
	}
}

// WithMetrics records call counts and latencies
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithValidator replaces the validator, for instance one with custom
// validation functions registered
func WithValidator(v *validator.Validate) Option {
	return func(c *Client) {
		c.validate = v
	}
}

// WithoutValidation disables `validate` tag checks before sending
func WithoutValidation() Option {
	return func(c *Client) {
		c.validate = nil
	}
}

// NewClient creates a Client. Without options it talks to DefaultBaseURL
// with a 3s connect and 7s total timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		connectTimeout: DefaultConnectTimeout,
		timeout:        DefaultTimeout,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.doer == nil {
		c.doer = newHTTPClient(c.connectTimeout, c.timeout)
	}
	return c
}

// With returns a copy of c with opts applied
func (c *Client) With(opts ...Option) *Client {
	clone := *c
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

func newHTTPClient(connect, total time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connect,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return &http.Client{
		Transport: transport,
		Timeout:   total,
	}
}

// Call executes an annotated request. Types implementing Request (such as
// the ones larkgen generates glue for) are used directly; others are bound
// through their compiled descriptor.
func Call[T any](ctx context.Context, c *Client, v Annotated[T]) (T, error) {
	if req, ok := v.(Request[T]); ok {
		return Execute(ctx, c, req)
	}

	req, err := Bind(v)
	if err != nil {
		var zero T
		return zero, WrapError(CodeInternal, "invalid request descriptor: "+err.Error(), err)
	}
	return Execute(ctx, c, req)
}

// Execute runs the pipeline for req and returns the decoded payload
func Execute[T any](ctx context.Context, c *Client, req Request[T]) (T, error) {
	start := time.Now()
	method := req.Method()
	address := req.Address()

	data, status, err := execute(ctx, c, req)

	code := ErrorCode(err)
	if c.metrics != nil {
		c.metrics.observe(method, address, code, time.Since(start))
	}

	attrs := []any{
		slog.String("method", method),
		slog.String("address", address),
		slog.Int("status", status),
		slog.Uint64("code", code),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		if status == 0 {
			c.log().WarnContext(ctx, "lark request failed", append(attrs, slog.Any("error", err))...)
		} else {
			c.log().DebugContext(ctx, "lark request returned an error", append(attrs, slog.Any("error", err))...)
		}
		var zero T
		return zero, err
	}

	c.log().DebugContext(ctx, "lark request", attrs...)
	return data, nil
}

func execute[T any](ctx context.Context, c *Client, req Request[T]) (T, int, error) {
	var zero T

	if err := c.validateRequest(ctx, req); err != nil {
		return zero, 0, err
	}

	address := req.Address()
	if params := req.PathParams(); params != nil {
		address = ReplacePathParams(address, params)
	}

	u, err := c.resolve(address)
	if err != nil {
		return zero, 0, err
	}
	appendQuery(u, req.QueryParams())

	body, err := req.Body()
	if err != nil {
		return zero, 0, WrapError(CodeInternal, "encode error: "+err.Error(), err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), u.String(), reader)
	if err != nil {
		return zero, 0, errURL(u.String(), err)
	}
	for _, h := range req.Headers() {
		httpReq.Header.Add(h.Name, h.Value)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}
	if c.requestID && httpReq.Header.Get(HeaderRequestID) == "" {
		httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if c.tokens != nil && httpReq.Header.Get("Authorization") == "" {
		token, err := c.token(ctx)
		if err != nil {
			if larkErr, ok := AsLarkError(err); ok {
				return zero, 0, larkErr
			}
			return zero, 0, WrapError(CodeInternal, "token error: "+err.Error(), err)
		}
		token.SetAuthHeader(httpReq)
	}

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		return zero, 0, errTransport(err)
	}
	defer resp.Body.Close()

	logID := resp.Header.Get(HeaderLogID)
	withLogID := func(e *LarkError) *LarkError {
		e.LogID = logID
		return e
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, resp.StatusCode, withLogID(errTransport(err))
	}

	envelope := req.Envelope()
	decodeErr := json.Unmarshal(raw, envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && !envelope.IsSuccess() {
			return zero, resp.StatusCode, withLogID(NewError(envelope.Code(), envelope.Message()))
		}
		return zero, resp.StatusCode, withLogID(errStatus(resp))
	}

	if decodeErr != nil {
		return zero, resp.StatusCode, withLogID(errCodec(decodeErr))
	}
	if !envelope.IsSuccess() {
		return zero, resp.StatusCode, withLogID(NewError(envelope.Code(), envelope.Message()))
	}

	data, ok := envelope.Data()
	if !ok {
		return zero, resp.StatusCode, withLogID(errMissingData())
	}
	return data, resp.StatusCode, nil
}

// token asks the token source for a token without outliving ctx. A fetch
// abandoned on cancellation still completes and fills the source's cache.
func (c *Client) token(ctx context.Context) (*oauth2.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, errTransport(err)
	}

	type result struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan result, 1)
	go func() {
		tok, err := c.tokens.Token()
		done <- result{tok, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errTransport(ctx.Err())
	case r := <-done:
		return r.tok, r.err
	}
}

// resolve joins relative addresses to the base URL and parses the result
func (c *Client) resolve(address string) (*url.URL, error) {
	full := address
	if !strings.Contains(address, "://") && c.baseURL != "" {
		full = c.baseURL + "/" + strings.TrimLeft(address, "/")
	}

	u, err := url.Parse(full)
	if err != nil {
		return nil, errURL(full, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errURL(full, &url.Error{Op: "parse", URL: full, Err: errRelativeURL})
	}
	return u, nil
}

var errRelativeURL = errors.New("relative URL without a base")

// appendQuery adds pairs after any query already present, keeping order
// and duplicates
func appendQuery(u *url.URL, params []Param) {
	if len(params) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString(u.RawQuery)
	for _, p := range params {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	u.RawQuery = b.String()
}

// validateRequest checks `validate` tags of the annotated value behind req.
// The validator panics on tags it has no function for; that is reported as
// a bad request.
func (c *Client) validateRequest(ctx context.Context, req any) (err error) {
	if c.validate == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = WrapError(CodeBadRequest, fmt.Sprintf("validation error: %v", r), fmt.Errorf("%v", r))
		}
	}()

	target := req
	if bound, ok := req.(interface{ target() any }); ok {
		target = bound.target()
	}

	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	if err := c.validate.StructCtx(ctx, target); err != nil {
		return WrapError(CodeBadRequest, "validation error: "+err.Error(), err)
	}
	return nil
}
