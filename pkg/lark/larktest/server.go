// Package larktest provides a fake Lark Open API server for tests
package larktest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Recorded is a request received by the fake server
type Recorded struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
	Params   map[string]string // route parameters matched by the handler
}

// Server is an httptest server routing with gin. Address templates such
// as /open-apis/contact/v3/users/:user_id can be registered as is.
type Server struct {
	*httptest.Server

	engine   *gin.Engine
	mu       sync.Mutex
	requests []Recorded
}

// NewServer starts a server that is closed when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{engine: gin.New()}
	s.engine.Use(s.record)
	s.Server = httptest.NewServer(s.engine)
	t.Cleanup(s.Close)
	return s
}

// Engine returns the underlying gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handle registers a gin handler
func (s *Server) Handle(method, path string, handlers ...gin.HandlerFunc) {
	s.engine.Handle(method, path, handlers...)
}

// Reply answers method and path with status and the JSON encoding of body
func (s *Server) Reply(method, path string, status int, body any) {
	s.Handle(method, path, func(c *gin.Context) {
		c.JSON(status, body)
	})
}

// ReplyRaw answers method and path with status and body verbatim
func (s *Server) ReplyRaw(method, path string, status int, body string) {
	s.Handle(method, path, func(c *gin.Context) {
		c.Data(status, "application/json; charset=utf-8", []byte(body))
	})
}

// Success answers with a nested success envelope carrying data
func (s *Server) Success(method, path string, data any) {
	s.Reply(method, path, http.StatusOK, gin.H{"code": 0, "msg": "success", "data": data})
}

// Fail answers with a failed envelope
func (s *Server) Fail(method, path string, code int, msg string) {
	s.Reply(method, path, http.StatusOK, gin.H{"code": code, "msg": msg, "data": gin.H{}})
}

// TenantToken answers the tenant access token endpoint with a flat envelope
func (s *Server) TenantToken(token string, expire int) {
	s.Reply(http.MethodPost, "/open-apis/auth/v3/tenant_access_token/internal", http.StatusOK, gin.H{
		"code":                0,
		"msg":                 "ok",
		"tenant_access_token": token,
		"expire":              expire,
	})
}

// Requests returns every request received so far
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// LastRequest returns the most recent request
func (s *Server) LastRequest() (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Recorded{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	s.mu.Lock()
	s.requests = append(s.requests, Recorded{
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		RawQuery: c.Request.URL.RawQuery,
		Header:   c.Request.Header.Clone(),
		Body:     body,
		Params:   params,
	})
	s.mu.Unlock()

	c.Next()
}
