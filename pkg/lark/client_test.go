package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/toyz/lark/pkg/lark/larktest"
)

const userPath = "/open-apis/contact/v3/users/:user_id"

func newTestClient(srv *larktest.Server, opts ...Option) *Client {
	return NewClient(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
}

func requireLarkError(t *testing.T, err error) *LarkError {
	t.Helper()
	require.Error(t, err)
	larkErr, ok := AsLarkError(err)
	require.True(t, ok, "expected a *LarkError, got %T", err)
	return larkErr
}

func TestCallGet(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Success(http.MethodGet, userPath, gin.H{"user_id": "ou_1", "name": "Ada"})

	user, err := Call[User](context.Background(), newTestClient(srv), &getUserRequest{
		UserID:     "ou_1",
		IDType:     "open_id",
		Department: []string{"d1", "d2"},
		Token:      "u-token",
	})
	require.NoError(t, err)
	assert.Equal(t, User{UserID: "ou_1", Name: "Ada"}, user)

	got, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/open-apis/contact/v3/users/ou_1", got.Path)
	assert.Equal(t, "ou_1", got.Params["user_id"])
	assert.Equal(t, "user_id_type=open_id&department_id=d1%2Cd2", got.RawQuery)
	assert.Equal(t, "Bearer u-token", got.Header.Get("Authorization"))
	assert.Empty(t, got.Body)
	assert.Empty(t, got.Header.Get("Content-Type"))
}

func TestCallPostSendsJSONBody(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Success(http.MethodPost, "/open-apis/im/v1/messages", gin.H{"message_id": "om_1"})

	msg, err := Call[Message](context.Background(), newTestClient(srv), &sendMessageRequest{
		ReceiveIDType: "chat_id",
		ReceiveID:     "oc_1",
		MsgType:       "text",
		Content:       `{"text":"hi"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "om_1", msg.MessageID)

	got, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "receive_id_type=chat_id", got.RawQuery)
	assert.Equal(t, "application/json; charset=utf-8", got.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"receive_id":"oc_1","msg_type":"text","content":"{\"text\":\"hi\"}"}`, string(got.Body))
}

func TestCallDeleteWithoutBody(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Success(http.MethodDelete, "/open-apis/im/v1/chats/:chat_id", gin.H{})

	_, err := Call[Chat](context.Background(), newTestClient(srv), &deleteChatRequest{ChatID: "oc_9"})
	require.NoError(t, err)

	got, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "/open-apis/im/v1/chats/oc_9", got.Path)
	assert.Empty(t, got.Body)
	assert.Empty(t, got.RawQuery)
}

func TestCallFailures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(srv *larktest.Server)
		code     uint64
		contains string
	}{
		{
			name: "envelope failure",
			setup: func(srv *larktest.Server) {
				srv.Fail(http.MethodGet, userPath, 99991663, "tenant access token invalid")
			},
			code:     99991663,
			contains: "tenant access token invalid",
		},
		{
			name: "success without data",
			setup: func(srv *larktest.Server) {
				srv.ReplyRaw(http.MethodGet, userPath, http.StatusOK, `{"code":0,"msg":"ok"}`)
			},
			code:     CodeBadGateway,
			contains: MessageMissingData,
		},
		{
			name: "undecodable body",
			setup: func(srv *larktest.Server) {
				srv.ReplyRaw(http.MethodGet, userPath, http.StatusOK, `<html>`)
			},
			code:     CodeInternal,
			contains: "decode error",
		},
		{
			name: "non-2xx with failed envelope",
			setup: func(srv *larktest.Server) {
				srv.ReplyRaw(http.MethodGet, userPath, http.StatusBadRequest, `{"code":99991400,"msg":"request trigger frequency limit"}`)
			},
			code:     99991400,
			contains: "frequency limit",
		},
		{
			name: "non-2xx without envelope",
			setup: func(srv *larktest.Server) {
				srv.ReplyRaw(http.MethodGet, userPath, http.StatusServiceUnavailable, `upstream unavailable`)
			},
			code:     http.StatusServiceUnavailable,
			contains: "status error: 503 Service Unavailable",
		},
		{
			name: "non-2xx with success envelope",
			setup: func(srv *larktest.Server) {
				srv.ReplyRaw(http.MethodGet, userPath, http.StatusInternalServerError, `{"code":0,"msg":"ok","data":{}}`)
			},
			code:     http.StatusInternalServerError,
			contains: "status error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := larktest.NewServer(t)
			tt.setup(srv)

			_, err := Call[User](context.Background(), newTestClient(srv), &getUserRequest{UserID: "ou_1"})
			larkErr := requireLarkError(t, err)
			assert.Equal(t, tt.code, larkErr.Code)
			assert.Contains(t, larkErr.Error(), tt.contains)
		})
	}
}

func TestCallCarriesLogID(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Handle(http.MethodGet, userPath, func(c *gin.Context) {
		c.Header(HeaderLogID, "20240102-abc")
		c.JSON(http.StatusOK, gin.H{"code": 1, "msg": "bad"})
	})

	_, err := Call[User](context.Background(), newTestClient(srv), &getUserRequest{UserID: "ou_1"})
	larkErr := requireLarkError(t, err)
	assert.Equal(t, uint64(1), larkErr.Code)
	assert.Equal(t, "20240102-abc", larkErr.LogID)
	assert.Equal(t, "[1]: bad", larkErr.Error())
}

func TestCallValidatesBeforeSending(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Success(http.MethodGet, userPath, gin.H{})

	_, err := Call[User](context.Background(), newTestClient(srv), &getUserRequest{})
	larkErr := requireLarkError(t, err)
	assert.Equal(t, CodeBadRequest, larkErr.Code)
	assert.Contains(t, larkErr.Message, "UserID")
	assert.Empty(t, srv.Requests())

	// without validation the empty id is sent and no route matches
	_, err = Call[User](context.Background(), newTestClient(srv, WithoutValidation()), &getUserRequest{})
	larkErr = requireLarkError(t, err)
	assert.Equal(t, uint64(http.StatusNotFound), larkErr.Code)
	require.Len(t, srv.Requests(), 1)
	assert.Equal(t, "/open-apis/contact/v3/users/", srv.Requests()[0].Path)
}

type customTagRequest struct {
	Endpoint[Message] `request:"'/open-apis/im/v1/messages', Message"`

	ID string `request:"query = 'id'" json:"-" validate:"lark_id"`
}

func TestCallCustomValidationTag(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Success(http.MethodPost, "/open-apis/im/v1/messages", gin.H{"message_id": "om_1"})

	t.Run("unregistered tag", func(t *testing.T) {
		var err error
		require.NotPanics(t, func() {
			_, err = Call[Message](context.Background(), newTestClient(srv), &customTagRequest{ID: "ou_1"})
		})
		larkErr := requireLarkError(t, err)
		assert.Equal(t, CodeBadRequest, larkErr.Code)
		assert.Contains(t, larkErr.Message, "lark_id")
		assert.Empty(t, srv.Requests())
	})

	t.Run("registered tag", func(t *testing.T) {
		v := validator.New()
		require.NoError(t, v.RegisterValidation("lark_id", func(fl validator.FieldLevel) bool {
			return strings.HasPrefix(fl.Field().String(), "ou_")
		}))
		c := newTestClient(srv, WithValidator(v))

		msg, err := Call[Message](context.Background(), c, &customTagRequest{ID: "ou_1"})
		require.NoError(t, err)
		assert.Equal(t, "om_1", msg.MessageID)

		_, err = Call[Message](context.Background(), c, &customTagRequest{ID: "x"})
		assert.Equal(t, CodeBadRequest, requireLarkError(t, err).Code)
		assert.Len(t, srv.Requests(), 1)
	})
}

type blockingTokenSource struct {
	release chan struct{}
}

func (s blockingTokenSource) Token() (*oauth2.Token, error) {
	<-s.release
	return &oauth2.Token{AccessToken: "late"}, nil
}

func TestCallTokenWaitHonoursContext(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Success(http.MethodPost, "/open-apis/im/v1/messages", gin.H{"message_id": "om_1"})

	src := blockingTokenSource{release: make(chan struct{})}
	defer close(src.release)
	c := newTestClient(srv, WithTokenSource(src))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Call[Message](ctx, c, &sendMessageRequest{})
	assert.Less(t, time.Since(start), 2*time.Second)

	larkErr := requireLarkError(t, err)
	assert.Equal(t, CodeInternal, larkErr.Code)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, srv.Requests())

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = Call[Message](canceled, c, &sendMessageRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallRelativeAddressWithoutBase(t *testing.T) {
	c := NewClient(WithBaseURL(""))

	_, err := Call[Message](context.Background(), c, &sendMessageRequest{})
	larkErr := requireLarkError(t, err)
	assert.Equal(t, CodeBadGateway, larkErr.Code)
	assert.Contains(t, larkErr.Message, "builder error: invalid url")
	assert.ErrorIs(t, err, errRelativeURL)
}

func TestCallInvalidDescriptor(t *testing.T) {
	_, err := Call[User](context.Background(), NewClient(), wrongResponse{})
	larkErr := requireLarkError(t, err)
	assert.Equal(t, CodeInternal, larkErr.Code)
	assert.True(t, strings.HasPrefix(larkErr.Message, "invalid request descriptor: "))
}

func TestCallRequestID(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Success(http.MethodPost, "/open-apis/im/v1/messages", gin.H{"message_id": "om_1"})
	c := newTestClient(srv, WithRequestID())

	_, err := Call[Message](context.Background(), c, &sendMessageRequest{})
	require.NoError(t, err)
	_, err = Call[Message](context.Background(), c, &sendMessageRequest{})
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	first, err := uuid.Parse(reqs[0].Header.Get(HeaderRequestID))
	require.NoError(t, err)
	second, err := uuid.Parse(reqs[1].Header.Get(HeaderRequestID))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCallTenantToken(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.TenantToken("t-abc", 7200)
	srv.Success(http.MethodPost, "/open-apis/im/v1/messages", gin.H{"message_id": "om_1"})
	srv.Success(http.MethodGet, userPath, gin.H{"user_id": "ou_1"})

	base := newTestClient(srv)
	c := base.With(WithTokenSource(NewTenantTokenSource(base, "cli_a", "secret")))

	for i := 0; i < 2; i++ {
		_, err := Call[Message](context.Background(), c, &sendMessageRequest{})
		require.NoError(t, err)
	}
	// an explicit Authorization header wins over the token source
	_, err := Call[User](context.Background(), c, &getUserRequest{UserID: "ou_1", Token: "u-token"})
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 4, "the token is fetched once and reused")

	tokenReq := reqs[0]
	assert.Equal(t, "/open-apis/auth/v3/tenant_access_token/internal", tokenReq.Path)
	assert.Empty(t, tokenReq.Header.Get("Authorization"))
	assert.JSONEq(t, `{"app_id":"cli_a","app_secret":"secret"}`, string(tokenReq.Body))

	assert.Equal(t, "Bearer t-abc", reqs[1].Header.Get("Authorization"))
	assert.Equal(t, "Bearer t-abc", reqs[2].Header.Get("Authorization"))
	assert.Equal(t, "Bearer u-token", reqs[3].Header.Get("Authorization"))
}

func TestCallTenantTokenFailure(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Reply(http.MethodPost, "/open-apis/auth/v3/tenant_access_token/internal", http.StatusOK, gin.H{
		"code": 10014,
		"msg":  "app secret invalid",
	})

	base := newTestClient(srv)
	c := base.With(WithTokenSource(NewTenantTokenSource(base, "cli_a", "wrong")))

	_, err := Call[Message](context.Background(), c, &sendMessageRequest{})
	larkErr := requireLarkError(t, err)
	assert.Equal(t, uint64(10014), larkErr.Code)
	assert.Len(t, srv.Requests(), 1)
}

func TestCallMetrics(t *testing.T) {
	srv := larktest.NewServer(t)
	srv.Success(http.MethodGet, userPath, gin.H{"user_id": "ou_1"})

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := newTestClient(srv, WithMetrics(m))

	_, err := Call[User](context.Background(), c, &getUserRequest{UserID: "ou_1"})
	require.NoError(t, err)
	_, err = Call[User](context.Background(), c, &getUserRequest{})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, userPath, "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, userPath, "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestCallTransportFailures(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		srv := larktest.NewServer(t)
		srv.Handle(http.MethodGet, userPath, func(c *gin.Context) {
			time.Sleep(200 * time.Millisecond)
			c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "ok", "data": gin.H{}})
		})

		_, err := Call[User](context.Background(), newTestClient(srv, WithTimeouts(time.Second, 50*time.Millisecond)), &getUserRequest{UserID: "ou_1"})
		larkErr := requireLarkError(t, err)
		assert.Equal(t, CodeInternal, larkErr.Code)
		assert.True(t, strings.HasPrefix(larkErr.Message, "timeout error"), larkErr.Message)
	})

	t.Run("connect", func(t *testing.T) {
		closed := httptest.NewServer(http.NotFoundHandler())
		closed.Close()

		_, err := Call[User](context.Background(), NewClient(WithBaseURL(closed.URL)), &getUserRequest{UserID: "ou_1"})
		larkErr := requireLarkError(t, err)
		assert.Equal(t, CodeInternal, larkErr.Code)
		assert.True(t, strings.HasPrefix(larkErr.Message, "connect error"), larkErr.Message)
	})

	t.Run("canceled", func(t *testing.T) {
		srv := larktest.NewServer(t)
		srv.Success(http.MethodGet, userPath, gin.H{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Call[User](ctx, newTestClient(srv), &getUserRequest{UserID: "ou_1"})
		larkErr := requireLarkError(t, err)
		assert.Equal(t, CodeInternal, larkErr.Code)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCallLogsTransportFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := NewClient(WithBaseURL(""), WithLogger(logger))
	_, err := Call[Message](context.Background(), c, &sendMessageRequest{})
	require.Error(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "lark request failed", entry["msg"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, float64(CodeBadGateway), entry["code"])
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// staticUser implements Request directly, the way generated glue does
type staticUser struct {
	Endpoint[User] `request:"GET, '/users/:id', User"`

	ID string
}

func (staticUser) Method() string  { return http.MethodGet }
func (staticUser) Address() string { return "/users/:id" }

func (staticUser) Body() ([]byte, error) { return nil, nil }

func (r staticUser) PathParams() map[string]string { return map[string]string{"id": r.ID} }
func (staticUser) QueryParams() []Param            { return []Param{{Name: "q", Value: "a b"}} }
func (staticUser) Headers() []Param                { return nil }
func (staticUser) Envelope() Response[User]        { return NewEnvelope[User](false) }

func TestCallUsesStaticRequest(t *testing.T) {
	var seen *http.Request
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		seen = req
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(`{"code":0,"msg":"ok","data":{"user_id":"u7"}}`)),
		}, nil
	})

	user, err := Call[User](context.Background(), NewClient(WithHTTPClient(doer)), staticUser{ID: "u7"})
	require.NoError(t, err)
	assert.Equal(t, "u7", user.UserID)

	require.NotNil(t, seen)
	assert.Equal(t, "https://open.feishu.cn/users/u7?q=a+b", seen.URL.String())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		address string
		want    string
		wantErr bool
	}{
		{name: "relative", base: "https://open.feishu.cn", address: "/open-apis/x", want: "https://open.feishu.cn/open-apis/x"},
		{name: "relative without slash", base: "https://open.feishu.cn/", address: "open-apis/x", want: "https://open.feishu.cn/open-apis/x"},
		{name: "absolute ignores base", base: "https://open.feishu.cn", address: "http://127.0.0.1:9/x", want: "http://127.0.0.1:9/x"},
		{name: "relative without base", address: "/open-apis/x", wantErr: true},
		{name: "unparsable", address: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(WithBaseURL(tt.base))
			u, err := c.resolve(tt.address)
			if tt.wantErr {
				larkErr := requireLarkError(t, err)
				assert.Equal(t, CodeBadGateway, larkErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestAppendQuery(t *testing.T) {
	u, err := url.Parse("https://open.feishu.cn/x?page_size=10")
	require.NoError(t, err)

	appendQuery(u, []Param{
		{Name: "user_id", Value: "a b"},
		{Name: "user_id", Value: "c&d"},
	})
	assert.Equal(t, "page_size=10&user_id=a+b&user_id=c%26d", u.RawQuery)

	appendQuery(u, nil)
	assert.Equal(t, "page_size=10&user_id=a+b&user_id=c%26d", u.RawQuery)
}
