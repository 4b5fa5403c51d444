package lark

// AccessToken is the payload of testRequest
type AccessToken struct {
	Token string `json:"token"`
}

type testRequest struct {
	Endpoint[AccessToken] `request:"POST, 'https://exmaple.com/user/:id', AccessToken"`

	RequestID string  `request:"header, rename = 'Authorization', with = 'Bearer '" json:"-"`
	User      string  `request:"header, rename = 'User'" json:"-"`
	ID        uint64  `request:"path = 'id'" json:"-"`
	Page      *uint64 `request:"query = 'page'" json:"-"`
	Limit     uint64  `request:"query = 'limit'" json:"-"`
	F1        string  `json:"f1"`
	F2        string  `json:"f2"`
}

func newTestRequest() *testRequest {
	return &testRequest{
		RequestID: "rid",
		User:      "bob",
		ID:        1,
		Limit:     10,
		F1:        "v1",
		F2:        "v2",
	}
}

// User is the payload of getUserRequest
type User struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type getUserRequest struct {
	Endpoint[User] `request:"GET, '/open-apis/contact/v3/users/:user_id', User"`

	UserID     string   `request:"path = 'user_id'" json:"-" validate:"required"`
	IDType     string   `request:"query = 'user_id_type'" json:"-"`
	Department []string `request:"query = 'department_id'" json:"-"`
	Token      string   `request:"header, rename = 'Authorization', with = 'Bearer '" json:"-"`
}

// Message is the payload of sendMessageRequest
type Message struct {
	MessageID string `json:"message_id"`
}

type sendMessageRequest struct {
	Endpoint[Message] `request:"'/open-apis/im/v1/messages', Message"`

	ReceiveIDType string `request:"query = 'receive_id_type'" json:"-"`
	ReceiveID     string `json:"receive_id"`
	MsgType       string `json:"msg_type"`
	Content       string `json:"content"`
}

// Chat is the payload of deleteChatRequest
type Chat struct{}

type deleteChatRequest struct {
	Endpoint[Chat] `request:"DELETE, '/open-apis/im/v1/chats/:chat_id', Chat, body = false"`

	ChatID string `request:"path = 'chat_id'" json:"-"`
}
