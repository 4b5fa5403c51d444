// Package lark builds and executes Lark Open API requests declared as
// annotated Go structs.
//
// A request struct embeds Endpoint[T], T being the payload type, and tags the
// embedded field with the method, the URL template and the payload name:
//
//	type GetUserRequest struct {
//	    lark.Endpoint[User] `request:"GET, '/open-apis/contact/v3/users/:user_id', User"`
//
//	    UserID string `request:"path = 'user_id'" json:"-"`
//	    Token  string `request:"header, rename = 'Authorization', with = 'Bearer '" json:"-"`
//	}
//
// Call executes such a value. Types processed by larkgen implement Request
// statically; other types are compiled once by reflection.
package lark

import "reflect"

// Param is an ordered name/value pair used for query parameters and headers
type Param struct {
	Name  string
	Value string
}

// Request is the contract the execution pipeline consumes
type Request[T any] interface {
	// Method returns the HTTP method
	Method() string

	// Address returns the URL template, ':name' segments are path parameters
	Address() string

	// Body returns the request body, nil when none is sent
	Body() ([]byte, error)

	// PathParams maps placeholder names to values, nil when the request has no path fields
	PathParams() map[string]string

	// QueryParams returns query pairs in declaration order, nil when the request has no query fields
	QueryParams() []Param

	// Headers returns header pairs in declaration order, nil when the request has no header fields
	Headers() []Param

	// Envelope returns a fresh envelope to decode the response into
	Envelope() Response[T]
}

// Endpoint marks a struct as a request returning T. It carries the request
// annotation in its struct tag and adds nothing to the JSON encoding.
type Endpoint[T any] struct{}

func (Endpoint[T]) larkEndpoint(*T) {}

func (Endpoint[T]) payloadType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Annotated is satisfied by every struct embedding Endpoint[T]
type Annotated[T any] interface {
	larkEndpoint(*T)
}

type payloadTyped interface {
	payloadType() reflect.Type
}
