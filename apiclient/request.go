package apiclient

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Request describes one API call. It is never modified by the client; a
// replay after a token refresh sends the same method, path, params, data and
// headers with a new Authorization header.
type Request struct {
	Method  string
	Path    string
	Params  url.Values
	Data    any
	Headers http.Header
}

// Get, Post and friends build the common requests.
func Get(path string, params url.Values) Request {
	return Request{Method: http.MethodGet, Path: path, Params: params}
}

func Post(path string, data any) Request {
	return Request{Method: http.MethodPost, Path: path, Data: data}
}

func Put(path string, data any) Request {
	return Request{Method: http.MethodPut, Path: path, Data: data}
}

func Delete(path string) Request {
	return Request{Method: http.MethodDelete, Path: path}
}

// attempt is one send of a Request. retried marks the single replay allowed
// after a refresh; accessToken, when set, replaces the stored token.
type attempt struct {
	req         Request
	retried     bool
	anonymous   bool
	accessToken string
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
}

// Decode unmarshals the JSON body into out. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if r == nil || out == nil || len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, out)
}
