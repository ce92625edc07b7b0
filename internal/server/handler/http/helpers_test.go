package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func serve(t *testing.T, h Handlers, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	NewRouter(withDefaults(h), zap.NewNop()).ServeHTTP(rec, req)
	return rec
}

func withDefaults(h Handlers) Handlers {
	if h.Listeners == nil {
		h.Listeners = &ListenerHandler{Service: &fakeListenerService{}}
	}
	if h.Logs == nil {
		h.Logs = &LogHandler{Store: &fakeLogReader{}}
	}
	if h.Users == nil {
		h.Users = &UserHandler{Service: &fakeUserService{}}
	}
	if h.AAA == nil {
		h.AAA = &AAAHandler{Service: &fakeAAAService{}}
	}
	return h
}
