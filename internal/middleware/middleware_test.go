package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

type MiddlewareSuite struct {
	suite.Suite
	logs   *bytes.Buffer
	logger *slog.Logger
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.logs = &bytes.Buffer{}
	s.logger = slog.New(slog.NewJSONHandler(s.logs, nil))
}

func (s *MiddlewareSuite) TestLoggingCapturesStatusAndRequestID() {
	var seen string
	h := Logging(s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pot", nil))

	s.Equal(http.StatusTeapot, rr.Code)
	s.NotEmpty(seen)
	s.Equal(seen, rr.Header().Get(RequestIDHeader))
	s.Contains(s.logs.String(), `"status":418`)
	s.Contains(s.logs.String(), `"size":15`)
	s.Contains(s.logs.String(), seen)
}

func (s *MiddlewareSuite) TestLoggingReusesIncomingRequestID() {
	h := Logging(s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	s.Equal("abc-123", rr.Header().Get(RequestIDHeader))
}

func (s *MiddlewareSuite) TestRecoveryCallsPanicHandler() {
	var recovered any
	h := Recovery(s.logger, func(w http.ResponseWriter, r *http.Request, err any) {
		recovered = err
		w.WriteHeader(http.StatusInternalServerError)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	s.Equal(http.StatusInternalServerError, rr.Code)
	s.Equal("kaboom", recovered)
	s.Contains(s.logs.String(), "panic recovered")
}

func (s *MiddlewareSuite) TestRecoverySkipsHandlerAfterResponseStarted() {
	called := false
	h := Recovery(s.logger, func(w http.ResponseWriter, r *http.Request, err any) {
		called = true
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	s.False(called)
	s.Equal(http.StatusAccepted, rr.Code)
	s.Contains(s.logs.String(), `"response_started":true`)
}

func (s *MiddlewareSuite) TestRecoveryReraisesAbortHandler() {
	h := Recovery(s.logger, func(w http.ResponseWriter, r *http.Request, err any) {})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		}))

	s.PanicsWithValue(http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func (s *MiddlewareSuite) TestRecoveryLogsRequestIDFromOuterLogging() {
	h := Recovery(s.logger, func(w http.ResponseWriter, r *http.Request, err any) {
		w.WriteHeader(http.StatusInternalServerError)
	})(Logging(s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("inner")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	s.Equal(http.StatusInternalServerError, rr.Code)
	s.Contains(s.logs.String(), `"request_id":"req-42"`)
}
