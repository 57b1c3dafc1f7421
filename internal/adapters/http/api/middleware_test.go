package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifyFailure(t *testing.T) {
	Convey("Given the failures the game routes answer with", t, func() {
		cases := []struct {
			code     int
			class    string
			severity string
		}{
			{http.StatusBadRequest, "bad_request", "low"},
			{http.StatusUnauthorized, "unauthorized", "medium"},
			{http.StatusNotFound, "not_found", "low"},
			{http.StatusTooManyRequests, "backpressure", "medium"},
			{http.StatusServiceUnavailable, "unavailable", "medium"},
			{http.StatusInternalServerError, "server_error", "high"},
			{http.StatusConflict, "client_error", "low"},
		}

		for _, c := range cases {
			Convey("Then "+http.StatusText(c.code)+" is classified", func() {
				class, severity := classifyFailure(c.code)
				So(class, ShouldEqual, c.class)
				So(severity, ShouldEqual, c.severity)
			})
		}
	})
}

func TestInstrument(t *testing.T) {
	Convey("Given an instrumented route", t, func() {
		Convey("When the handler writes a body without a status", func() {
			var seen int
			h := instrument("count", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("ok"))
				seen = w.(*responseWriter).statusCode
			})
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/count", http.NoBody))

			Convey("Then the response counts as 200", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(seen, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the handler writes the status twice", func() {
			var seen int
			h := instrument("events", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				w.WriteHeader(http.StatusInternalServerError)
				seen = w.(*responseWriter).statusCode
			})
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodPost, "/events", http.NoBody))

			Convey("Then the first status is the one recorded", func() {
				So(seen, ShouldEqual, http.StatusTooManyRequests)
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			})
		})

		Convey("Then unexpected methods share one label", func() {
			So(methodLabel(http.MethodGet), ShouldEqual, http.MethodGet)
			So(methodLabel(http.MethodPost), ShouldEqual, http.MethodPost)
			So(methodLabel(http.MethodDelete), ShouldEqual, "other")
			So(methodLabel("BREW"), ShouldEqual, "other")
		})
	})
}
