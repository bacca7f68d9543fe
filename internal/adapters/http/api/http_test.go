package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/http/api"
	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/sink"
	service "github.com/bloodyt3ars/neural-interfaces/internal/app"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockStatsProvider struct {
	stats service.Stats
}

func (m *mockStatsProvider) GetStats() service.Stats {
	return m.stats
}

func newMux(stats service.Stats, tracker *sink.Tracker) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(&mockStatsProvider{stats: stats}, tracker).Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		tracker := sink.NewTracker()
		mux := newMux(service.Stats{
			Started:   true,
			Source:    "synthetic",
			Blocks:    12,
			Samples:   300,
			Malformed: 1,
			Detectors: map[string]service.DetectorStats{"blink": {Samples: 300, Events: 2, Suppressed: 5}},
		}, tracker)

		Convey("When requesting /healthz", func() {
			sink.Metrics{}.OnDetectionEvent(model.DetectionEvent{Kind: model.Blink})
			w := serve(mux, http.MethodGet, "/healthz")

			Convey("Then it serves the Prometheus exposition", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "neuro_pipeline_detection_events_total")
			})
		})

		Convey("When requesting /stats", func() {
			tracker.OnDetectionEvent(model.DetectionEvent{Timestamp: 1.25, Kind: model.Blink})
			tracker.OnDetectionEvent(model.DetectionEvent{Timestamp: 3.5, Kind: model.Clench})
			w := serve(mux, http.MethodGet, "/stats")

			Convey("Then service and listener counts are combined", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")

				var body map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["source"], ShouldEqual, "synthetic")
				So(body["blocks"], ShouldEqual, 12.0)
				So(body["malformed_blocks"], ShouldEqual, 1.0)
				So(body["events"], ShouldResemble, map[string]any{"blink": 1.0, "clench": 1.0})
				So(body["last_event"], ShouldResemble, map[string]any{"kind": "clench", "timestamp": 3.5})

				detectors := body["detectors"].(map[string]any)
				So(detectors["blink"], ShouldResemble, map[string]any{"samples": 300.0, "events": 2.0, "suppressed": 5.0})
			})
		})

		Convey("When requesting /rhythm before any reading", func() {
			w := serve(mux, http.MethodGet, "/rhythm")

			Convey("Then it answers not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
				So(w.Body.String(), ShouldContainSubstring, "no rhythm reading yet")
			})
		})

		Convey("When requesting /rhythm after a reading", func() {
			tracker.OnRhythmReading(model.RhythmReading{AlphaPower: 40, BetaPower: 10, Ratio: 4, Timestamp: 2.5})
			w := serve(mux, http.MethodGet, "/rhythm")

			Convey("Then it returns the latest reading", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]float64
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body, ShouldResemble, map[string]float64{
					"alpha_power": 40,
					"beta_power":  10,
					"ratio":       4,
					"timestamp":   2.5,
				})
			})
		})

		Convey("When the latest reading cannot be encoded", func() {
			tracker.OnRhythmReading(model.RhythmReading{AlphaPower: math.NaN(), BetaPower: 10, Ratio: math.NaN(), Timestamp: 3})
			w := serve(mux, http.MethodGet, "/rhythm")

			Convey("Then it reports a server error with a body", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, `"code":"encode_error"`)
			})
		})

		Convey("When posting to a read-only endpoint", func() {
			w := serve(mux, http.MethodPost, "/stats")

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
			})
		})

		Convey("When requesting an unknown path", func() {
			w := serve(mux, http.MethodGet, "/unknown")

			Convey("Then it answers not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given classified errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes are both reachable", func() {
			err := api.WrapKind("rhythm", api.ErrNotFound, cause)
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "rhythm: not found: boom")
		})

		Convey("Then NewKind carries no cause", func() {
			err := api.NewKind("stats", api.ErrMethodNotAllowed)
			So(errors.Is(err, api.ErrMethodNotAllowed), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "stats: method not allowed")
		})

		Convey("Then Wrap adds context only", func() {
			err := api.Wrap("healthz", cause)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(errors.Is(err, api.ErrNotFound), ShouldBeFalse)
			So(strings.HasPrefix(err.Error(), "healthz: "), ShouldBeTrue)
		})

		Convey("Then nil causes stay nil", func() {
			So(api.Wrap("op", nil), ShouldBeNil)
			So(api.WrapKind("op", api.ErrBadRequest, nil), ShouldBeNil)
		})
	})
}
