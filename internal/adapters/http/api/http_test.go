package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/okian/covidboard/internal/adapters/http/api"
	service "github.com/okian/covidboard/internal/app"
	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/ranking"
	"github.com/okian/covidboard/internal/domain/resolve"
	"github.com/okian/covidboard/internal/domain/summary"
	"github.com/okian/covidboard/internal/domain/timeslice"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies answers from an in-memory dataset using the domain packages.
type mockDependencies struct {
	d         *model.Dataset
	tl        model.Timeline
	err       error
	reloads   int
	reloadErr error
}

func newMockDependencies() *mockDependencies {
	rec := func(name, region string, confirmed, prior int64) model.Record {
		return model.Record{
			EntityName:           name,
			CumulativeConfirmed:  model.Some(confirmed),
			ConfirmedPriorPeriod: model.Some(prior),
			PeriodChange:         model.Some(confirmed - prior),
			RegionGroup:          model.Some(region),
		}
	}
	d, err := model.NewDataset("mock", model.ProvenanceFile, []model.Record{
		rec("US", "Americas", 100, 80),
		rec("India", "South-East Asia", 300, 200),
		rec("Chad", "Africa", 300, 290),
		rec("South Korea", "Western Pacific", 50, 45),
		{EntityName: "Holy See"},
	})
	if err != nil {
		panic(err)
	}
	tl, err := model.NewTimeline("placeholder", model.ProvenancePlaceholder, []model.TimelinePoint{
		{Date: time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		panic(err)
	}
	return &mockDependencies{d: d, tl: tl}
}

func (m *mockDependencies) TopN(_ context.Context, f model.Field, dir ranking.Direction, n int) (ranking.RankedView, error) {
	if m.err != nil {
		return ranking.RankedView{}, m.err
	}
	return ranking.Rank(m.d, f, dir, n)
}

func (m *mockDependencies) Resolve(_ context.Context, name string) (resolve.Match, error) {
	if m.err != nil {
		return resolve.Match{}, m.err
	}
	return resolve.Resolve(m.d, name)
}

func (m *mockDependencies) TimeSlices(ctx context.Context, f model.Field, n int, spec timeslice.Spec) ([]timeslice.Pair, error) {
	v, err := m.TopN(ctx, f, ranking.Largest, n)
	if err != nil {
		return nil, err
	}
	return timeslice.BuildView(v, spec)
}

func (m *mockDependencies) Summary(_ context.Context, f model.Field) (summary.Summary, error) {
	if m.err != nil {
		return summary.Summary{}, m.err
	}
	return summary.Summarize(m.d, f)
}

func (m *mockDependencies) Regions(_ context.Context, f model.Field) ([]summary.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	return summary.ByRegion(m.d, f)
}

func (m *mockDependencies) Timeline(context.Context) (model.Timeline, error) {
	if m.err != nil {
		return model.Timeline{}, m.err
	}
	return m.tl, nil
}

func (m *mockDependencies) Reload(context.Context) error {
	m.reloads++
	return m.reloadErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, api.Limits{Default: 2, Max: 3})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		panic(err)
	}
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newMockDependencies())

		Convey("Then health serves the metrics exposition", func() {
			w := do(mux, "GET", "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats returns the provider's map", func() {
			w := do(mux, "GET", "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Then unknown paths are not found", func() {
			So(do(mux, "GET", "/unknown").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then wrong methods are not found", func() {
			So(do(mux, "POST", "/leaderboard").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, "GET", "/reload").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given the leaderboard endpoint", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When called without parameters", func() {
			w := do(mux, "GET", "/leaderboard")

			Convey("Then the default limit ranks by confirmed, ties in dataset order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["metric"], ShouldEqual, "cumulative_confirmed")
				So(body["order"], ShouldEqual, "desc")
				So(body["dataset_id"], ShouldEqual, deps.d.ID().String())
				rows := body["rows"].([]interface{})
				So(len(rows), ShouldEqual, 2)
				So(rows[0].(map[string]interface{})["entity_name"], ShouldEqual, "India")
				So(rows[1].(map[string]interface{})["entity_name"], ShouldEqual, "Chad")
			})
		})

		Convey("When asking for the smallest movers", func() {
			w := do(mux, "GET", "/leaderboard?metric=period_change&order=asc&limit=1")

			Convey("Then the smallest value comes first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				rows := decode(w)["rows"].([]interface{})
				So(rows[0].(map[string]interface{})["entity_name"], ShouldEqual, "South Korea")
			})
		})

		Convey("When the limit is invalid", func() {
			Convey("Then zero, garbage and over-max limits are rejected", func() {
				So(do(mux, "GET", "/leaderboard?limit=0").Code, ShouldEqual, http.StatusBadRequest)
				So(do(mux, "GET", "/leaderboard?limit=abc").Code, ShouldEqual, http.StatusBadRequest)
				w := do(mux, "GET", "/leaderboard?limit=4")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the metric is unknown or not numeric", func() {
			Convey("Then the request is rejected as unknown_field", func() {
				w := do(mux, "GET", "/leaderboard?metric=population")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "unknown_field")

				w = do(mux, "GET", "/leaderboard?metric=region_group")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "unknown_field")
			})
		})

		Convey("When the order is invalid", func() {
			w := do(mux, "GET", "/leaderboard?order=sideways")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})

	Convey("Given a service without a snapshot", t, func() {
		deps := newMockDependencies()
		deps.err = service.ErrSnapshotUnavailable
		mux := newMux(deps)

		Convey("Then the leaderboard is unavailable", func() {
			w := do(mux, "GET", "/leaderboard")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decode(w)["code"], ShouldEqual, "unavailable")
		})
	})
}

func TestEntityHandler(t *testing.T) {
	Convey("Given the entity endpoint", t, func() {
		mux := newMux(newMockDependencies())

		Convey("When resolving a reordered name", func() {
			w := do(mux, "GET", "/entity/"+url.PathEscape("Korea, South"))

			Convey("Then the dataset name is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["match"], ShouldEqual, "South Korea")
				So(body["kind"], ShouldEqual, "token")
				So(body["ambiguous"], ShouldEqual, false)
			})
		})

		Convey("When the name is unknown", func() {
			w := do(mux, "GET", "/entity/Atlantis")

			Convey("Then 404 lists the available names", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				body := decode(w)
				So(body["code"], ShouldEqual, "not_found")
				So(len(body["available"].([]interface{})), ShouldEqual, 5)
			})
		})

		Convey("When the name is empty", func() {
			So(do(mux, "GET", "/entity/").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestTimeSliceHandler(t *testing.T) {
	Convey("Given the timeslices endpoint", t, func() {
		mux := newMux(newMockDependencies())

		Convey("When called with defaults", func() {
			w := do(mux, "GET", "/timeslices")

			Convey("Then the top movers get Last Week and Current pairs", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["metric"], ShouldEqual, "period_change")
				pairs := body["pairs"].([]interface{})
				So(len(pairs), ShouldEqual, 2)
				first := pairs[0].(map[string]interface{})
				So(first["entity_name"], ShouldEqual, "India")
				slices := first["slices"].([]interface{})
				So(slices[0].(map[string]interface{})["label"], ShouldEqual, "Last Week")
				So(slices[0].(map[string]interface{})["value"], ShouldEqual, 200.0)
				So(slices[1].(map[string]interface{})["label"], ShouldEqual, "Current")
			})
		})

		Convey("When labels are overridden", func() {
			w := do(mux, "GET", "/timeslices?limit=1&before_label=Then&after_label=Now")

			Convey("Then the labels are used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				first := decode(w)["pairs"].([]interface{})[0].(map[string]interface{})
				slices := first["slices"].([]interface{})
				So(slices[0].(map[string]interface{})["label"], ShouldEqual, "Then")
				So(slices[1].(map[string]interface{})["label"], ShouldEqual, "Now")
			})
		})

		Convey("When a pair field is missing on a ranked entity", func() {
			w := do(mux, "GET", "/timeslices?before=new_deaths")

			Convey("Then the request cannot be processed", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})
	})
}

func TestSummaryHandler(t *testing.T) {
	Convey("Given the summary endpoints", t, func() {
		mux := newMux(newMockDependencies())

		Convey("When summarizing without a field", func() {
			w := do(mux, "GET", "/summary")

			Convey("Then only the count is computed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["count"], ShouldEqual, 5.0)
				So(body["computed"], ShouldEqual, false)
			})
		})

		Convey("When summarizing confirmed cases", func() {
			w := do(mux, "GET", "/summary?field=cumulative_confirmed")

			Convey("Then the sum covers the records carrying it", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["sum"], ShouldEqual, 750.0)
				So(body["counted"], ShouldEqual, 4.0)
			})
		})

		Convey("When grouping by region", func() {
			w := do(mux, "GET", "/regions")

			Convey("Then the largest region comes first, ties by name", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				groups := decode(w)["groups"].([]interface{})
				So(groups[0].(map[string]interface{})["region"], ShouldEqual, "Africa")
				So(groups[1].(map[string]interface{})["region"], ShouldEqual, "South-East Asia")
			})
		})

		Convey("When grouping by a text field", func() {
			So(do(mux, "GET", "/regions?field=entity_name").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestTimelineHandler(t *testing.T) {
	Convey("Given a placeholder timeline", t, func() {
		mux := newMux(newMockDependencies())

		Convey("When it is requested", func() {
			w := do(mux, "GET", "/timeline")

			Convey("Then the provenance is flagged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("X-Data-Provenance"), ShouldEqual, "placeholder")
				body := decode(w)
				So(body["synthetic"], ShouldEqual, true)
				So(body["points"].([]interface{})[0].(map[string]interface{})["date"], ShouldEqual, "2020-01-22")
			})
		})
	})

	Convey("Given a failing timeline", t, func() {
		deps := newMockDependencies()
		deps.err = errors.New("boom")
		mux := newMux(deps)

		Convey("Then the endpoint is unavailable", func() {
			So(do(mux, "GET", "/timeline").Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestReloadHandler(t *testing.T) {
	Convey("Given the reload endpoint", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When posting", func() {
			w := do(mux, "POST", "/reload")

			Convey("Then the service reloads", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["status"], ShouldEqual, "reloaded")
				So(deps.reloads, ShouldEqual, 1)
			})
		})

		Convey("When the reload fails", func() {
			deps.reloadErr = service.ErrSnapshotUnavailable
			w := do(mux, "POST", "/reload")

			Convey("Then the failure is reported", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given op-tagged errors", t, func() {
		inner := errors.New("inner")

		Convey("Then kinds and causes are both matchable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, inner)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, inner), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: inner")

			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.NewKind("api.op", api.ErrUnavailable).Error(), ShouldEqual, "api.op: data unavailable")
		})
	})
}
