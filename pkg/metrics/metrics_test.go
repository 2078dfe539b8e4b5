package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "covidboard")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied to collector names", func() {
				manager.cacheHits.WithLabelValues("datasets").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					if mf.GetName() == "test_namespace_pipeline_cache_hits_total" {
						found = true
						var names []string
						for _, l := range mf.GetMetric()[0].GetLabel() {
							names = append(names, l.GetName())
						}
						So(names, ShouldResemble, []string{"cache", "env"})
					}
				}
				So(found, ShouldBeTrue)
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on duplicate collectors", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording loads", func() {
			before := testutil.ToFloat64(globalManager.datasetLoads.WithLabelValues("file", "ok"))
			RecordDatasetLoad("file", "ok")
			RecordDatasetLoadLatency("file", 12)
			UpdateDatasetRecords("file", 187)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.datasetLoads.WithLabelValues("file", "ok")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.datasetRecords.WithLabelValues("file")), ShouldEqual, 187)
			})
		})

		Convey("When recording cache activity", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits.WithLabelValues("datasets"))
			RecordCacheHit("datasets")
			RecordCacheMiss("datasets")
			UpdateCacheEntries("datasets", 2)
			RecordCacheInvalidation("datasets")

			Convey("Then hits and entries are tracked", func() {
				So(testutil.ToFloat64(globalManager.cacheHits.WithLabelValues("datasets")), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.cacheEntries.WithLabelValues("datasets")), ShouldEqual, 2)
			})
		})

		Convey("When recording schema drift", func() {
			before := testutil.ToFloat64(globalManager.schemaDrift.WithLabelValues("unknown"))
			RecordSchemaDrift("unknown", 3)
			RecordSchemaDrift("unknown", 0)

			Convey("Then only positive counts are added", func() {
				So(testutil.ToFloat64(globalManager.schemaDrift.WithLabelValues("unknown")), ShouldEqual, before+3)
			})
		})

		Convey("When recording the rest", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordPlaceholderSubstitution()
					RecordRankingQuery("cumulative_confirmed", "desc")
					RecordResolveOutcome("token")
					UpdateCircuitBreakerState("history", 2)
					RecordHTTPRequest("leaderboard", "GET", "200")
					RecordHTTPRequestDuration("leaderboard", "GET", "200", 5)
					RecordErrorByComponent("source", "timeout")
					RecordErrorByType("client_error", "medium")
					RecordErrorByEndpoint("entity", "GET", "not_found")
					RecordErrorLatency("http", "not_found", 1)
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(8)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given the global manager is re-initialized", t, func() {
		Reset(func() { Init() })

		Convey("When metrics are disabled", func() {
			Init(WithMetricsEnabled(false), WithRefreshInterval(3*time.Second))
			RecordCacheHit("datasets")

			Convey("Then recording is a no-op on the new registry", func() {
				So(Enabled(), ShouldBeFalse)
				So(RefreshInterval(), ShouldEqual, 3*time.Second)
				So(testutil.ToFloat64(globalManager.cacheHits.WithLabelValues("datasets")), ShouldEqual, 0)
			})
		})

		Convey("When a namespace and env label are set", func() {
			Init(WithNamespace("cb"), WithCustomLabels(map[string]string{"env": "staging"}))
			RecordPlaceholderSubstitution()

			Convey("Then the registry serves the renamed collector", func() {
				So(Enabled(), ShouldBeTrue)
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, mf := range families {
					names = append(names, mf.GetName())
				}
				So(names, ShouldContain, "cb_pipeline_placeholder_substitutions_total")
			})
		})

		Convey("When called twice", func() {
			Convey("Then no duplicate registration panics", func() {
				So(func() { Init(); Init() }, ShouldNotPanic)
			})
		})
	})
}
