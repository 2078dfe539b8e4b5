package config_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/covidboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 200)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("COVIDBOARD_ADDR", ":8080")
			_ = os.Setenv("COVIDBOARD_DATA_PATH", "/data/latest.csv")
			_ = os.Setenv("COVIDBOARD_HISTORY_DAYS", "all")
			_ = os.Setenv("COVIDBOARD_HISTORY_TIMEOUT_MS", "500")
			_ = os.Setenv("COVIDBOARD_DEFAULT_TOP_N", "15")
			_ = os.Setenv("COVIDBOARD_METRICS_ENABLED", "false")
			_ = os.Setenv("COVIDBOARD_METRICS_ENV", "staging")
			_ = os.Setenv("COVIDBOARD_METRICS_REFRESH_MS", "5000")

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataPath, convey.ShouldEqual, "/data/latest.csv")
				convey.So(cfg.HistoryDays, convey.ShouldEqual, "all")
				convey.So(cfg.HistoryTimeoutMS, convey.ShouldEqual, 500)
				convey.So(cfg.DefaultTopN, convey.ShouldEqual, 15)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsEnv, convey.ShouldEqual, "staging")
				convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 5*time.Second)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
# snapshot location
addr: ":9090"
data_path: "fixtures/country_wise_latest.csv"
history_url: ""
placeholder_days: 30
max_leaderboard_limit: 50
metrics_namespace: covid
metrics_latency_buckets: [0.005, 0.05, 0.5]
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("COVIDBOARD_CONFIG", tmpFile)

			cfg, err := config.Load()

			convey.Convey("Then file values are applied over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataPath, convey.ShouldEqual, "fixtures/country_wise_latest.csv")
				convey.So(cfg.HistoryURL, convey.ShouldEqual, "")
				convey.So(cfg.PlaceholderDays, convey.ShouldEqual, 30)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 50)
				convey.So(cfg.DefaultTopN, convey.ShouldEqual, 20) // default
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "covid")
				convey.So(cfg.MetricsLatencyBuckets, convey.ShouldResemble, []float64{0.005, 0.05, 0.5})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
history_days: 60
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("COVIDBOARD_CONFIG", tmpFile)
			_ = os.Setenv("COVIDBOARD_ADDR", ":8080")

			cfg, err := config.Load()

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.HistoryDays, convey.ShouldEqual, "60")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("COVIDBOARD_CONFIG", tmpFile)

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("COVIDBOARD_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("COVIDBOARD_ADDR", "")

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("COVIDBOARD_PLACEHOLDER_DAYS", "not_a_number")

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"COVIDBOARD_CONFIG",
		"COVIDBOARD_ADDR",
		"COVIDBOARD_DATA_PATH",
		"COVIDBOARD_HISTORY_DAYS",
		"COVIDBOARD_HISTORY_TIMEOUT_MS",
		"COVIDBOARD_DEFAULT_TOP_N",
		"COVIDBOARD_PLACEHOLDER_DAYS",
		"COVIDBOARD_METRICS_ENABLED",
		"COVIDBOARD_METRICS_ENV",
		"COVIDBOARD_METRICS_REFRESH_MS",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "covidboard-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
