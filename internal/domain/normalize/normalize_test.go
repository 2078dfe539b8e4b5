package normalize_test

import (
	"errors"
	"testing"

	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func kaggleRow() map[string]string {
	return map[string]string{
		"Country/Region":      "Afghanistan",
		"Confirmed":           "36263",
		"Deaths":              "1269",
		"Recovered":           "25198",
		"Active":              "9796",
		"New cases":           "106",
		"New deaths":          "10",
		"New recovered":       "18",
		"Confirmed last week": "35526",
		"1 week change":       "737",
		"1 week % increase":   "2.07",
		"WHO Region":          "Eastern Mediterranean",
	}
}

func TestNormalize(t *testing.T) {
	Convey("Given a complete source row", t, func() {
		row := kaggleRow()

		Convey("When normalizing it", func() {
			r, rep, err := normalize.Normalize(row)

			Convey("Then every canonical field is populated", func() {
				So(err, ShouldBeNil)
				So(rep.Clean(), ShouldBeTrue)
				So(r.EntityName, ShouldEqual, "Afghanistan")
				So(r.CumulativeConfirmed.Value, ShouldEqual, 36263)
				So(r.CumulativeDeaths.Value, ShouldEqual, 1269)
				So(r.CumulativeRecovered.Value, ShouldEqual, 25198)
				So(r.ActiveCases.Value, ShouldEqual, 9796)
				So(r.NewConfirmed.Value, ShouldEqual, 106)
				So(r.NewDeaths.Value, ShouldEqual, 10)
				So(r.NewRecovered.Value, ShouldEqual, 18)
				So(r.ConfirmedPriorPeriod.Value, ShouldEqual, 35526)
				So(r.PeriodChange.Value, ShouldEqual, 737)
				So(r.PeriodPctChange.Value, ShouldEqual, 2.07)
				So(r.RegionGroup.Value, ShouldEqual, "Eastern Mediterranean")
			})

			Convey("And normalizing the canonical form again", func() {
				again, rep2, err := normalize.Normalize(normalize.Denormalize(r))

				Convey("Then the record is unchanged", func() {
					So(err, ShouldBeNil)
					So(rep2.Clean(), ShouldBeTrue)
					So(again, ShouldResemble, r)
				})
			})
		})
	})

	Convey("Given a row with missing and unknown columns", t, func() {
		row := map[string]string{
			"Country/Region": "Chad",
			"Confirmed":      "922",
			"Lat":            "15.45",
		}

		Convey("When normalizing it", func() {
			r, rep, err := normalize.Normalize(row)

			Convey("Then missing fields stay unset and are reported", func() {
				So(err, ShouldBeNil)
				So(r.CumulativeDeaths.Valid, ShouldBeFalse)
				So(rep.Unknown, ShouldResemble, []string{"Lat"})
				So(rep.Missing, ShouldContain, model.FieldCumulativeDeaths)
				So(rep.Missing, ShouldNotContain, model.FieldCumulativeConfirmed)
				So(rep.Clean(), ShouldBeFalse)
			})

			Convey("And a partial record is idempotent too", func() {
				again, _, err := normalize.Normalize(normalize.Denormalize(r))
				So(err, ShouldBeNil)
				So(again, ShouldResemble, r)
			})
		})
	})

	Convey("Given malformed cells", t, func() {
		Convey("When a count is not a number", func() {
			row := kaggleRow()
			row["Deaths"] = "many"
			_, _, err := normalize.Normalize(row)

			Convey("Then a parse error is returned", func() {
				So(errors.Is(err, normalize.ErrParse), ShouldBeTrue)
			})
		})

		Convey("When a count is written as a float", func() {
			row := kaggleRow()
			row["Deaths"] = "1269.0"
			r, _, err := normalize.Normalize(row)

			Convey("Then it is accepted", func() {
				So(err, ShouldBeNil)
				So(r.CumulativeDeaths.Value, ShouldEqual, 1269)
			})
		})

		Convey("When a count has a fraction", func() {
			row := kaggleRow()
			row["Deaths"] = "12.5"
			_, _, err := normalize.Normalize(row)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, normalize.ErrFractionalCount), ShouldBeTrue)
			})
		})

		Convey("When a cumulative count is negative", func() {
			row := kaggleRow()
			row["Recovered"] = "-1"
			_, _, err := normalize.Normalize(row)

			Convey("Then validation fails", func() {
				So(errors.Is(err, model.ErrNegativeCount), ShouldBeTrue)
			})
		})

		Convey("When the weekly change is negative", func() {
			row := kaggleRow()
			row["1 week change"] = "-12"
			row["1 week % increase"] = "-0.5"
			r, _, err := normalize.Normalize(row)

			Convey("Then it is kept", func() {
				So(err, ShouldBeNil)
				So(r.PeriodChange.Value, ShouldEqual, -12)
				So(r.PeriodPctChange.Value, ShouldEqual, -0.5)
			})
		})

		Convey("When a cell is NaN", func() {
			row := kaggleRow()
			row["1 week % increase"] = "NaN"
			r, _, err := normalize.Normalize(row)

			Convey("Then the field stays unset", func() {
				So(err, ShouldBeNil)
				So(r.PeriodPctChange.Valid, ShouldBeFalse)
			})
		})

		Convey("When a cell spells NaN in another case", func() {
			for _, v := range []string{"NAN", "nAn", "na", "Na"} {
				row := kaggleRow()
				row["1 week % increase"] = v
				r, _, err := normalize.Normalize(row)
				So(err, ShouldBeNil)
				So(r.PeriodPctChange.Valid, ShouldBeFalse)
			}
		})

		Convey("When a percent cell is infinite", func() {
			for _, v := range []string{"inf", "+Inf", "-Infinity", "INFINITY"} {
				row := kaggleRow()
				row["1 week % increase"] = v
				_, _, err := normalize.Normalize(row)
				So(errors.Is(err, normalize.ErrParse), ShouldBeTrue)
				So(errors.Is(err, normalize.ErrNonFinite), ShouldBeTrue)
			}
		})

		Convey("When a count cell is infinite", func() {
			row := kaggleRow()
			row["Confirmed"] = "Inf"
			_, _, err := normalize.Normalize(row)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, normalize.ErrNonFinite), ShouldBeTrue)
			})
		})

		Convey("When a count overflows int64", func() {
			row := kaggleRow()
			row["Confirmed"] = "1e19"
			_, _, err := normalize.Normalize(row)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, normalize.ErrParse), ShouldBeTrue)
			})
		})

		Convey("When the entity name is missing", func() {
			row := kaggleRow()
			delete(row, "Country/Region")
			_, _, err := normalize.Normalize(row)

			Convey("Then the row is rejected", func() {
				So(errors.Is(err, model.ErrEmptyEntity), ShouldBeTrue)
			})
		})
	})
}

func TestDuplicateColumns(t *testing.T) {
	Convey("Given a row with a source label and its canonical name", t, func() {
		row := kaggleRow()
		row["cumulative_confirmed"] = "1"

		Convey("When normalizing it repeatedly", func() {
			Convey("Then it fails the same way every time", func() {
				for i := 0; i < 20; i++ {
					_, _, err := normalize.Normalize(row)
					So(errors.Is(err, normalize.ErrDuplicateColumn), ShouldBeTrue)
					So(err.Error(), ShouldContainSubstring, `"Confirmed" and "cumulative_confirmed"`)
				}
			})
		})
	})
}

func TestHeader(t *testing.T) {
	Convey("Given the mapping table", t, func() {
		Convey("Then every canonical field has a source label", func() {
			for _, f := range model.Fields() {
				So(normalize.SourceLabel(f), ShouldNotBeEmpty)
			}
		})

		Convey("Then labels resolve in both spellings", func() {
			f, ok := normalize.Lookup("1 week % increase")
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, model.FieldPeriodPctChange)

			f, ok = normalize.Lookup("period_pct_change")
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, model.FieldPeriodPctChange)
		})

		Convey("Then CheckHeader flags drift", func() {
			rep := normalize.CheckHeader([]string{"Country/Region", "Confirmed", "Province"})
			So(rep.Unknown, ShouldResemble, []string{"Province"})
			So(len(rep.Missing), ShouldEqual, len(model.Fields())-2)
		})
	})
}
