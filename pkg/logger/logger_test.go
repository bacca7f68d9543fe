package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("When initialized with an unknown format", func() {
			So(InitWith(&bytes.Buffer{}, "xml"), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, "json"), ShouldBeNil)
		ctx := context.Background()

		Convey("When a named logger writes a record", func() {
			Named("detector").Info(ctx, "event",
				String("kind", "blink"),
				Float64("t", 1.5),
				Int("n", 2),
				Uint64("suppressed", 3),
				Bool("ok", true),
				Duration("took", time.Millisecond),
				Any("channels", []int{3, 4}),
				Error(errors.New("boom")),
			)

			Convey("Then the record carries the component and fields", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "event")
				So(rec["component"], ShouldEqual, "detector")
				So(rec["kind"], ShouldEqual, "blink")
				So(rec["t"], ShouldEqual, 1.5)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Debug(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then only the warning is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When levels are parsed", func() {
			for _, lvl := range []string{"debug", "info", "", "warning", "ERROR"} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}
