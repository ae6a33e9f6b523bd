package logger

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zapcore"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { _ = Sync() }()

		Convey("Then the global logger is available", func() {
			So(Get(), ShouldNotBeNil)
		})

		Convey("And named loggers can be derived", func() {
			named := Named("test")
			So(named, ShouldNotBeNil)
			So(func() { named.Info(context.Background(), "test message", String("k", "v")) }, ShouldNotPanic)
		})

		Convey("And logging with a request id does not panic", func() {
			ctx := WithRequestID(context.Background(), "req-1")
			So(RequestID(ctx), ShouldEqual, "req-1")
			So(func() { Get().Debug(ctx, "debug message", Int("n", 1), Error(context.Canceled)) }, ShouldNotPanic)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		defer func() { _ = SetLevelString("info") }()

		Convey("Then known levels are accepted", func() {
			So(SetLevelString("debug"), ShouldBeNil)
			So(level.Level(), ShouldEqual, zapcore.DebugLevel)
			So(SetLevelString("WARNING"), ShouldBeNil)
			So(level.Level(), ShouldEqual, zapcore.WarnLevel)
			So(SetLevelString(""), ShouldBeNil)
			So(level.Level(), ShouldEqual, zapcore.InfoLevel)
		})

		Convey("Then unknown levels are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := NewNop()
		So(func() { l.Named("x").Warn(context.Background(), "dropped") }, ShouldNotPanic)
	})
}
