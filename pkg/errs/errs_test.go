package errs_test

import (
	"errors"
	"testing"

	"github.com/okian/retention/pkg/errs"
	. "github.com/smartystreets/goconvey/convey"
)

var errKind = errors.New("bad request")

func TestWrap(t *testing.T) {
	Convey("Given a cause error", t, func() {
		cause := errors.New("boom")

		Convey("When wrapping with an op", func() {
			err := errs.Wrap("backend.fetch", cause)

			Convey("Then the message carries the op and the cause is reachable", func() {
				So(err.Error(), ShouldEqual, "backend.fetch: boom")
				So(errors.Is(err, cause), ShouldBeTrue)
				So(errs.Op(err), ShouldEqual, "backend.fetch")
			})
		})

		Convey("When wrapping nil", func() {
			So(errs.Wrap("noop", nil), ShouldBeNil)
		})

		Convey("When wrapping with a kind", func() {
			err := errs.WrapKind("api.predictions", errKind, cause)

			Convey("Then both kind and cause match", func() {
				So(errors.Is(err, errKind), ShouldBeTrue)
				So(errors.Is(err, cause), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "api.predictions: bad request: boom")
			})
		})

		Convey("When building a bare kind", func() {
			err := errs.NewKind("api.export", errKind)
			So(errors.Is(err, errKind), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.export: bad request")
		})
	})
}
