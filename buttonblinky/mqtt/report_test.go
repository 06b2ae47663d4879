package mqtt

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReporter(t *testing.T) {
	Convey("A reporter", t, func() {
		reports := make(chan DelayReport, 2)
		r := NewReporter(reports)

		Convey("queues a numbered report per delay change", func() {
			r.DelayChanged(350)
			r.DelayChanged(300)

			first, second := <-reports, <-reports
			So(first.DelayMS, ShouldEqual, uint32(350))
			So(first.Presses, ShouldEqual, uint32(1))
			So(second.DelayMS, ShouldEqual, uint32(300))
			So(second.Presses, ShouldEqual, uint32(2))
			So(second.SinceBoot, ShouldBeGreaterThanOrEqualTo, first.SinceBoot)
		})

		Convey("drops reports instead of blocking when full", func() {
			r.DelayChanged(350)
			r.DelayChanged(300)
			r.DelayChanged(250)

			So(len(reports), ShouldEqual, 2)
			So(r.Dropped(), ShouldEqual, uint32(1))

			Convey("but still counts the press", func() {
				<-reports
				<-reports
				r.DelayChanged(200)
				So((<-reports).Presses, ShouldEqual, uint32(4))
			})
		})
	})
}

func TestSplitHostPort(t *testing.T) {
	Convey("splitHostPort", t, func() {
		Convey("splits on the last colon", func() {
			host, port, err := splitHostPort("broker.local:1883")
			So(err, ShouldBeNil)
			So(host, ShouldEqual, "broker.local")
			So(port, ShouldEqual, "1883")

			host, port, err = splitHostPort("fe80::1:8883")
			So(err, ShouldBeNil)
			So(host, ShouldEqual, "fe80::1")
			So(port, ShouldEqual, "8883")
		})

		Convey("rejects incomplete addresses", func() {
			for _, addr := range []string{"broker.local", ":1883", "broker.local:"} {
				_, _, err := splitHostPort(addr)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestParsePort(t *testing.T) {
	Convey("parsePort", t, func() {
		So(parsePort("1883"), ShouldEqual, uint16(1883))
		So(parsePort("65535"), ShouldEqual, uint16(65535))
		So(parsePort("65536"), ShouldEqual, uint16(0))
		So(parsePort("18a3"), ShouldEqual, uint16(0))
		So(parsePort(""), ShouldEqual, uint16(0))
	})
}
