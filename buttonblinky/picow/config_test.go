package picow

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig(t *testing.T) {
	Convey("A stack configuration", t, func() {
		cfg := Config{SSID: "home", Password: "secret", Hostname: "buttonblinky"}
		So(cfg.validate(), ShouldBeNil)

		Convey("needs a hostname for DHCP", func() {
			cfg.Hostname = ""
			So(cfg.validate(), ShouldNotBeNil)
		})

		Convey("needs a network to join", func() {
			cfg.SSID = ""
			So(cfg.validate(), ShouldNotBeNil)
		})

		Convey("may join an open network", func() {
			cfg.Password = ""
			So(cfg.validate(), ShouldBeNil)
		})

		Convey("mixes RandSeed into the PRNG seed", func() {
			elapsed := 1200 * time.Millisecond
			So(cfg.seed(elapsed), ShouldEqual, elapsed.Nanoseconds())

			cfg.RandSeed = 0x5eed
			So(cfg.seed(elapsed), ShouldNotEqual, elapsed.Nanoseconds())
			So(cfg.seed(elapsed)^cfg.RandSeed, ShouldEqual, elapsed.Nanoseconds())
		})
	})
}
