//go:build tinygo

// Package picow sets up WiFi connectivity on Raspberry Pi Pico W boards
// using the CYW43439 wireless chip, so the blinker can publish its delay
// changes over the network.
//
// This package handles:
//   - Initializing the CYW43439 WiFi device
//   - Joining WPA2-secured or open WiFi networks
//   - DHCP configuration with fallback to static IP
//   - Pumping network packets between the chip and the lneto stack
//   - Driving the onboard LED, which hangs off the wireless chip
//
// Adapted from the examples in the soypat/cyw43439 repository:
// https://github.com/soypat/cyw43439/tree/main/examples/common
package picow

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"runtime"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/x/xnet"
)

const mtu = cyw43439.MTU

// Stack wraps the lneto StackAsync and CYW43439 device for network operations.
type Stack struct {
	s       xnet.StackAsync
	dev     *cyw43439.Device
	log     *slog.Logger
	sendbuf []byte
}

// Connect initializes the CYW43439, joins cfg.SSID and prepares the stack. It blocks while joining, so callers that
// must keep blinking run it from a goroutine.
func Connect(cfg Config) (*Stack, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127), // Make temporary logger that does no logging.
		}))
	}

	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)

	logger.Info("initializing pico W device...")
	err := dev.Init(cyw43439.DefaultWifiConfig())
	if err != nil {
		return nil, errors.New("wifi init failed:" + err.Error())
	}
	logger.Info("cyw43439:Init", slog.Duration("duration", time.Since(start)))

	if cfg.Password == "" {
		logger.Info("joining open network:", slog.String("ssid", cfg.SSID))
	} else {
		logger.Info("joining WPA secure network", slog.String("ssid", cfg.SSID), slog.Int("passlen", len(cfg.Password)))
	}

	for attempt := 1; ; attempt++ {
		err = dev.JoinWPA2(cfg.SSID, cfg.Password)
		if err == nil {
			break
		}
		logger.Error("wifi join failed", slog.String("err", err.Error()), slog.Int("attempt", attempt))
		if cfg.JoinRetries > 0 && attempt >= cfg.JoinRetries {
			return nil, errors.New("wifi join:" + err.Error())
		}
		time.Sleep(5 * time.Second)
	}

	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, errors.New("get hardware address:" + err.Error())
	}
	logger.Info("wifi join success!", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	stack := &Stack{
		dev:     dev,
		log:     logger,
		sendbuf: make([]byte, mtu),
	}

	maxTCP := cfg.MaxTCPPorts
	if maxTCP < 1 {
		maxTCP = 1
	}

	err = stack.s.Reset(xnet.StackConfig{
		Hostname:        cfg.Hostname,
		MaxTCPConns:     maxTCP,
		RandSeed:        cfg.seed(time.Since(start)),
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, errors.New("stack reset:" + err.Error())
	}

	dev.RecvEthHandle(func(pkt []byte) error {
		return stack.s.Demux(pkt, 0)
	})

	return stack, nil
}

// SetupWithDHCP requests an address over DHCP. If DHCP fails and requested
// is a valid address, it is assigned statically instead.
func (s *Stack) SetupWithDHCP(requested netip.Addr) (*xnet.DHCPResults, error) {
	if !requested.IsValid() {
		requested = netip.AddrFrom4([4]byte{0, 0, 0, 0})
	} else if !requested.Is4() {
		return nil, errors.New("only dhcpv4 supported")
	}

	const pollTime = 50 * time.Millisecond
	rstack := s.s.StackRetrying(pollTime)

	s.log.Info("DHCP:starting")

	dhcpResults, err := rstack.DoDHCPv4(requested.As4(), 3*time.Second, 3)
	if err != nil {
		if !requested.IsUnspecified() {
			s.log.Info("DHCP did not complete, assigning static IP", slog.String("ip", requested.String()))
			s.s.SetIPAddr(requested)
			return &xnet.DHCPResults{
				AssignedAddr: requested,
			}, nil
		}
		return nil, errors.New("dhcp failed:" + err.Error())
	}

	err = s.s.AssimilateDHCPResults(dhcpResults)
	if err != nil {
		return nil, errors.New("assimilate dhcp:" + err.Error())
	}

	gatewayHW, err := rstack.DoResolveHardwareAddress6(dhcpResults.Router, 500*time.Millisecond, 4)
	if err != nil {
		return nil, errors.New("resolve gateway:" + err.Error())
	}
	s.s.SetGateway6(gatewayHW)

	s.log.Info("DHCP complete",
		slog.String("ourIP", dhcpResults.AssignedAddr.String()),
		slog.String("router", dhcpResults.Router.String()),
		slog.Uint64("lease_sec", uint64(dhcpResults.TLease)),
	)

	return dhcpResults, nil
}

// Serve pumps packets between the chip and the stack forever.
// Run it in its own goroutine as soon as Connect returns.
func (s *Stack) Serve() {
	for {
		send, recv, _ := s.recvAndSend()
		if send == 0 && recv == 0 {
			// Nothing moved, give the blink loop and the MQTT client a turn.
			time.Sleep(5 * time.Millisecond)
			continue
		}
		runtime.Gosched()
	}
}

// recvAndSend polls one incoming packet and sends at most one outgoing
// packet. It returns the number of bytes sent and packets received.
func (s *Stack) recvAndSend() (send, recv int, err error) {
	gotPacket, errRecv := s.dev.PollOne()
	if gotPacket {
		recv = 1
	}
	if errRecv != nil {
		s.log.Error("RecvAndSend:PollOne", slog.String("err", errRecv.Error()))
	}

	send, err = s.s.Encapsulate(s.sendbuf, -1, 0)
	if err != nil {
		s.log.Error("RecvAndSend:Encapsulate", slog.Int("plen", send), slog.String("err", err.Error()))
	} else {
		err = errRecv
	}

	if send == 0 {
		return send, recv, err
	}

	err = s.dev.SendEth(s.sendbuf[:send])
	if err != nil {
		s.log.Error("RecvAndSend:SendEth", slog.Int("plen", send), slog.String("err", err.Error()))
	}

	return send, recv, err
}

// LnetoStack returns the underlying lneto StackAsync for TCP dials and
// DNS lookups.
func (s *Stack) LnetoStack() *xnet.StackAsync {
	return &s.s
}

// Addr returns the address the stack was assigned.
func (s *Stack) Addr() netip.Addr {
	return s.s.Addr()
}

// SetOnboardLED drives the Pico W's onboard LED, which is wired to GPIO 0
// of the wireless chip rather than to the RP2040.
func (s *Stack) SetOnboardLED(on bool) {
	if err := s.dev.GPIOSet(0, on); err != nil {
		s.log.Error("onboard LED", slog.String("err", err.Error()))
	}
}
