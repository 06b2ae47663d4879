//go:build tinygo

package mqtt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"runtime"
	"time"

	"github.com/harveysanders/buttonblinky/buttonblinky/lcd"
	"github.com/harveysanders/buttonblinky/buttonblinky/picow"
	"github.com/soypat/lneto/tcp"
	mqtt "github.com/soypat/natiu-mqtt"
)

// session is a single broker connection.
type session struct {
	log   *slog.Logger
	conn  *tcp.Conn
	mc    *mqtt.Client
	ka    keepAlive
	flags mqtt.PacketFlags
	vars  mqtt.VariablesPublish
	// wait bounds each exchange with the broker.
	wait time.Duration
	// packetID yields a fresh publish packet identifier.
	packetID func() uint16
}

// ConnectAndPublish connects to the MQTT broker at addr and publishes every
// report it receives. It reconnects forever and only returns on
// configuration errors.
func (c *Client) ConnectAndPublish(
	stack *picow.Stack,
	addr string,
	reports <-chan DelayReport,
	lcdMessages chan<- lcd.Message,
) error {
	const pollTime = 5 * time.Millisecond

	host, portStr, err := splitHostPort(addr)
	if err != nil {
		return errors.New("mqtt addr " + addr + ":" + err.Error())
	}
	port := parsePort(portStr)
	if port == 0 {
		return errors.New("mqtt addr " + addr + ": bad port")
	}

	ln := stack.LnetoStack()
	rstack := ln.StackRetrying(pollTime)

	brokerIP, err := netip.ParseAddr(host)
	if err != nil {
		c.Logger.Info("mqtt:resolving", slog.String("host", host))
		ips, err := rstack.DoLookupIP(host, c.Timeout, 3)
		if err != nil {
			return errors.New("mqtt lookup " + host + ":" + err.Error())
		}
		if len(ips) == 0 {
			return errors.New("mqtt lookup " + host + ": no addresses")
		}
		brokerIP = ips[0]
	}
	broker := netip.AddrPortFrom(brokerIP, port)
	c.Logger.Info("mqtt:broker", slog.String("addr", broker.String()))

	var conn tcp.Conn
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, c.TCPBufSize),
		TxBuf:             make([]byte, c.TCPBufSize),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return errors.New("tcp configure:" + err.Error())
	}

	connVars := c.connectVars()

	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return errors.New("mqtt publish flags:" + err.Error())
	}

	s := &session{
		log:  c.Logger,
		conn: &conn,
		mc: mqtt.NewClient(mqtt.ClientConfig{
			Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 512)},
			OnPub: func(_ mqtt.Header, v mqtt.VariablesPublish, _ io.Reader) error {
				c.Logger.Debug("mqtt:unexpected-publish", slog.String("topic", string(v.TopicName)))
				return nil
			},
		}),
		ka:       newKeepAlive(c.HeartbeatInterval, connVars.KeepAlive),
		flags:    flags,
		vars:     mqtt.VariablesPublish{TopicName: []byte(Topic)},
		wait:     c.Timeout,
		packetID: func() uint16 { return uint16(ln.Prand32()) },
	}

	heartbeat := time.NewTicker(s.ka.interval)
	defer heartbeat.Stop()

	for {
		localPort := uint16(ln.Prand32()>>17) + 1024
		lcd.Send(lcdMessages, "Connecting...", "TCP handshake")
		err = rstack.DoDialTCP(&conn, localPort, broker, 10*time.Second, 3)
		if err != nil {
			s.drop("dial: " + err.Error())
			time.Sleep(2 * time.Second)
			continue
		}

		lcd.Send(lcdMessages, "MQTT Connect", "Authenticating")
		if err := s.handshake(&connVars); err != nil {
			lcd.Send(lcdMessages, "Connect Failed", err.Error())
			s.drop(err.Error())
			continue
		}

		lcd.Send(lcdMessages, "MQTT Connected", "Topic: "+Topic)
		reason := s.serve(reports, heartbeat.C)

		lcd.Send(lcdMessages, "Disconnected", "Reconnecting...")
		s.drop(reason)
		runtime.Gosched()
	}
}

// handshake sends CONNECT and waits for the CONNACK.
func (s *session) handshake(vars *mqtt.VariablesConnect) error {
	s.conn.SetDeadline(time.Now().Add(s.wait))
	if err := s.mc.StartConnect(s.conn, vars); err != nil {
		return errors.New("connect:" + err.Error())
	}
	for deadline := time.Now().Add(s.wait); !s.mc.IsConnected(); {
		if time.Now().After(deadline) {
			return errors.New("connect: no CONNACK")
		}
		time.Sleep(100 * time.Millisecond)
		if err := s.mc.HandleNext(); err != nil {
			// Nothing to read yet until the CONNACK arrives.
			s.log.Debug("mqtt:awaiting-connack", slog.String("err", err.Error()))
		}
	}
	s.log.Info("mqtt:connected", slog.String("topic", Topic))
	return nil
}

// serve publishes reports until the broker connection is lost and returns
// the reason.
func (s *session) serve(reports <-chan DelayReport, heartbeat <-chan time.Time) string {
	for s.mc.IsConnected() {
		select {
		case report := <-reports:
			if err := s.publish(report); err != nil {
				s.log.Error("mqtt:publish", slog.Any("reason", err))
			}

		case now := <-heartbeat:
			switch s.ka.next(now, s.mc.LastTx(), s.mc.AwaitingPingresp()) {
			case sendPing:
				if err := s.ping(); err != nil {
					s.log.Error("mqtt:ping", slog.Any("reason", err))
				}
			case reconnect:
				return "no PINGRESP from broker"
			}

		default:
			// TinyGo runs on a single core; let the blink loop and the
			// packet pump run.
			runtime.Gosched()
		}
	}
	if err := s.mc.Err(); err != nil {
		return err.Error()
	}
	return "disconnected"
}

func (s *session) publish(r DelayReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.vars.PacketIdentifier = s.packetID()
	s.conn.SetDeadline(time.Now().Add(s.wait))
	if err := s.mc.PublishPayload(s.flags, s.vars, payload); err != nil {
		return err
	}
	s.log.Info("mqtt:published",
		slog.Uint64("delay", uint64(r.DelayMS)),
		slog.Uint64("presses", uint64(r.Presses)),
	)
	return nil
}

// ping sends a PINGREQ and reads the broker's answer.
func (s *session) ping() error {
	s.conn.SetDeadline(time.Now().Add(s.wait))
	if err := s.mc.StartPing(); err != nil {
		return err
	}
	if err := s.mc.HandleNext(); err != nil {
		return err
	}
	s.log.Debug("mqtt:ping", slog.Bool("answered", !s.mc.AwaitingPingresp()))
	return nil
}

// drop tears down the TCP connection so the next dial starts clean.
func (s *session) drop(reason string) {
	s.log.Error("mqtt:closing", slog.String("reason", reason))
	if s.mc.IsConnected() {
		s.mc.Disconnect(errors.New(reason))
	}
	s.conn.Close()
	for i := 0; i < 50 && !s.conn.State().IsClosed(); i++ {
		time.Sleep(100 * time.Millisecond)
	}
	s.conn.Abort()
}
