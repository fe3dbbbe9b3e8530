// Package mqtt mirrors heating decisions and sensor state to an MQTT broker
// so dashboards and home-automation systems can follow along. The mirror is
// a pure observer: it consumes bus events and never feeds anything back into
// decisions.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/heatplan/heatplan/core/events"
	"github.com/heatplan/heatplan/infra/logger"
	"github.com/heatplan/heatplan/internal/eventbus"
)

// Config defines the connection parameters for the status mirror.
type Config struct {
	Enabled     bool        `json:"enabled"`
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	TLSConfig   *tls.Config `json:"-"`
}

// SetDefaults applies the default client id and topic prefix.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "heatplan"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "heatplan"
	}
}

// Validate checks the connection parameters when the mirror is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt: broker is required when enabled")
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", c.QoS)
	}
	return nil
}

// pahoClient is the slice of the paho API the mirror uses; a seam for tests.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Mirror republishes bus events as MQTT messages under a common topic
// prefix. Room commands and staleness are retained so late subscribers see
// the current state immediately.
type Mirror struct {
	cli    pahoClient
	events <-chan eventbus.Event
	cancel func()
	prefix string
	qos    byte
	log    logger.Logger
}

// NewMirror connects to the broker and subscribes to the bus; events arriving
// before Run starts are buffered, not lost. The connection carries a will
// marking {prefix}/status "offline"; every (re)connect publishes "online".
func NewMirror(cfg Config, bus *eventbus.Bus) (*Mirror, error) {
	log := logger.New("mqtt-mirror")
	m := &Mirror{prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}

	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Publish(m.topic("status"), cfg.QoS, true, "online"); token.Wait() && token.Error() != nil {
			log.Errorf("status publish error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	m.cli = cli
	m.events, m.cancel = bus.Subscribe()
	return m, nil
}

// NewClientOptions builds paho client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetWill(cfg.TopicPrefix+"/status", "offline", cfg.QoS, true)
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Run republishes bus events until ctx ends or the bus closes.
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-m.events:
			if !ok {
				return
			}
			m.handle(e)
		}
	}
}

func (m *Mirror) handle(e eventbus.Event) {
	switch ev := e.(type) {
	case events.CommandEvent:
		if !ev.Command.Known() {
			return
		}
		m.publish(m.topic("rooms", ev.Room, "heating"), ev.Command.String(), true)
	case events.TemperatureEvent:
		m.publish(m.topic("sensors", "external-temperature"), strconv.FormatFloat(ev.Celsius, 'f', 1, 64), false)
	case events.SensorStaleEvent:
		m.publish(m.topic("sensors", "external-temperature", "stale"), strconv.FormatBool(ev.Stale), true)
	}
}

func (m *Mirror) publish(topic, payload string, retained bool) {
	if token := m.cli.Publish(topic, m.qos, retained, payload); token.Wait() && token.Error() != nil {
		m.log.Errorf("publish %s: %v", topic, token.Error())
	}
}

func (m *Mirror) topic(parts ...string) string {
	return strings.Join(append([]string{m.prefix}, parts...), "/")
}

// Disconnect drops the bus subscription and gracefully closes the MQTT
// connection.
func (m *Mirror) Disconnect() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.cli != nil && m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
}
