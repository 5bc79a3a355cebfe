package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/evtariff/core/events"
	"github.com/kilianp07/evtariff/core/monitoring"
	"github.com/kilianp07/evtariff/infra/logger"
	"github.com/kilianp07/evtariff/internal/eventbus"
)

// OriginMQTT marks invalidations received from the broker.
const OriginMQTT = "mqtt"

// Notification is the payload exchanged on the tariff updates topic.
type Notification struct {
	StationID string `json:"station_id,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// ScopeAll asks every subscriber to drop its whole cache.
const ScopeAll = "all"

// ErrEmptyNotification is returned for payloads naming neither a station
// nor the "all" scope.
var ErrEmptyNotification = errors.New("notification names no station")

// ParseNotification decodes a tariff update payload into an invalidation
// request.
func ParseNotification(payload []byte) (events.InvalidationRequest, error) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return events.InvalidationRequest{}, fmt.Errorf("decode notification: %w", err)
	}
	if strings.EqualFold(n.Scope, ScopeAll) {
		return events.InvalidationRequest{All: true, Origin: OriginMQTT}, nil
	}
	if n.StationID == "" {
		return events.InvalidationRequest{}, ErrEmptyNotification
	}
	return events.InvalidationRequest{StationID: n.StationID, Origin: OriginMQTT}, nil
}

// Invalidator subscribes to tariff change notifications and forwards them
// as invalidation requests. It can also announce local changes to other
// instances sharing the broker.
type Invalidator struct {
	cli   pahoClient
	cfg   Config
	bus   *eventbus.TypedBus[events.InvalidationRequest]
	log   logger.Logger
	sleep func(time.Duration)
	// missed is set when a request could not be handed over; the next
	// notification is escalated to a full invalidation.
	missed atomic.Bool
}

// NewInvalidator connects to the broker and subscribes to cfg.Topic on
// every (re)connection.
func NewInvalidator(cfg Config, bus *eventbus.TypedBus[events.InvalidationRequest]) (*Invalidator, error) {
	if bus == nil {
		return nil, fmt.Errorf("mqtt: nil invalidation bus")
	}
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	inv := &Invalidator{cfg: cfg, bus: bus, log: logger.New("mqtt-invalidator"), sleep: time.Sleep}

	opts.OnConnect = func(c paho.Client) {
		inv.log.Infof("MQTT connected, subscribing to %s", cfg.Topic)
		if token := c.Subscribe(cfg.Topic, cfg.QoS, inv.onMessage); token.Wait() && token.Error() != nil {
			inv.log.Errorf("subscribe error: %v", token.Error())
			monitoring.Report("mqtt", token.Error(), map[string]string{"topic": cfg.Topic})
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		inv.log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		inv.log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	inv.cli = c
	return inv, nil
}

func (i *Invalidator) onMessage(_ paho.Client, msg paho.Message) {
	req, err := ParseNotification(msg.Payload())
	if err != nil {
		i.log.Warnw("ignoring tariff notification", map[string]any{
			"topic": msg.Topic(),
			"error": err.Error(),
		})
		return
	}
	if i.missed.Load() && !req.All {
		req = events.InvalidationRequest{All: true, Origin: req.Origin}
	}
	i.log.Debugw("tariff notification", map[string]any{"station_id": req.StationID, "all": req.All})
	ctx, cancel := context.WithTimeout(context.Background(), i.cfg.publishTimeout())
	defer cancel()
	if err := i.bus.PublishContext(ctx, req); err != nil {
		i.missed.Store(true)
		i.log.Warnw("invalidation request dropped, escalating next notification to a full clear", map[string]any{
			"station_id": req.StationID,
			"all":        req.All,
			"error":      err.Error(),
		})
		monitoring.Report("mqtt", fmt.Errorf("invalidation request dropped: %w", err), map[string]string{"station_id": req.StationID})
		return
	}
	if req.All {
		i.missed.Store(false)
	}
}

// Announce publishes a notification for stationID, or for every station
// when stationID is empty. Failed publishes are retried with exponential
// backoff.
func (i *Invalidator) Announce(stationID string) error {
	n := Notification{StationID: stationID}
	if stationID == "" {
		n = Notification{Scope: ScopeAll}
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= i.cfg.MaxRetries; attempt++ {
		token := i.cli.Publish(i.cfg.Topic, i.cfg.QoS, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		i.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < i.cfg.MaxRetries {
			i.sleep(i.cfg.backoff() * time.Duration(1<<attempt))
		}
	}
	monitoring.Report("mqtt", publishErr, map[string]string{"station_id": stationID, "topic": i.cfg.Topic})
	return publishErr
}

// Close unsubscribes and disconnects from the broker.
func (i *Invalidator) Close() {
	if i.cli == nil || !i.cli.IsConnected() {
		return
	}
	i.cli.Unsubscribe(i.cfg.Topic).Wait()
	i.cli.Disconnect(250)
}
