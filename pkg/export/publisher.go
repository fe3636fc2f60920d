// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package export transmits accepted events on the outbound pub/sub
// channel, for downstream consumers such as rules engines. Delivery is
// best-effort, at-most-once: a failed send is logged and dropped, and
// never affects the ingestion that triggered it.
package export

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/edrlab/core-data/pkg/stor"
)

// settle time after the first connection, leaving subscribers a chance
// to be attached before the first message is sent
const connectSettleDelay = time.Second

// EventPublisher sends one message per event on the export channel.
type EventPublisher interface {
	SendEvent(event *stor.Event) error
	Close()
}

// MQTTPublisher is the MQTT implementation of EventPublisher.
// The underlying client is created lazily on the first send and is not
// safe for concurrent use, so the whole connect-and-publish sequence
// runs under the mutex: only one send is in flight at a time.
type MQTTPublisher struct {
	mu        sync.Mutex
	client    mqtt.Client
	brokerURL string
	topic     string
	clientID  string
}

// NewMQTTPublisher prepares a publisher for the given broker address.
// No connection is attempted before the first send.
func NewMQTTPublisher(brokerURL, topic, clientID string) *MQTTPublisher {
	return &MQTTPublisher{
		brokerURL: brokerURL,
		topic:     topic,
		clientID:  clientID,
	}
}

// SendEvent serializes the event, with its readings, as a single json
// message and publishes it. The connection is established on first use;
// if it cannot be, the message is dropped and the publisher stays
// unconnected for the next attempt.
func (p *MQTTPublisher) SendEvent(event *stor.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		if err := p.connect(); err != nil {
			log.Errorf("Event %s not sent to export: %v", event.ID, err)
			return err
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		log.Errorf("Event %s not sent to export: %v", event.ID, token.Error())
		return token.Error()
	}
	log.Debugf("Sent event to export with device id: %s", event.Device)
	return nil
}

// connect must be called with the mutex held.
func (p *MQTTPublisher) connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.brokerURL)
	opts.SetClientID(p.clientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New("timeout connecting to the export broker")
	}
	if token.Error() != nil {
		return token.Error()
	}

	// allow subscribers to connect
	time.Sleep(connectSettleDelay)

	p.client = client
	return nil
}

// Close disconnects from the broker, if a connection was established.
func (p *MQTTPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		p.client.Disconnect(250)
		p.client = nil
	}
}
