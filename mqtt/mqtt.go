// Package mqtt is an optional best-effort publisher for relay events and
// sensor snapshots. The controller runs fine without a broker; publishing
// never blocks the control loop on failure.
package mqtt

import (
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var client mqtt.Client

// Config holds the connection settings for the MQTT broker.
type Config struct {
	BrokerURL     string
	ClientID      string
	Username      string
	Password      string
	AutoReconnect bool
	MaxRetries    int
	RetryInterval time.Duration
}

// Connect dials the broker with a bounded retry loop. A controller must keep
// looping even with no broker, so exhausting the retries is not fatal: the
// package stays disabled and Publish becomes a no-op.
func Connect(config Config) error {
	if config.BrokerURL == "" {
		return nil
	}
	opts := mqtt.NewClientOptions().AddBroker(config.BrokerURL)
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(config.AutoReconnect)

	for retries := 0; ; retries++ {
		c := mqtt.NewClient(opts)
		token := c.Connect()
		if token.WaitTimeout(config.RetryInterval) && token.Error() == nil {
			log.Println("Connected to MQTT broker:", config.BrokerURL)
			client = c
			return nil
		}
		log.Printf("Failed to connect to MQTT broker (attempt %d/%d): %v. Retrying in %s...",
			retries+1, config.MaxRetries, token.Error(), config.RetryInterval)
		if retries+1 >= config.MaxRetries {
			return token.Error()
		}
		time.Sleep(config.RetryInterval)
	}
}

// Publish sends a message to a topic. Fire-and-forget: the wait for the ack
// happens off the caller's goroutine and failures are only logged.
func Publish(topic string, payload []byte) {
	if client == nil || !client.IsConnected() {
		return
	}
	token := client.Publish(topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("Error publishing to topic %s: %v", topic, token.Error())
		}
	}()
}

// Close disconnects the MQTT client.
func Close() {
	if client != nil && client.IsConnected() {
		log.Println("Disconnecting from MQTT broker.")
		client.Disconnect(250) // Wait up to 250 milliseconds for inflight messages to be delivered
	}
}
