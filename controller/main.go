// The hydroponic enclosure controller: drives the relay bank, samples the
// water-quality and environmental sensors, reconciles relay state with the
// control plane, and accepts text commands on the local command stream.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"gobot.io/x/gobot/v2"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"siboltech/hydroponics/cloud"
	"siboltech/hydroponics/command"
	"siboltech/hydroponics/mqtt"
	"siboltech/hydroponics/relay"
	"siboltech/hydroponics/sensor"
)

func main() {
	configPath := flag.String("config", "config.json", "controller config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	r := raspi.NewAdaptor()
	ads := i2c.NewADS1115Driver(r)

	work := func() {
		if err := mqtt.Connect(mqtt.Config{
			BrokerURL:     cfg.MQTTBrokerURL,
			ClientID:      cfg.MQTTClientID,
			Username:      cfg.MQTTUsername,
			Password:      cfg.MQTTPassword,
			AutoReconnect: true,
			MaxRetries:    3,
			RetryInterval: 2 * time.Second,
		}); err != nil {
			log.Printf("MQTT unavailable, continuing without it: %v", err)
		}

		env := probeBME280(r)

		statusOut := io.MultiWriter(os.Stdout, topicWriter{cfg.MQTTPrefix + "/relays"})
		bank := relay.NewBank(r, statusOut, cfg.RelayPins)
		log.Printf("Relays initialized (%d lines)", bank.Size())

		parser := command.NewParser(bank, os.Stdout)
		reader := sensor.NewReader(env, ads, sensor.Config{
			TDSPin:           cfg.TDSChannel,
			PHPin:            cfg.PHChannel,
			DOPin:            cfg.DOChannel,
			Samples:          cfg.Samples,
			SampleDelay:      time.Duration(cfg.SampleDelayMs) * time.Millisecond,
			VRef:             cfg.ADCVRef,
			MaxCode:          cfg.ADCMaxCode,
			TDSFactor:        cfg.TDSFactor,
			FallbackTemp:     cfg.FallbackTemp,
			FallbackHumidity: cfg.FallbackHumidity,
		})

		api := cloud.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.DeviceID)
		link := newHTTPLink(api.Reachable, 30, 500*time.Millisecond)

		c := newController(controllerParams{
			bank:   bank,
			parser: parser,
			reader: reader,
			api:    api,
			link:   link,
			device: cfg.DeviceID,
			out:    os.Stdout,
			publish: func(topic string, payload []byte) {
				mqtt.Publish(cfg.MQTTPrefix+"/"+topic, payload)
			},
			pollInterval:     time.Duration(cfg.PollIntervalMs) * time.Millisecond,
			recoveryInterval: time.Duration(cfg.RecoveryIntervalMs) * time.Millisecond,
			sampleInterval:   time.Duration(cfg.SampleIntervalMs) * time.Millisecond,
			uploadInterval:   time.Duration(cfg.UploadIntervalMs) * time.Millisecond,
		})

		c.StartIntake(commandStream(cfg.CommandDevice))
		link.Connect()
		c.Run(context.Background())
	}

	robot := gobot.NewRobot("hydroController",
		[]gobot.Connection{r},
		[]gobot.Device{ads},
		work,
	)

	if err := robot.Start(); err != nil {
		log.Fatal("Error starting robot:", err)
	}
}

// probeBME280 tries both candidate bus addresses once at startup. A missing
// sensor is not fatal; the reader falls back to fixed values and the sensor
// is never re-probed.
func probeBME280(r *raspi.Adaptor) sensor.EnvReader {
	for _, addr := range []int{0x76, 0x77} {
		bme := i2c.NewBME280Driver(r, i2c.WithAddress(addr))
		if err := bme.Start(); err != nil {
			log.Printf("BME280 not at %#02x: %v", addr, err)
			continue
		}
		log.Printf("BME280 found at %#02x", addr)
		return bme
	}
	log.Println("BME280: NOT FOUND, using fallback readings")
	return nil
}

func commandStream(device string) io.Reader {
	if device == "" {
		return os.Stdin
	}
	f, err := os.Open(device)
	if err != nil {
		log.Printf("Cannot open command device %s, using stdin: %v", device, err)
		return os.Stdin
	}
	return f
}

// topicWriter mirrors status event lines onto an MQTT topic.
type topicWriter struct {
	topic string
}

func (w topicWriter) Write(p []byte) (int, error) {
	mqtt.Publish(w.topic, p)
	return len(p), nil
}
