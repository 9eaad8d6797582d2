// Package sensor reads the water-quality analog channels and the optional
// environmental sensor, and converts raw ADC codes into calibrated values.
package sensor

import (
	"encoding/json"
	"log"
	"math"
	"time"
)

// EnvReader is the optional temperature/humidity peripheral. The gobot BME280
// driver satisfies it. When the peripheral was not detected at startup the
// reader runs without one and substitutes fixed fallback values.
type EnvReader interface {
	Temperature() (float32, error)
	Humidity() (float32, error)
}

// AnalogReader matches the gobot aio read contract; the ADS1x15 driver
// satisfies it.
type AnalogReader interface {
	AnalogRead(pin string) (int, error)
}

// Config carries the channel assignments and conversion constants.
type Config struct {
	TDSPin string
	PHPin  string
	DOPin  string

	Samples     int           // oversampling count per channel
	SampleDelay time.Duration // pause between samples

	VRef      float64 // ADC reference voltage
	MaxCode   int     // ADC full-scale code
	TDSFactor float64 // TDS calibration scale factor

	FallbackTemp     float32 // used when the env sensor is absent
	FallbackHumidity float32
}

// Snapshot is one sampling cycle's output. It is recomputed every cycle and
// never buffered.
type Snapshot struct {
	TemperatureC float64
	Humidity     float64
	TDSPPM       float64
	PHVoltage    float64
	DOVoltage    float64
}

// Reader samples all channels. env may be nil (peripheral absent).
type Reader struct {
	env EnvReader
	adc AnalogReader
	cfg Config
}

func NewReader(env EnvReader, adc AnalogReader, cfg Config) *Reader {
	return &Reader{env: env, adc: adc, cfg: cfg}
}

// Read runs one sampling cycle: environmental readings (or fallbacks),
// oversampled analog channels, then temperature-compensated TDS conversion.
// Read blocks for Samples*SampleDelay.
func (r *Reader) Read() Snapshot {
	temp := r.cfg.FallbackTemp
	humidity := r.cfg.FallbackHumidity
	if r.env != nil {
		if t, err := r.env.Temperature(); err != nil {
			log.Printf("sensor: temperature read: %v", err)
		} else {
			temp = t
		}
		if h, err := r.env.Humidity(); err != nil {
			log.Printf("sensor: humidity read: %v", err)
		} else {
			humidity = h
		}
	}

	var accTDS, accPH, accDO int
	for i := 0; i < r.cfg.Samples; i++ {
		accTDS += r.sample(r.cfg.TDSPin)
		accPH += r.sample(r.cfg.PHPin)
		accDO += r.sample(r.cfg.DOPin)
		if r.cfg.SampleDelay > 0 {
			time.Sleep(r.cfg.SampleDelay)
		}
	}

	voltage := r.toVoltage(accTDS)
	compensated := Compensate(voltage, float64(temp))

	return Snapshot{
		TemperatureC: float64(temp),
		Humidity:     float64(humidity),
		TDSPPM:       TDSConcentration(compensated, r.cfg.TDSFactor),
		PHVoltage:    r.toVoltage(accPH),
		DOVoltage:    r.toVoltage(accDO),
	}
}

func (r *Reader) sample(pin string) int {
	code, err := r.adc.AnalogRead(pin)
	if err != nil {
		log.Printf("sensor: analog read %s: %v", pin, err)
		return 0
	}
	return code
}

func (r *Reader) toVoltage(acc int) float64 {
	avg := float64(acc) / float64(r.cfg.Samples)
	return avg / float64(r.cfg.MaxCode) * r.cfg.VRef
}

// CompensationFactor is the TDS probe's temperature coefficient relative to
// the 25 degree calibration point.
func CompensationFactor(tempC float64) float64 {
	return 1.0 + 0.02*(tempC-25.0)
}

// Compensate divides the raw voltage by the compensation factor. A factor
// that is not positive would invert or blow up the reading, so it is skipped.
func Compensate(voltage, tempC float64) float64 {
	f := CompensationFactor(tempC)
	if f <= 0 {
		return voltage
	}
	return voltage / f
}

// TDSConcentration converts a compensated probe voltage to ppm using the
// manufacturer's cubic, scaled by the calibration factor.
func TDSConcentration(v, factor float64) float64 {
	return (133.42*v*v*v - 255.86*v*v + 857.39*v) * factor
}

type statusReadings struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
	TDS      float64 `json:"tds"`
}

type statusLine struct {
	Device   string         `json:"device"`
	Readings statusReadings `json:"readings"`
}

// StatusLine renders the snapshot as the local one-line JSON status report.
func (s Snapshot) StatusLine(device string) []byte {
	msg, err := json.Marshal(statusLine{
		Device: device,
		Readings: statusReadings{
			Temp:     round2(s.TemperatureC),
			Humidity: round2(s.Humidity),
			TDS:      round2(s.TDSPPM),
		},
	})
	if err != nil {
		return nil
	}
	return append(msg, '\n')
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
