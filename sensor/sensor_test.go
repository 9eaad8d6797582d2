package sensor

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnv struct {
	temp float32
	humi float32
	err  error
}

func (f *fakeEnv) Temperature() (float32, error) { return f.temp, f.err }
func (f *fakeEnv) Humidity() (float32, error)    { return f.humi, f.err }

type fakeADC struct {
	codes map[string]int
	reads map[string]int
}

func (f *fakeADC) AnalogRead(pin string) (int, error) {
	if f.reads == nil {
		f.reads = map[string]int{}
	}
	f.reads[pin]++
	code, ok := f.codes[pin]
	if !ok {
		return 0, errors.New("no such channel")
	}
	return code, nil
}

func testConfig() Config {
	return Config{
		TDSPin:           "0",
		PHPin:            "1",
		DOPin:            "2",
		Samples:          20,
		VRef:             3.3,
		MaxCode:          4095,
		TDSFactor:        0.5,
		FallbackTemp:     25.0,
		FallbackHumidity: 50.0,
	}
}

func TestCompensationIdentityAt25(t *testing.T) {
	assert.InDelta(t, 1.0, CompensationFactor(25.0), 1e-12)
	assert.InDelta(t, 1.234, Compensate(1.234, 25.0), 1e-12)
}

func TestCompensationFactorGuard(t *testing.T) {
	// At -25C and below the factor crosses zero; raw voltage is used.
	assert.InDelta(t, 1.5, Compensate(1.5, -25.0), 1e-12)
	assert.InDelta(t, 1.5, Compensate(1.5, -40.0), 1e-12)
}

func TestCubicAtOneVolt(t *testing.T) {
	// (133.42 - 255.86 + 857.39) * 0.5
	assert.InDelta(t, 367.475, TDSConcentration(1.0, 0.5), 1e-9)
}

func TestReadUsesFallbacksWithoutEnvSensor(t *testing.T) {
	adc := &fakeADC{codes: map[string]int{"0": 1000, "1": 2000, "2": 3000}}
	r := NewReader(nil, adc, testConfig())

	snap := r.Read()
	assert.Equal(t, 25.0, snap.TemperatureC)
	assert.Equal(t, 50.0, snap.Humidity)
}

func TestReadOversamplesEachChannel(t *testing.T) {
	adc := &fakeADC{codes: map[string]int{"0": 1000, "1": 2000, "2": 3000}}
	r := NewReader(nil, adc, testConfig())

	snap := r.Read()
	assert.Equal(t, 20, adc.reads["0"])
	assert.Equal(t, 20, adc.reads["1"])
	assert.Equal(t, 20, adc.reads["2"])

	// Constant codes: averaging changes nothing, conversion is code/max*vref.
	assert.InDelta(t, 2000.0/4095.0*3.3, snap.PHVoltage, 1e-9)
	assert.InDelta(t, 3000.0/4095.0*3.3, snap.DOVoltage, 1e-9)

	// At 25C compensation is identity, so TDS is the cubic of the raw voltage.
	v := 1000.0 / 4095.0 * 3.3
	assert.InDelta(t, TDSConcentration(v, 0.5), snap.TDSPPM, 1e-9)
}

func TestReadAppliesCompensation(t *testing.T) {
	adc := &fakeADC{codes: map[string]int{"0": 1241, "1": 0, "2": 0}}
	env := &fakeEnv{temp: 30.0, humi: 60.0}
	r := NewReader(env, adc, testConfig())

	snap := r.Read()
	assert.InDelta(t, 30.0, snap.TemperatureC, 1e-6)
	assert.InDelta(t, 60.0, snap.Humidity, 1e-6)

	v := 1241.0 / 4095.0 * 3.3
	want := TDSConcentration(v/CompensationFactor(30.0), 0.5)
	assert.InDelta(t, want, snap.TDSPPM, 1e-6)
}

func TestEnvReadErrorFallsBackForTheCycle(t *testing.T) {
	adc := &fakeADC{codes: map[string]int{"0": 0, "1": 0, "2": 0}}
	env := &fakeEnv{err: errors.New("i2c timeout")}
	r := NewReader(env, adc, testConfig())

	snap := r.Read()
	assert.Equal(t, 25.0, snap.TemperatureC)
	assert.Equal(t, 50.0, snap.Humidity)
}

func TestStatusLine(t *testing.T) {
	snap := Snapshot{TemperatureC: 25.0, Humidity: 50.0, TDSPPM: 367.475}
	line := string(snap.StatusLine("esp32-wroom32"))
	require.True(t, strings.HasSuffix(line, "\n"))
	assert.Equal(t, `{"device":"esp32-wroom32","readings":{"temp":25,"humidity":50,"tds":367.48}}`, strings.TrimSpace(line))
}
