// Package audio captures 16-bit PCM from the system microphone.
package audio

import (
	"encoding/binary"
	"errors"
	"strings"
	"sync/atomic"
)

// ErrNoDevice is returned when no capture device can be opened.
var ErrNoDevice = errors.New("no capture device")

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives little-endian S16 samples from the driver thread.
// data is only valid for the duration of the call.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	// Gain multiplies every sample, clipping at the int16 range. Values
	// below 2 leave samples untouched.
	Gain int
}

// ApplyGain scales little-endian S16 samples in place.
func ApplyGain(data []byte, gain int) {
	if gain < 2 {
		return
	}
	for i := 0; i+1 < len(data); i += 2 {
		s := int32(int16(binary.LittleEndian.Uint16(data[i:]))) * int32(gain)
		s = max(min(s, 32767), -32768)
		binary.LittleEndian.PutUint16(data[i:], uint16(int16(s)))
	}
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

const defaultDeviceName = "system default"

func deviceLabel(d *DeviceInfo) string {
	if d == nil {
		return defaultDeviceName
	}
	return d.Name
}

// callbackSlot holds the current DataCallback for the driver thread.
type callbackSlot struct {
	p atomic.Pointer[DataCallback]
}

func (s *callbackSlot) set(cb DataCallback) {
	if cb == nil {
		s.p.Store(nil)
		return
	}
	s.p.Store(&cb)
}

// deliver amplifies data and passes it on. It reports false when nobody is
// listening, in which case data is left untouched.
func (s *callbackSlot) deliver(data []byte, frames uint32, gain int) bool {
	cb := s.p.Load()
	if cb == nil {
		return false
	}
	ApplyGain(data, gain)
	(*cb)(data, frames)
	return true
}

// defaultFirst moves the device at index def to the front, keeping the order
// of the rest.
func defaultFirst(devices []DeviceInfo, def int) []DeviceInfo {
	if def <= 0 || def >= len(devices) {
		return devices
	}
	d := devices[def]
	copy(devices[1:def+1], devices[:def])
	devices[0] = d
	return devices
}
