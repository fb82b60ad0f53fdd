//go:build linux

package audio

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("voiceclip"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

// Devices lists microphones with the server default first. Monitor sources
// (loopbacks of outputs) are skipped.
func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	defID := ""
	if def, err := p.client.DefaultSource(); err == nil && def != nil {
		defID = def.ID()
	}
	var devices []DeviceInfo
	def := -1
	for _, s := range sources {
		if strings.HasSuffix(s.ID(), ".monitor") {
			continue
		}
		if s.ID() == defID {
			def = len(devices)
		}
		devices = append(devices, DeviceInfo{ID: s.ID(), Name: s.Name()})
	}
	return defaultFirst(devices, def), nil
}

func (p *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	var src *pulse.Source
	if device != nil {
		s, err := p.client.SourceByID(device.ID)
		if err != nil || s == nil {
			return nil, fmt.Errorf("%w: source %q not available", ErrNoDevice, device.Name)
		}
		src = s
	}
	return &pulseCapture{client: p.client, device: device, source: src, config: config}, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulseCapture struct {
	client *pulse.Client
	device *DeviceInfo
	source *pulse.Source
	config CaptureConfig
	cb     callbackSlot

	// scratch is only touched from the pulse read goroutine.
	scratch []byte

	mu     sync.Mutex
	stream *pulse.RecordStream
}

func (c *pulseCapture) write(buf []int16) (int, error) {
	if n := len(buf) * 2; cap(c.scratch) < n {
		c.scratch = make([]byte, n)
	}
	data := c.scratch[:len(buf)*2]
	for i, s := range buf {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	c.cb.deliver(data, uint32(len(buf)), c.config.Gain)
	return len(buf), nil
}

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return nil
	}

	opts := []pulse.RecordOption{
		pulse.RecordMono,
		pulse.RecordSampleRate(int(c.config.SampleRate)),
		pulse.RecordLatency(0.05),
	}
	if c.source != nil {
		opts = append(opts, pulse.RecordSource(c.source))
	}

	stream, err := c.client.NewRecord(pulse.Int16Writer(c.write), opts...)
	if err != nil {
		return fmt.Errorf("%w: pulse record: %v", ErrNoDevice, err)
	}
	stream.Start()
	c.stream = stream
	return nil
}

func (c *pulseCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return
	}
	c.stream.Stop()
	c.stream.Close()
	c.stream = nil
}

func (c *pulseCapture) Close() {
	c.Stop()
}

func (c *pulseCapture) SetCallback(cb DataCallback) {
	c.cb.set(cb)
}

func (c *pulseCapture) ClearCallback() {
	c.cb.set(nil)
}

func (c *pulseCapture) DeviceName() string {
	return deviceLabel(c.device)
}
