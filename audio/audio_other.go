//go:build !linux

package audio

import (
	"encoding/hex"
	"fmt"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: %w", err)
	}
	return &malgoContext{ctx: ctx}, nil
}

// Devices lists capture devices with the backend default first. IDs are the
// hex form of the backend's opaque device id.
func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(infos))
	def := -1
	for _, d := range infos {
		if d.IsDefault != 0 && def < 0 {
			def = len(devices)
		}
		devices = append(devices, DeviceInfo{
			ID:   hex.EncodeToString(d.ID.Pointer()[:]),
			Name: d.Name(),
		})
	}
	return defaultFirst(devices, def), nil
}

func deviceID(d *DeviceInfo) (*malgo.DeviceID, error) {
	raw, err := hex.DecodeString(d.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad id for %q: %v", ErrNoDevice, d.Name, err)
	}
	var id malgo.DeviceID
	copy(id[:], raw)
	return &id, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = config.Channels
	cfg.SampleRate = config.SampleRate
	if device != nil {
		id, err := deviceID(device)
		if err != nil {
			return nil, err
		}
		cfg.Capture.DeviceID = id.Pointer()
	}

	c := &malgoCapture{info: device}
	dev, err := malgo.InitDevice(m.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, data []byte, frames uint32) {
			c.cb.deliver(data, frames, config.Gain)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	c.device = dev
	return c, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	device *malgo.Device
	info   *DeviceInfo
	cb     callbackSlot
}

func (c *malgoCapture) Start() error {
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	return nil
}

func (c *malgoCapture) Stop() {
	c.device.Stop()
}

func (c *malgoCapture) Close() {
	c.device.Uninit()
}

func (c *malgoCapture) SetCallback(cb DataCallback) {
	c.cb.set(cb)
}

func (c *malgoCapture) ClearCallback() {
	c.cb.set(nil)
}

func (c *malgoCapture) DeviceName() string {
	return deviceLabel(c.info)
}
