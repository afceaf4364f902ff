// Package capture reads frames from a camera device and decides which of
// them are worth sending to the hand tracker.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default device settings. Sign holds are measured in frames, so the capture
// rate stays well above the half-second hold window.
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device delivered no image data.
	ErrEmptyFrame = errors.New("captured frame is empty")
	// ErrEndOfFrames is returned by finite sources once they run out.
	ErrEndOfFrames = errors.New("no more frames")
)

// Camera is a source of BGR frames. The caller closes every returned Mat.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	FPS() int
	IsOpen() bool
}

// DeviceConfig selects and sizes a capture device.
type DeviceConfig struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
}

// DefaultDeviceConfig returns the default settings for the given device.
func DefaultDeviceConfig(deviceID int) DeviceConfig {
	return DeviceConfig{
		DeviceID: deviceID,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
	}
}

// Device captures frames from a local camera through OpenCV.
type Device struct {
	config  DeviceConfig
	mu      sync.Mutex
	capture *gocv.VideoCapture
}

// NewDevice returns an unopened device. Non-positive sizes and rates fall
// back to the defaults.
func NewDevice(config DeviceConfig) *Device {
	if config.Width <= 0 {
		config.Width = DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	return &Device{config: config}
}

// Open starts capturing. Opening an open device is a no-op.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(d.config.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", d.config.DeviceID, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(d.config.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(d.config.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(d.config.FPS))

	d.capture = vc
	return nil
}

// Close releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	return err
}

// ReadFrame grabs the next frame.
func (d *Device) ReadFrame() (*gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := d.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("camera %d: %w", d.config.DeviceID, ErrEmptyFrame)
	}
	return &mat, nil
}

// FPS returns the requested capture rate.
func (d *Device) FPS() int {
	return d.config.FPS
}

// IsOpen reports whether the device is capturing.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capture != nil
}
