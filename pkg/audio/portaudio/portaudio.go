// Package portaudio plays PCM audio on the host's default output device
// through the PortAudio C library.
//
// For go build: requires portaudio installed via pkg-config (brew install
// portaudio, apt install portaudio19-dev).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

static PaError pa_open_output(void **stream,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer) {
    return Pa_OpenStream((PaStream**)stream, NULL, outputParams, sampleRate,
                         framesPerBuffer, paClipOff, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

var (
	initOnce sync.Once
	initErr  error
)

func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library. It is safe to call multiple
// times; only the first call has an effect.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate releases the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// Device describes an output-capable audio device.
type Device struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	MaxOutputChannels int     `json:"max_output_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate"`
	LowOutputLatency  float64 `json:"low_output_latency"`
	IsDefault         bool    `json:"is_default,omitempty"`
}

// OutputDevices lists devices that have at least one output channel.
func OutputDevices() ([]Device, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}
	def := int(C.Pa_GetDefaultOutputDevice())

	var devices []Device
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil || info.maxOutputChannels <= 0 {
			continue
		}
		devices = append(devices, Device{
			Index:             i,
			Name:              C.GoString(info.name),
			MaxOutputChannels: int(info.maxOutputChannels),
			DefaultSampleRate: float64(info.defaultSampleRate),
			LowOutputLatency:  float64(info.defaultLowOutputLatency),
			IsDefault:         i == def,
		})
	}
	return devices, nil
}

// DefaultOutputDevice returns the host's default output device.
func DefaultOutputDevice() (*Device, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	idx := C.Pa_GetDefaultOutputDevice()
	if idx == C.paNoDevice {
		return nil, errors.New("portaudio: no default output device")
	}
	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return nil, errors.New("portaudio: failed to get device info")
	}
	return &Device{
		Index:             int(idx),
		Name:              C.GoString(info.name),
		MaxOutputChannels: int(info.maxOutputChannels),
		DefaultSampleRate: float64(info.defaultSampleRate),
		LowOutputLatency:  float64(info.defaultLowOutputLatency),
		IsDefault:         true,
	}, nil
}

// stream is a blocking-write PortAudio output stream of paInt16 samples.
type stream struct {
	mu       sync.Mutex
	ptr      unsafe.Pointer
	buf      unsafe.Pointer
	channels int
	frames   int
	closed   bool
}

func openOutput(channels int, sampleRate float64, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	dev := C.Pa_GetDefaultOutputDevice()
	if dev == C.paNoDevice {
		return nil, errors.New("portaudio: no default output device")
	}
	info := C.Pa_GetDeviceInfo(dev)
	if info == nil {
		return nil, errors.New("portaudio: failed to get device info")
	}
	if int(info.maxOutputChannels) < channels {
		return nil, fmt.Errorf("portaudio: device supports %d output channels, need %d", int(info.maxOutputChannels), channels)
	}
	params := &C.PaStreamParameters{
		device:                    dev,
		channelCount:              C.int(channels),
		sampleFormat:              C.paInt16,
		suggestedLatency:          info.defaultLowOutputLatency,
		hostApiSpecificStreamInfo: nil,
	}

	var ptr unsafe.Pointer
	if err := paError(C.pa_open_output(&ptr, params, C.double(sampleRate), C.ulong(framesPerBuffer))); err != nil {
		return nil, err
	}
	s := &stream{
		ptr:      ptr,
		buf:      C.malloc(C.size_t(framesPerBuffer * channels * 2)),
		channels: channels,
		frames:   framesPerBuffer,
	}
	if err := paError(C.pa_start_stream(ptr)); err != nil {
		C.pa_close_stream(ptr)
		C.free(s.buf)
		return nil, err
	}
	return s, nil
}

// write copies interleaved samples through the C buffer, one buffer's worth
// of frames at a time. A trailing partial frame is dropped.
func (s *stream) write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("portaudio: stream closed")
	}
	per := s.frames * s.channels
	for len(samples) >= s.channels {
		n := min(len(samples)/s.channels*s.channels, per)
		C.memcpy(s.buf, unsafe.Pointer(&samples[0]), C.size_t(n*2))
		if err := paError(C.pa_write_stream(s.ptr, s.buf, C.ulong(n/s.channels))); err != nil {
			return err
		}
		samples = samples[n:]
	}
	return nil
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	C.pa_stop_stream(s.ptr)
	err := paError(C.pa_close_stream(s.ptr))
	C.free(s.buf)
	return err
}
