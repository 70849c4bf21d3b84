package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-voice/core/audio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

var logger = otelslog.NewLogger("github.com/koscakluka/ema-voice/core/audio/portaudio")

type Client struct {
	bufferSize int

	output        *portaudio.Stream
	out           []int16
	leftoverAudio []byte
	outputMu      sync.Mutex

	input         *portaudio.Stream
	in            []int16
	captureCancel context.CancelFunc
	captureDone   chan struct{}
	inputMu       sync.Mutex
}

// NewClient opens the default output stream. The input stream is opened
// lazily when capture starts so the microphone is only held while in use.
func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	out := make([]int16, bufferSize)
	output, err := portaudio.OpenDefaultStream(0, 1, audio.DefaultSampleRate, bufferSize, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open PortAudio output stream: %w", err)
	}
	if err := output.Start(); err != nil {
		output.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start PortAudio output stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		output:     output,
		out:        out,
		in:         make([]int16, bufferSize),
	}, nil
}

func (c *Client) RequestAccess(_ context.Context) error {
	if _, err := portaudio.DefaultInputDevice(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrNoDevice, err)
	}

	probe := make([]int16, c.bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, c.bufferSize, probe)
	if err != nil {
		return accessError(err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return accessError(err)
	}
	return stream.Stop()
}

func accessError(err error) error {
	switch {
	case errors.Is(err, portaudio.DeviceUnavailable):
		return fmt.Errorf("%w: %v", audio.ErrDeviceBusy, err)
	case errors.Is(err, portaudio.InvalidDevice):
		return fmt.Errorf("%w: %v", audio.ErrNoDevice, err)
	}
	return err
}

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	if c.input != nil {
		return nil
	}

	input, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, c.bufferSize, c.in)
	if err != nil {
		return fmt.Errorf("failed to open PortAudio input stream: %w", accessError(err))
	}
	if err := input.Start(); err != nil {
		input.Close()
		return fmt.Errorf("failed to start PortAudio input stream: %w", accessError(err))
	}

	ctx, cancel := context.WithCancel(ctx)
	c.input = input
	c.captureCancel = cancel
	c.captureDone = make(chan struct{})
	go c.readInput(ctx, input, onAudio, c.captureDone)
	return nil
}

func (c *Client) readInput(ctx context.Context, input *portaudio.Stream, onAudio func([]byte), done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := input.Read(); err != nil {
			logger.Warn("failed to read from PortAudio stream", "error", err)
			continue
		}

		audioBuffer := bytes.Buffer{}
		_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
		onAudio(audioBuffer.Bytes())
	}
}

func (c *Client) StopCapture() error {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	if c.input == nil {
		return nil
	}

	c.captureCancel()
	<-c.captureDone

	err := errors.Join(c.input.Stop(), c.input.Close())
	c.input = nil
	if err != nil {
		return fmt.Errorf("failed to stop PortAudio input stream: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	_ = c.StopCapture()
	c.outputMu.Lock()
	defer c.outputMu.Unlock()
	_ = c.output.Close()
	_ = portaudio.Terminate()
}

// SendAudio writes whole buffers to the device and blocks until they are
// queued. The remainder waits for the next call.
func (c *Client) SendAudio(audio []byte) error {
	c.outputMu.Lock()
	defer c.outputMu.Unlock()

	c.leftoverAudio = append(c.leftoverAudio, audio...)
	return c.flush(false)
}

func (c *Client) flush(padLast bool) error {
	bufferSize := c.bufferSize * 2
	for len(c.leftoverAudio) >= bufferSize || (padLast && len(c.leftoverAudio) > 0) {
		chunk := c.leftoverAudio[:min(bufferSize, len(c.leftoverAudio))]
		clear(c.out)
		if err := binary.Read(bytes.NewReader(chunk[:len(chunk)/2*2]), binary.LittleEndian, c.out[:len(chunk)/2]); err != nil {
			return fmt.Errorf("failed to decode audio: %w", err)
		}
		if err := c.output.Write(); err != nil {
			return fmt.Errorf("failed to write to PortAudio stream: %w", err)
		}
		c.leftoverAudio = c.leftoverAudio[len(chunk):]
	}
	return nil
}

func (c *Client) ClearBuffer() {
	c.outputMu.Lock()
	defer c.outputMu.Unlock()
	c.leftoverAudio = nil
}

// Mark flushes what is left and reports the mark, writes are blocking so the
// audio has reached the device by then.
func (c *Client) Mark(name string, callback func(string)) error {
	c.outputMu.Lock()
	err := c.flush(true)
	c.outputMu.Unlock()

	if callback != nil {
		go callback(name)
	}
	return err
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
