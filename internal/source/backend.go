package source

import (
	stderrors "errors"
)

// ErrAgain is returned by Decoder.ReceiveFrame when the decoder needs
// another packet before it can produce a frame.
var ErrAgain = stderrors.New("decoder needs more input")

// StreamInfo describes the selected video stream.
type StreamInfo struct {
	Index  int
	Codec  string
	Width  int
	Height int
}

// Backend opens media containers. The production implementation lives in
// the libav subpackage.
type Backend interface {
	Open(path string) (Container, error)
}

// Container is an open demuxable input. It is owned by a single extraction
// run and closed when the run ends.
type Container interface {
	// BestVideoStream reports the stream with the highest decode priority.
	// ok is false when the container has no video stream.
	BestVideoStream() (info StreamInfo, ok bool)
	OpenDecoder(stream StreamInfo) (Decoder, error)
	// ReadPacket returns io.EOF once the input is exhausted.
	ReadPacket() (Packet, error)
	Close() error
}

// Packet is a compressed unit read from the container.
type Packet interface {
	StreamIndex() int
	Release()
}

// Decoder turns packets into raw frames.
type Decoder interface {
	// SendPacket submits a packet. A nil packet signals end of stream.
	SendPacket(pkt Packet) error
	// ReceiveFrame returns ErrAgain when more input is needed and io.EOF
	// once a flushed decoder has no frames left.
	ReceiveFrame() (RawFrame, error)
	// NewScaler builds an RGB24 converter for the decoder's output size.
	NewScaler() (Scaler, error)
	Close() error
}

// RawFrame is a decoded frame in the decoder's native pixel format. It is
// only valid until Release is called.
type RawFrame interface {
	Width() int
	Height() int
	Release()
}

// Scaler converts raw frames to packed RGB24 at the same size.
type Scaler interface {
	Scale(frame RawFrame) ([]byte, error)
	Close() error
}
