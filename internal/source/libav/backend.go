// Package libav implements the source backend on top of the FFmpeg
// libraries through go-astiav.
package libav

import (
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/asticode/go-astiav"

	"github.com/zsiec/termvid/internal/source"
)

// Options configures the backend.
type Options struct {
	// LogLevel is the FFmpeg verbosity while a container is open, one of
	// quiet, panic, fatal, error, warning, info, verbose or debug.
	LogLevel string
}

var logLevels = map[string]astiav.LogLevel{
	"quiet":   astiav.LogLevelQuiet,
	"panic":   astiav.LogLevelPanic,
	"fatal":   astiav.LogLevelFatal,
	"error":   astiav.LogLevelError,
	"warning": astiav.LogLevelWarning,
	"info":    astiav.LogLevelInfo,
	"verbose": astiav.LogLevelVerbose,
	"debug":   astiav.LogLevelDebug,
}

// ParseLogLevel maps a level name to the FFmpeg constant.
func ParseLogLevel(name string) (astiav.LogLevel, error) {
	lvl, ok := logLevels[name]
	if !ok {
		return 0, fmt.Errorf("unknown ffmpeg log level %q", name)
	}
	return lvl, nil
}

// Backend opens files with libavformat.
type Backend struct {
	level astiav.LogLevel
}

// New creates a backend.
func New(opts Options) (*Backend, error) {
	if opts.LogLevel == "" {
		opts.LogLevel = "error"
	}
	lvl, err := ParseLogLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return &Backend{level: lvl}, nil
}

// The FFmpeg log level is process global; containers share it while open
// and the first opener's previous level is restored by the last close.
var logScope struct {
	sync.Mutex
	open     int
	previous astiav.LogLevel
}

func acquireLogLevel(lvl astiav.LogLevel) {
	logScope.Lock()
	defer logScope.Unlock()
	if logScope.open == 0 {
		logScope.previous = astiav.GetLogLevel()
	}
	logScope.open++
	astiav.SetLogLevel(lvl)
}

func releaseLogLevel() {
	logScope.Lock()
	defer logScope.Unlock()
	if logScope.open == 0 {
		return
	}
	logScope.open--
	if logScope.open == 0 {
		astiav.SetLogLevel(logScope.previous)
	}
}

// Open implements source.Backend.
func (b *Backend) Open(path string) (source.Container, error) {
	acquireLogLevel(b.level)

	fc := astiav.AllocFormatContext()
	if fc == nil {
		releaseLogLevel()
		return nil, stderrors.New("failed to allocate format context")
	}
	if err := fc.OpenInput(path, nil, nil); err != nil {
		fc.Free()
		releaseLogLevel()
		return nil, fmt.Errorf("open input: %w", err)
	}
	if err := fc.FindStreamInfo(nil); err != nil {
		fc.CloseInput()
		fc.Free()
		releaseLogLevel()
		return nil, fmt.Errorf("find stream info: %w", err)
	}

	return &container{fc: fc, pkt: astiav.AllocPacket()}, nil
}

type container struct {
	fc     *astiav.FormatContext
	pkt    *astiav.Packet
	closed bool
}

// BestVideoStream returns the stream libavformat ranks best among the
// video streams. A video stream without a decoder is still returned so the
// caller reports it as unsupported rather than missing.
func (c *container) BestVideoStream() (source.StreamInfo, bool) {
	s, _, err := c.fc.FindBestStream(astiav.MediaTypeVideo, -1, -1)
	switch {
	case err == nil:
	case stderrors.Is(err, astiav.ErrDecoderNotFound):
		if s = c.firstVideoStream(); s == nil {
			return source.StreamInfo{}, false
		}
	default:
		return source.StreamInfo{}, false
	}

	cp := s.CodecParameters()
	return source.StreamInfo{
		Index:  s.Index(),
		Codec:  cp.CodecID().Name(),
		Width:  cp.Width(),
		Height: cp.Height(),
	}, true
}

func (c *container) firstVideoStream() *astiav.Stream {
	for _, s := range c.fc.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeVideo {
			return s
		}
	}
	return nil
}

func (c *container) OpenDecoder(info source.StreamInfo) (source.Decoder, error) {
	streams := c.fc.Streams()
	if info.Index < 0 || info.Index >= len(streams) {
		return nil, fmt.Errorf("stream %d out of range", info.Index)
	}
	cp := streams[info.Index].CodecParameters()

	codec := astiav.FindDecoder(cp.CodecID())
	if codec == nil {
		return nil, fmt.Errorf("no decoder for codec %s", cp.CodecID().Name())
	}
	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return nil, stderrors.New("failed to allocate codec context")
	}
	if err := cp.ToCodecContext(cc); err != nil {
		cc.Free()
		return nil, fmt.Errorf("copy codec parameters: %w", err)
	}
	if err := cc.Open(codec, nil); err != nil {
		cc.Free()
		return nil, fmt.Errorf("open decoder %s: %w", codec.Name(), err)
	}

	return &decoder{cc: cc, frame: astiav.AllocFrame()}, nil
}

func (c *container) ReadPacket() (source.Packet, error) {
	c.pkt.Unref()
	if err := c.fc.ReadFrame(c.pkt); err != nil {
		if stderrors.Is(err, astiav.ErrEof) {
			return nil, io.EOF
		}
		return nil, err
	}
	return packet{c.pkt}, nil
}

func (c *container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.pkt.Free()
	c.fc.CloseInput()
	c.fc.Free()
	releaseLogLevel()
	return nil
}

// packet wraps the container's reusable packet. Release unreferences the
// payload; the next ReadPacket reuses the allocation.
type packet struct {
	pkt *astiav.Packet
}

func (p packet) StreamIndex() int { return p.pkt.StreamIndex() }
func (p packet) Release()         { p.pkt.Unref() }
