package source

import (
	stderrors "errors"
	"io"
)

// fakeRaw is a decoded frame whose pixels are all set to id.
type fakeRaw struct {
	w, h int
	id   byte
}

func (f *fakeRaw) Width() int  { return f.w }
func (f *fakeRaw) Height() int { return f.h }
func (f *fakeRaw) Release()    {}

type fakePacket struct {
	stream   int
	frames   []*fakeRaw
	released *int
}

func (p *fakePacket) StreamIndex() int { return p.stream }
func (p *fakePacket) Release() {
	if p.released != nil {
		*p.released++
	}
}

type fakeBackend struct {
	container *fakeContainer
	openErr   error
	opened    []string
}

func (b *fakeBackend) Open(path string) (Container, error) {
	b.opened = append(b.opened, path)
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.container, nil
}

type fakeContainer struct {
	stream   StreamInfo
	noVideo  bool
	packets  []*fakePacket
	pos      int
	readErr  error
	readFail int // packet position that fails with readErr

	decoder    *fakeDecoder
	decoderErr error
	released   int
	closed     bool
}

func (c *fakeContainer) BestVideoStream() (StreamInfo, bool) {
	if c.noVideo {
		return StreamInfo{}, false
	}
	return c.stream, true
}

func (c *fakeContainer) OpenDecoder(stream StreamInfo) (Decoder, error) {
	if c.decoderErr != nil {
		return nil, c.decoderErr
	}
	return c.decoder, nil
}

func (c *fakeContainer) ReadPacket() (Packet, error) {
	if c.readErr != nil && c.pos == c.readFail {
		return nil, c.readErr
	}
	if c.pos >= len(c.packets) {
		return nil, io.EOF
	}
	p := c.packets[c.pos]
	p.released = &c.released
	c.pos++
	return p, nil
}

func (c *fakeContainer) Close() error {
	c.closed = true
	return nil
}

type fakeDecoder struct {
	queue    []*fakeRaw
	buffered []*fakeRaw // released by the flush
	flushed  bool

	sendErr    error
	busyAgain  bool // SendPacket fails with ErrAgain while output is pending
	alwaysBusy bool // every data packet fails with ErrAgain
	perSend    int  // frames handed out per SendPacket before ErrAgain, 0 = all
	since      int
	again      int

	receiveErr error
	receiveAt  int // frame number that fails with receiveErr
	received   int

	scaler    *fakeScaler
	scalerErr error
	closed    bool
}

func (d *fakeDecoder) SendPacket(pkt Packet) error {
	if d.sendErr != nil {
		return d.sendErr
	}
	if pkt == nil {
		d.flushed = true
		d.queue = append(d.queue, d.buffered...)
		return nil
	}
	d.since = 0
	if d.alwaysBusy || (d.busyAgain && len(d.queue) > 0) {
		d.again++
		return ErrAgain
	}
	d.queue = append(d.queue, pkt.(*fakePacket).frames...)
	return nil
}

func (d *fakeDecoder) ReceiveFrame() (RawFrame, error) {
	if len(d.queue) == 0 {
		if d.flushed {
			return nil, io.EOF
		}
		return nil, ErrAgain
	}
	if !d.flushed && d.perSend > 0 && d.since >= d.perSend {
		return nil, ErrAgain
	}
	d.since++
	d.received++
	if d.receiveErr != nil && d.received == d.receiveAt {
		return nil, d.receiveErr
	}
	f := d.queue[0]
	d.queue = d.queue[1:]
	return f, nil
}

func (d *fakeDecoder) NewScaler() (Scaler, error) {
	if d.scalerErr != nil {
		return nil, d.scalerErr
	}
	return d.scaler, nil
}

func (d *fakeDecoder) Close() error {
	d.closed = true
	return nil
}

type fakeScaler struct {
	short  bool
	err    error
	scaled int
	closed bool
}

func (s *fakeScaler) Scale(frame RawFrame) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.scaled++
	raw := frame.(*fakeRaw)
	n := raw.w * raw.h * 3
	if s.short {
		n--
	}
	pix := make([]byte, n)
	for i := range pix {
		pix[i] = raw.id
	}
	return pix, nil
}

func (s *fakeScaler) Close() error {
	s.closed = true
	return nil
}

var errBoom = stderrors.New("boom")

// newClip builds a backend serving n frames of w x h on stream 0, perPacket
// frames per packet. Frame ids start at 1 in decode order.
func newClip(n, w, h, perPacket int) (*fakeBackend, *fakeContainer) {
	dec := &fakeDecoder{scaler: &fakeScaler{}}
	c := &fakeContainer{
		stream:  StreamInfo{Index: 0, Codec: "fake", Width: w, Height: h},
		decoder: dec,
	}
	var pkt *fakePacket
	for i := 1; i <= n; i++ {
		if pkt == nil || len(pkt.frames) == perPacket {
			pkt = &fakePacket{stream: 0}
			c.packets = append(c.packets, pkt)
		}
		pkt.frames = append(pkt.frames, &fakeRaw{w: w, h: h, id: byte(i)})
	}
	return &fakeBackend{container: c}, c
}
