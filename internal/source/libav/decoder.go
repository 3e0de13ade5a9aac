package libav

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"

	"github.com/zsiec/termvid/internal/source"
)

type decoder struct {
	cc    *astiav.CodecContext
	frame *astiav.Frame
}

func (d *decoder) SendPacket(p source.Packet) error {
	var pkt *astiav.Packet
	if p != nil {
		pp, ok := p.(packet)
		if !ok {
			return fmt.Errorf("unexpected packet type %T", p)
		}
		pkt = pp.pkt
	}
	err := d.cc.SendPacket(pkt)
	if stderrors.Is(err, astiav.ErrEagain) {
		return source.ErrAgain
	}
	return err
}

func (d *decoder) ReceiveFrame() (source.RawFrame, error) {
	d.frame.Unref()
	if err := d.cc.ReceiveFrame(d.frame); err != nil {
		switch {
		case stderrors.Is(err, astiav.ErrEagain):
			return nil, source.ErrAgain
		case stderrors.Is(err, astiav.ErrEof):
			return nil, io.EOF
		}
		return nil, err
	}
	return rawFrame{d.frame}, nil
}

// NewScaler converts from the decoder's size and pixel format to RGB24 at
// the same size with bilinear filtering.
func (d *decoder) NewScaler() (source.Scaler, error) {
	w, h := d.cc.Width(), d.cc.Height()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("decoder reports invalid size %dx%d", w, h)
	}
	ssc, err := astiav.CreateSoftwareScaleContext(
		w, h, d.cc.PixelFormat(),
		w, h, astiav.PixelFormatRgb24,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return nil, err
	}
	return &scaler{ssc: ssc, dst: astiav.AllocFrame()}, nil
}

func (d *decoder) Close() error {
	d.frame.Free()
	d.cc.Free()
	return nil
}

type rawFrame struct {
	f *astiav.Frame
}

func (r rawFrame) Width() int  { return r.f.Width() }
func (r rawFrame) Height() int { return r.f.Height() }
func (r rawFrame) Release()    { r.f.Unref() }

type scaler struct {
	ssc *astiav.SoftwareScaleContext
	dst *astiav.Frame
}

// Scale returns a tightly packed copy of the converted frame.
func (s *scaler) Scale(f source.RawFrame) ([]byte, error) {
	rf, ok := f.(rawFrame)
	if !ok {
		return nil, fmt.Errorf("unexpected frame type %T", f)
	}
	s.dst.Unref()
	if err := s.ssc.ScaleFrame(rf.f, s.dst); err != nil {
		return nil, err
	}
	return s.dst.Data().Bytes(1)
}

func (s *scaler) Close() error {
	s.dst.Free()
	s.ssc.Free()
	return nil
}
