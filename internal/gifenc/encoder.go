package gifenc

import (
	"bufio"
	"compress/lzw"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"io"
	"time"

	"golang.org/x/image/draw"
)

const (
	blockIntroducer    = 0x21
	imageSeparator     = 0x2C
	trailer            = 0x3B
	graphicControlExt  = 0xF9
	applicationExt     = 0xFF
	colorTableFlag     = 0x80
	maxSubBlock        = 255
	maxDimension       = 0xFFFF
	maxDelayCentisec   = 0xFFFF
	defaultFrameDelay  = 200 * time.Millisecond
	netscapeIdentifier = "NETSCAPE2.0"
)

var (
	ErrNotStarted     = errors.New("gifenc: encoder not started")
	ErrAlreadyStarted = errors.New("gifenc: encoder already started")
	ErrFinished       = errors.New("gifenc: encoder already finished")
	ErrFrameSize      = errors.New("gifenc: frame size does not match canvas")
)

// Options configures an Encoder.
type Options struct {
	// Delay is how long each frame is shown. It is stored in centiseconds,
	// rounded to the nearest and clamped to [1, 65535].
	Delay time.Duration
	// LoopCount is 0 to loop forever, n to repeat n extra times, or -1 to play once
	// without a loop extension.
	LoopCount int
	// Palette quantises every frame. Defaults to palette.Plan9.
	Palette color.Palette
	// Dither enables Floyd-Steinberg error diffusion during quantisation.
	Dither bool
}

// PaletteByName resolves a configured palette name.
func PaletteByName(name string) (color.Palette, error) {
	switch name {
	case "", "plan9":
		return palette.Plan9, nil
	case "websafe":
		return palette.WebSafe, nil
	default:
		return nil, fmt.Errorf("gifenc: unknown palette %q", name)
	}
}

type state int

const (
	stateNew state = iota
	stateStarted
	stateFinished
)

// Encoder streams a GIF to an io.Writer. It is not safe for concurrent use.
type Encoder struct {
	out    *countingWriter
	w      *bufio.Writer
	bounds image.Rectangle
	opts   Options

	colorTable []byte
	tableBits  int
	paletted   *image.Paletted

	state  state
	frames int
	err    error
}

// New returns an encoder for a width x height canvas writing to w.
func New(w io.Writer, width, height int, opts Options) (*Encoder, error) {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("gifenc: invalid canvas %dx%d", width, height)
	}
	if opts.Delay <= 0 {
		opts.Delay = defaultFrameDelay
	}
	if opts.LoopCount < -1 || opts.LoopCount > 0xFFFF {
		return nil, fmt.Errorf("gifenc: invalid loop count %d", opts.LoopCount)
	}
	if len(opts.Palette) == 0 {
		opts.Palette = palette.Plan9
	}
	if len(opts.Palette) > 256 {
		return nil, fmt.Errorf("gifenc: palette has %d colours, max 256", len(opts.Palette))
	}

	out := &countingWriter{w: w}
	enc := &Encoder{
		out:    out,
		w:      bufio.NewWriter(out),
		bounds: image.Rect(0, 0, width, height),
		opts:   opts,
	}
	enc.colorTable, enc.tableBits = encodeColorTable(opts.Palette)
	enc.paletted = image.NewPaletted(enc.bounds, opts.Palette)
	return enc, nil
}

// Start writes the GIF header, logical screen descriptor, and loop extension.
func (e *Encoder) Start() error {
	switch e.state {
	case stateStarted:
		return ErrAlreadyStarted
	case stateFinished:
		return ErrFinished
	}
	e.state = stateStarted

	e.write([]byte("GIF89a"))
	e.writeUint16(e.bounds.Dx())
	e.writeUint16(e.bounds.Dy())
	// no global colour table, background index 0, square pixels
	e.write([]byte{0x00, 0x00, 0x00})

	if e.opts.LoopCount >= 0 {
		e.write([]byte{blockIntroducer, applicationExt, byte(len(netscapeIdentifier))})
		e.write([]byte(netscapeIdentifier))
		e.write([]byte{0x03, 0x01})
		e.writeUint16(e.opts.LoopCount)
		e.write([]byte{0x00})
	}
	return e.flush()
}

// PushFrame quantises img and appends it as the next frame. img must match the
// canvas size; its bounds need not start at the origin.
func (e *Encoder) PushFrame(img image.Image) error {
	switch e.state {
	case stateNew:
		return ErrNotStarted
	case stateFinished:
		return ErrFinished
	}
	if e.err != nil {
		return e.err
	}
	b := img.Bounds()
	if b.Dx() != e.bounds.Dx() || b.Dy() != e.bounds.Dy() {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), e.bounds.Dx(), e.bounds.Dy())
	}

	if e.opts.Dither {
		draw.FloydSteinberg.Draw(e.paletted, e.bounds, img, b.Min)
	} else {
		draw.Draw(e.paletted, e.bounds, img, b.Min, draw.Src)
	}

	e.writeGraphicControl()
	e.writeImageDescriptor()
	e.write(e.colorTable)
	e.writeImageData()
	if e.err != nil {
		return e.err
	}
	e.frames++
	return e.flush()
}

// Finish writes the trailer and flushes buffered bytes. It does not close the
// underlying writer.
func (e *Encoder) Finish() error {
	switch e.state {
	case stateNew:
		return ErrNotStarted
	case stateFinished:
		return ErrFinished
	}
	e.state = stateFinished
	e.write([]byte{trailer})
	return e.flush()
}

// Frames reports how many frames have been written.
func (e *Encoder) Frames() int {
	return e.frames
}

// Written reports the bytes delivered to the underlying writer so far.
func (e *Encoder) Written() int64 {
	return e.out.n
}

func (e *Encoder) writeGraphicControl() {
	delay := int((e.opts.Delay + 5*time.Millisecond) / (10 * time.Millisecond))
	delay = min(max(delay, 1), maxDelayCentisec)
	// disposal unspecified, no user input, no transparency
	e.write([]byte{blockIntroducer, graphicControlExt, 0x04, 0x00})
	e.writeUint16(delay)
	e.write([]byte{0x00, 0x00})
}

func (e *Encoder) writeImageDescriptor() {
	e.write([]byte{imageSeparator})
	e.writeUint16(0)
	e.writeUint16(0)
	e.writeUint16(e.bounds.Dx())
	e.writeUint16(e.bounds.Dy())
	e.write([]byte{colorTableFlag | byte(e.tableBits-1)})
}

func (e *Encoder) writeImageData() {
	if e.err != nil {
		return
	}
	litWidth := e.tableBits
	if litWidth < 2 {
		litWidth = 2
	}
	e.write([]byte{byte(litWidth)})

	blocks := &blockWriter{w: e.w}
	lzww := lzw.NewWriter(blocks, lzw.LSB, litWidth)
	width := e.bounds.Dx()
	for y := 0; y < e.bounds.Dy(); y++ {
		row := e.paletted.Pix[y*e.paletted.Stride : y*e.paletted.Stride+width]
		if _, err := lzww.Write(row); err != nil {
			e.err = fmt.Errorf("gifenc: compress frame: %w", err)
			return
		}
	}
	if err := lzww.Close(); err != nil {
		e.err = fmt.Errorf("gifenc: compress frame: %w", err)
		return
	}
	if err := blocks.close(); err != nil {
		e.err = fmt.Errorf("gifenc: write image data: %w", err)
	}
}

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.w.Write(p); err != nil {
		e.err = fmt.Errorf("gifenc: write: %w", err)
	}
}

func (e *Encoder) writeUint16(v int) {
	e.write([]byte{byte(v), byte(v >> 8)})
}

func (e *Encoder) flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.w.Flush(); err != nil {
		e.err = fmt.Errorf("gifenc: flush: %w", err)
	}
	return e.err
}

// encodeColorTable pads p to a power of two and returns the packed RGB table
// with its size exponent.
func encodeColorTable(p color.Palette) ([]byte, int) {
	bits := 1
	for 1<<bits < len(p) {
		bits++
	}
	table := make([]byte, 3*(1<<bits))
	for i, c := range p {
		r, g, b, _ := c.RGBA()
		table[3*i+0] = uint8(r >> 8)
		table[3*i+1] = uint8(g >> 8)
		table[3*i+2] = uint8(b >> 8)
	}
	return table, bits
}

// blockWriter splits LZW output into length-prefixed sub-blocks.
type blockWriter struct {
	w   io.Writer
	buf [maxSubBlock + 1]byte
	n   int
}

func (b *blockWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		copied := copy(b.buf[1+b.n:], p)
		b.n += copied
		written += copied
		p = p[copied:]
		if b.n == maxSubBlock {
			if err := b.emit(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (b *blockWriter) emit() error {
	if b.n == 0 {
		return nil
	}
	b.buf[0] = byte(b.n)
	_, err := b.w.Write(b.buf[:1+b.n])
	b.n = 0
	return err
}

// close emits any pending sub-block followed by the block terminator.
func (b *blockWriter) close() error {
	if err := b.emit(); err != nil {
		return err
	}
	_, err := b.w.Write([]byte{0x00})
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
