package sensors

import (
	"errors"
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
)

// ErrReadTimeout reports that no complete PMS5003 frame arrived in time.
// The serial link stays open; the next cycle may succeed.
var ErrReadTimeout = errors.New("pms5003: read timed out")

// PMS5003 frame layout: 0x42 0x4D magic, a big-endian payload length (always
// 28: thirteen data words plus the checksum word), thirteen big-endian data
// words, and a checksum over every preceding byte.
const (
	pmsMagic1 = 0x42
	pmsMagic2 = 0x4D

	pmsFrameLen   = 32
	pmsPayloadLen = 28
	pmsDataWords  = 13

	// Bytes scanned for a frame start before the cycle is declared lost.
	pmsMaxSync = 4 * pmsFrameLen
)

// PMS5003 is the optional particulate sensor on the Pi's UART.
type PMS5003 struct {
	port io.ReadWriteCloser
}

// OpenPMS5003 opens the sensor's serial port. The sensor streams frames
// continuously in active mode, so opening the port is all the setup needed.
func OpenPMS5003(portName string) (*PMS5003, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              9600,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 2000, // ms; bounds a cycle stuck on a dead sensor
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("PMS5003 serial open: %w", err)
	}
	return &PMS5003{port: port}, nil
}

// ReadParticulates scans for the next frame boundary and decodes one frame.
func (p *PMS5003) ReadParticulates() (ParticulateReading, error) {
	frame := make([]byte, pmsFrameLen)
	if err := p.sync(frame); err != nil {
		return ParticulateReading{}, err
	}
	return parseFrame(frame)
}

// Close releases the serial port.
func (p *PMS5003) Close() error {
	return p.port.Close()
}

// sync hunts for the two magic bytes and fills buf with one whole frame.
func (p *PMS5003) sync(buf []byte) error {
	b := make([]byte, 1)
	scanned := 0
	for {
		if scanned >= pmsMaxSync {
			return ErrReadTimeout
		}
		if err := p.readByte(b); err != nil {
			return err
		}
		scanned++
		if b[0] != pmsMagic1 {
			continue
		}
		if err := p.readByte(b); err != nil {
			return err
		}
		scanned++
		if b[0] != pmsMagic2 {
			continue
		}
		buf[0] = pmsMagic1
		buf[1] = pmsMagic2
		if _, err := io.ReadFull(p.port, buf[2:]); err != nil {
			return fmt.Errorf("%w: %v", ErrReadTimeout, err)
		}
		return nil
	}
}

func (p *PMS5003) readByte(b []byte) error {
	n, err := p.port.Read(b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadTimeout, err)
	}
	if n == 0 {
		// The inter-character timeout elapsed with no data.
		return ErrReadTimeout
	}
	return nil
}

// parseFrame validates and decodes one 32-byte frame.
func parseFrame(frame []byte) (ParticulateReading, error) {
	if len(frame) != pmsFrameLen {
		return ParticulateReading{}, fmt.Errorf("pms5003: frame is %d bytes, want %d", len(frame), pmsFrameLen)
	}
	if frame[0] != pmsMagic1 || frame[1] != pmsMagic2 {
		return ParticulateReading{}, fmt.Errorf("pms5003: bad frame magic 0x%02X%02X", frame[0], frame[1])
	}
	if got := word(frame, 2); got != pmsPayloadLen {
		return ParticulateReading{}, fmt.Errorf("pms5003: payload length %d, want %d", got, pmsPayloadLen)
	}

	var sum uint16
	for _, b := range frame[:pmsFrameLen-2] {
		sum += uint16(b)
	}
	if got := word(frame, pmsFrameLen-2); got != sum {
		return ParticulateReading{}, fmt.Errorf("pms5003: checksum 0x%04X, want 0x%04X", got, sum)
	}

	var data [pmsDataWords]uint16
	for i := range data {
		data[i] = word(frame, 4+2*i)
	}

	// Words 0-2 are the standard (CF=1) mass concentrations, 3-5 the
	// atmospheric ones the station does not record, 6-11 the particle
	// counts, 12 reserved.
	return ParticulateReading{
		PM1:            float64(data[0]),
		PM25:           float64(data[1]),
		PM10:           float64(data[2]),
		Particles03um:  float64(data[6]),
		Particles05um:  float64(data[7]),
		Particles10um:  float64(data[8]),
		Particles25um:  float64(data[9]),
		Particles50um:  float64(data[10]),
		Particles100um: float64(data[11]),
	}, nil
}

func word(b []byte, i int) uint16 {
	return uint16(b[i])<<8 | uint16(b[i+1])
}
