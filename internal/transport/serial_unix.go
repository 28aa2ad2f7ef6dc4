//go:build unix

package transport

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// SerialPort is a raw, unbuffered 8-N-1 serial line, opened and configured
// directly via termios ioctls the way a UART-attached 9P session needs:
// no line discipline, no echo, no flow control.
type SerialPort struct {
	f *os.File
}

// OpenSerial opens device and configures it for 115200 8-N-1 raw mode.
func OpenSerial(device string) (*SerialPort, error) {
	f, err := os.OpenFile(device, os.O_RDWR|os.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	fd := int(f.Fd())

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("TCGETS %s: %w", device, err)
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD | unix.B115200
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		f.Close()
		return nil, fmt.Errorf("TCSETS %s: %w", device, err)
	}

	return &SerialPort{f: f}, nil
}

func (p *SerialPort) Read(b []byte) (int, error)  { return p.f.Read(b) }
func (p *SerialPort) Write(b []byte) (int, error) { return p.f.Write(b) }
func (p *SerialPort) Close() error                { return p.f.Close() }
