//go:build !unix

package transport

import (
	"fmt"
	"io"
)

// SerialPort is unavailable outside unix targets; this stub keeps cmd/9pd
// buildable everywhere while making the unsupported path an explicit
// runtime error rather than a missing symbol.
type SerialPort struct{}

func OpenSerial(device string) (*SerialPort, error) {
	return nil, fmt.Errorf("serial transport is not supported on this platform")
}

func (p *SerialPort) Read([]byte) (int, error)  { return 0, io.EOF }
func (p *SerialPort) Write([]byte) (int, error) { return 0, io.EOF }
func (p *SerialPort) Close() error              { return nil }
