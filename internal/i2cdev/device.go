//go:build linux

package i2cdev

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/blues/note-c-zero/internal/soi2c"
)

// I2C_SLAVE from <linux/i2c-dev.h>: bind the fd to a slave address.
const i2cSlave = 0x0703

// Device is an i2c-dev character device (/dev/i2c-N) exposed as an soi2c
// bus. The slave address is re-bound only when it changes.
type Device struct {
	mu   sync.Mutex
	fd   int
	addr uint16
}

var _ soi2c.Bus = (*Device)(nil)

func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Device{fd: fd, addr: 0xFFFF}, nil
}

func (d *Device) Close() error { return unix.Close(d.fd) }

func (d *Device) bind(addr uint16) error {
	if addr == d.addr {
		return nil
	}
	if err := unix.IoctlSetInt(d.fd, i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("ioctl(I2C_SLAVE, 0x%02X): %w", addr, err)
	}
	d.addr = addr
	return nil
}

// Tx writes p to the device at addr in one bus transaction.
func (d *Device) Tx(addr uint16, p []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.bind(addr); err != nil {
		return err
	}
	n, err := unix.Write(d.fd, p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("short write: %d of %d", n, len(p))
	}
	return nil
}

// Rx fills p from the device at addr in one bus transaction.
func (d *Device) Rx(addr uint16, p []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.bind(addr); err != nil {
		return err
	}
	n, err := unix.Read(d.fd, p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("short read: %d of %d", n, len(p))
	}
	return nil
}
