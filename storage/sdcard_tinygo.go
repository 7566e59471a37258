//go:build tinygo

package storage

import (
	"fmt"
	"machine"

	"tinygo.org/x/drivers/sdcard"
)

// SDCard adapts an SPI-attached SD card from tinygo.org/x/drivers to Card
type SDCard struct {
	dev    sdcard.Device
	spi    *machine.SPI
	pins   [3]machine.Pin // sck, sdo, sdi
	ready  bool
	blocks uint32
}

// NewSDCard creates an SD card on spi with chip select cs
func NewSDCard(spi *machine.SPI, sck, sdo, sdi, cs machine.Pin) *SDCard {
	return &SDCard{
		dev:  sdcard.New(spi, sck, sdo, sdi, cs),
		spi:  spi,
		pins: [3]machine.Pin{sck, sdo, sdi},
	}
}

// InitCard runs the SD SPI-mode init sequence, then raises the bus clock
func (c *SDCard) InitCard(clockHz uint32) error {
	c.ready = false
	if err := c.dev.Configure(); err != nil {
		return fmt.Errorf("%w: %v", ErrCardNotReady, err)
	}

	if err := c.spi.Configure(machine.SPIConfig{
		Frequency: clockHz,
		SCK:       c.pins[0],
		SDO:       c.pins[1],
		SDI:       c.pins[2],
		Mode:      0,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrCardNotReady, err)
	}

	c.blocks = uint32(c.dev.Size() / BlockSize)
	c.ready = true
	return nil
}

// ReadBlock reads one 512-byte block
func (c *SDCard) ReadBlock(index uint32, buf []byte) error {
	if err := CheckRead(c, index, buf); err != nil {
		return err
	}
	n, err := c.dev.ReadAt(buf[:BlockSize], int64(index)*BlockSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockRead, err)
	}
	if n != BlockSize {
		return ErrBlockRead
	}
	return nil
}

// BlockCount returns the card size in blocks
func (c *SDCard) BlockCount() uint32 {
	if !c.ready {
		return 0
	}
	return c.blocks
}
