// Package bitstream holds configuration images laid out by a global
// address map.
package bitstream

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/cgrafab/cfgreg"
)

// Image is the value of every configuration bit of a fabric. Bit i of the
// address space is bit i%8 of byte i/8.
type Image struct {
	m     cfgreg.AddressMap
	bytes []byte
}

// New creates an all-zero image over m.
func New(m cfgreg.AddressMap) *Image {
	return &Image{
		m:     m,
		bytes: make([]byte, ByteLen(m.Width())),
	}
}

// ByteLen returns the number of bytes that hold n bits.
func ByteLen(n int) int {
	return (n + 7) / 8
}

func locate(pos int) (byt int, bit uint8) {
	return pos >> 3, uint8(pos & 0x7)
}

// SetBit writes bit pos of a packed buffer.
func SetBit(buf []byte, pos int, v bool) {
	byt, bit := locate(pos)
	if v {
		buf[byt] |= 1 << bit
	} else {
		buf[byt] &^= 1 << bit
	}
}

// GetBit reads bit pos of a packed buffer.
func GetBit(buf []byte, pos int) bool {
	byt, bit := locate(pos)
	return buf[byt]&(1<<bit) != 0
}

// AddressMap returns the map the image is laid out by.
func (img *Image) AddressMap() cfgreg.AddressMap {
	return img.m
}

// Width returns the number of bits in the image.
func (img *Image) Width() int {
	return img.m.Width()
}

// SetBit writes one bit of the address space.
func (img *Image) SetBit(offset int, v bool) {
	img.mustContain(offset)
	SetBit(img.bytes, offset, v)
}

// Bit reads one bit of the address space.
func (img *Image) Bit(offset int) bool {
	img.mustContain(offset)
	return GetBit(img.bytes, offset)
}

func (img *Image) mustContain(offset int) {
	if offset < 0 || offset >= img.Width() {
		panic(fmt.Sprintf("bit %d outside image of %d bits", offset, img.Width()))
	}
}

func (img *Image) entry(owner, name string) (cfgreg.Entry, error) {
	e, ok := img.m.Find(owner, name)
	if !ok {
		return cfgreg.Entry{}, errors.Errorf("register %s.%s is not in the address map", owner, name)
	}
	return e, nil
}

// Set writes a register value. Registers wider than 64 bits take value in
// their low 64 bits and are zero above.
func (img *Image) Set(owner, name string, value uint64) error {
	e, err := img.entry(owner, name)
	if err != nil {
		return err
	}

	if e.Width < 64 && value>>uint(e.Width) != 0 {
		return errors.Errorf("value %#x does not fit register %s of %d bits",
			value, e.Register(), e.Width)
	}

	for i := 0; i < e.Width; i++ {
		v := i < 64 && value>>uint(i)&1 == 1
		SetBit(img.bytes, e.Offset+i, v)
	}

	return nil
}

// SetRegister writes the value of r.
func (img *Image) SetRegister(r cfgreg.Register, value uint64) error {
	return img.Set(r.Owner, r.Name, value)
}

// SetField writes one bit of a register.
func (img *Image) SetField(owner, name string, bit int, v bool) error {
	e, err := img.entry(owner, name)
	if err != nil {
		return err
	}

	if bit < 0 || bit >= e.Width {
		return errors.Errorf("bit %d outside register %s of %d bits", bit, e.Register(), e.Width)
	}

	SetBit(img.bytes, e.Offset+bit, v)
	return nil
}

// Get reads a register of at most 64 bits.
func (img *Image) Get(owner, name string) (uint64, error) {
	e, err := img.entry(owner, name)
	if err != nil {
		return 0, err
	}

	if e.Width > 64 {
		return 0, errors.Errorf("register %s is %d bits wide", e.Register(), e.Width)
	}

	var v uint64
	for i := 0; i < e.Width; i++ {
		if GetBit(img.bytes, e.Offset+i) {
			v |= 1 << uint(i)
		}
	}
	return v, nil
}

// Bytes returns a copy of the packed image.
func (img *Image) Bytes() []byte {
	return append([]byte(nil), img.bytes...)
}

// Extract packs the bits of r, starting at bit 0 of the result.
func (img *Image) Extract(r cfgreg.Range) []byte {
	out := make([]byte, ByteLen(r.Width()))
	for i := 0; i < r.Width(); i++ {
		if img.Bit(r.Start + i) {
			SetBit(out, i, true)
		}
	}
	return out
}

// String returns the packed image in hexadecimal.
func (img *Image) String() string {
	return hex.EncodeToString(img.bytes)
}

// Parse reads an image written by String.
func Parse(m cfgreg.AddressMap, s string) (*Image, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrap(err, "decode bitstream")
	}

	if len(b) != ByteLen(m.Width()) {
		return nil, errors.Errorf("bitstream has %d bytes, address map needs %d",
			len(b), ByteLen(m.Width()))
	}

	img := &Image{m: m, bytes: b}
	for i := m.Width(); i < len(b)*8; i++ {
		if GetBit(b, i) {
			return nil, errors.Errorf("bitstream sets padding bit %d", i)
		}
	}

	return img, nil
}
