// Package eeprom emulates the board's non-volatile parameter storage.
//
// Writes are queued and committed one word per Process call, the way the
// board's EEPROM controller completes one write cycle at a time in the
// background of the main loop.
package eeprom

import (
	"errors"
	"fmt"
	"io"
)

// Size is the size of the EEPROM in bytes.
const Size = 256

// QueueDepth is the number of writes that may be pending.
const QueueDepth = 8

// Addr is a byte address of a 16-bit word.
type Addr uint8

// Word addresses of the tuning parameters.
const (
	KPAddr        Addr = 0x00
	KIAddr        Addr = 0x02
	KDAddr        Addr = 0x04
	KSAddr        Addr = 0x06
	SetPointAddr  Addr = 0x08
	OutputMaxAddr Addr = 0x0a
	InputMaxAddr  Addr = 0x0c
	DeadZoneAddr  Addr = 0x0e
	PIDPeriodAddr Addr = 0x10
)

var (
	// ErrBusy indicates the write queue is full.
	ErrBusy = errors.New("eeprom busy")
	// ErrAddress indicates the word doesn't fit in the EEPROM.
	ErrAddress = errors.New("eeprom address out of range")
)

type pendingWrite struct {
	addr  Addr
	value uint16
}

// Memory is an emulated EEPROM image.
// Write, Process and Read belong to the cooperative loop.
type Memory struct {
	image   [Size]byte
	pending [QueueDepth]pendingWrite
	head    int
	count   int
	// OnCommit, when set, is called after a word is committed.
	OnCommit func(addr Addr, value uint16)
}

// NewMemory creates an erased Memory (all bytes 0xff).
func NewMemory() *Memory {
	m := &Memory{}
	for i := range m.image {
		m.image[i] = 0xff
	}
	return m
}

func checkAddr(addr Addr) error {
	if int(addr)+1 >= Size {
		return fmt.Errorf("%w: 0x%02x", ErrAddress, addr)
	}
	return nil
}

// Write queues a big-endian word write at addr.
func (m *Memory) Write(value uint16, addr Addr) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if m.count >= QueueDepth {
		return ErrBusy
	}
	m.pending[(m.head+m.count)%QueueDepth] = pendingWrite{addr: addr, value: value}
	m.count++
	return nil
}

// Pending returns the number of queued writes.
func (m *Memory) Pending() int {
	return m.count
}

// Process commits at most one pending write.
func (m *Memory) Process() {
	if m.count == 0 {
		return
	}
	w := m.pending[m.head]
	m.head = (m.head + 1) % QueueDepth
	m.count--
	m.image[w.addr] = byte(w.value >> 8)
	m.image[w.addr+1] = byte(w.value)
	if fn := m.OnCommit; fn != nil {
		fn(w.addr, w.value)
	}
}

// Flush commits all pending writes.
func (m *Memory) Flush() {
	for m.count > 0 {
		m.Process()
	}
}

// Read returns the committed word at addr.
func (m *Memory) Read(addr Addr) (uint16, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	return uint16(m.image[addr])<<8 | uint16(m.image[addr+1]), nil
}

// Load replaces the image with Size bytes from r.
func (m *Memory) Load(r io.Reader) error {
	var image [Size]byte
	if _, err := io.ReadFull(r, image[:]); err != nil {
		return fmt.Errorf("load eeprom image: %w", err)
	}
	m.image = image
	return nil
}

// Save writes the committed image to w.
func (m *Memory) Save(w io.Writer) error {
	_, err := w.Write(m.image[:])
	return err
}
