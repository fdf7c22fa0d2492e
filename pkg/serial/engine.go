package serial

import (
	"github.com/golang/glog"

	"github.com/blackmoon/servo.go/pkg/eeprom"
	"github.com/blackmoon/servo.go/pkg/ringbuf"
)

// TxBufferSize is the size of the transmit ring.
const TxBufferSize = 16

// Port is the UART transmitter.
type Port interface {
	// TxReady reports the transmit register is empty.
	TxReady() bool
	// WriteByte writes one byte to the transmit register.
	WriteByte(byte) error
}

// Storage is the persistent parameter storage.
type Storage interface {
	Write(value uint16, addr eeprom.Addr) error
}

// Engine is the serial protocol engine of the board.
type Engine struct {
	Port      Port
	Storage   Storage
	Addresses AddressMap

	tx     ringbuf.Ring
	txBuf  [TxBufferSize]byte
	rx     *Staging
	parser Parser
}

// NewEngine creates an Engine with the default buffer sizes and address map.
func NewEngine(port Port, storage Storage) *Engine {
	e := &Engine{
		Port:      port,
		Storage:   storage,
		Addresses: DefaultAddressMap,
		rx:        NewStaging(RxBufferSize),
	}
	e.tx.Init(e.txBuf[:])
	return e
}

// ReceiveEvent handles one byte from the UART receive interrupt.
func (e *Engine) ReceiveEvent(b byte) {
	e.rx.Receive(b)
}

// ReadByte pops the next received byte.
func (e *Engine) ReadByte() (byte, bool) {
	return e.rx.ReadByte()
}

// RxDropped returns the number of received bytes dropped on overflow.
func (e *Engine) RxDropped() uint32 {
	return e.rx.Dropped()
}

// RxBuffered returns the number of received bytes not yet parsed.
func (e *Engine) RxBuffered() int {
	return e.rx.Buffered()
}

// TxFree returns free space in the transmit ring.
func (e *Engine) TxFree() int {
	return e.tx.FreeSpace()
}

// RxProcess parses at most one received byte and stores a completed frame.
func (e *Engine) RxProcess() {
	b, ok := e.rx.ReadByte()
	if !ok {
		return
	}
	pr := e.parser.Parse(b)
	if pr.Discarded {
		glog.V(3).Infof("frame discarded, bad end byte 0x%02x", b)
		return
	}
	if pr.Param != nil {
		e.store(*pr.Param)
	}
}

func (e *Engine) store(p Param) {
	addr, ok := e.Addresses[p.ID]
	if !ok {
		glog.V(3).Infof("ignore unknown parameter %s", p.ID)
		return
	}
	if err := e.Storage.Write(p.Value, addr); err != nil {
		glog.Warningf("store %s failed: %v", p, err)
		return
	}
	glog.V(2).Infof("stored %s at 0x%02x", p, addr)
}

// Send enqueues data as a whole or not at all.
func (e *Engine) Send(data []byte) error {
	if e.tx.FreeSpace() < len(data) {
		return ErrNoSpace
	}
	e.tx.Add(data)
	return nil
}

// SendPacket enqueues a frame carrying a parameter value.
func (e *Engine) SendPacket(id ParamID, value uint16) error {
	if e.tx.FreeSpace() < FrameLen {
		return ErrNoSpace
	}
	e.tx.Add(Param{ID: id, Value: value}.Bytes())
	return nil
}

// SendByte enqueues one byte.
func (e *Engine) SendByte(b byte) error {
	if e.tx.FreeSpace() < 1 {
		return ErrNoSpace
	}
	e.tx.Add([]byte{b})
	return nil
}

// TxProcess drains the transmit ring, busy-waiting on the port between bytes.
// It blocks the loop until everything buffered is on the wire. On a port
// error, only the bytes written are removed.
func (e *Engine) TxProcess() error {
	for !e.tx.IsEmpty() {
		run := e.tx.PeekContiguous()
		for i, b := range run {
			for !e.Port.TxReady() {
			}
			if err := e.Port.WriteByte(b); err != nil {
				e.tx.Remove(i)
				return err
			}
		}
		e.tx.Remove(len(run))
	}
	return nil
}
