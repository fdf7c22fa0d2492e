// Package serial implements the board's serial tuning protocol.
package serial

// The wire format is a fixed 5-byte frame:
//
//	0x30 <parameter id> <value high> <value low> 0x35
//
// There is no escaping and no checksum. A frame whose last byte isn't the
// end byte is dropped and the parser waits for the next start byte.
//
// Reception spans two contexts. ReceiveEvent runs in the UART receive
// interrupt (a reader goroutine on a host) and only appends to a flat
// staging buffer. RxProcess and TxProcess run in the cooperative loop.
// Bytes received while the staging buffer is full are silently dropped.
//
// Send, SendPacket and SendByte must only be called from the cooperative
// loop; the transmit ring has no protection against other contexts.
