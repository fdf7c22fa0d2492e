package serial

import "errors"

var (
	// ErrNoSpace indicates the transmit buffer can't take the whole data.
	// Nothing is enqueued in that case.
	ErrNoSpace = errors.New("no space in transmit buffer")
	// ErrBadFrame indicates bytes don't form a valid frame.
	ErrBadFrame = errors.New("bad frame")
)
