package frame

import "errors"

// ErrFraming reports an internal buffer overflow. The assembler has already
// reset itself; the caller may continue pushing chunks.
var ErrFraming = errors.New("frame buffer overflow")
