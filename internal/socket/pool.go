package socket

import (
	"sync"

	"github.com/ev3kit/nn/internal/constants"
)

// recvPool hands out fixed RecvBufferSize byte slices for one inbound
// datagram read, following the teacher's GetBuffer/PutBuffer pooled
// allocation discipline in internal/queue/pool.go — but bucketed to a
// single size, since every datagram read uses the same buffer size
// (unlike the teacher's power-of-2 size classes for variable-size I/O).
var recvPool = sync.Pool{
	New: func() any {
		b := make([]byte, constants.RecvBufferSize)
		return &b
	},
}

// getRecvBuffer returns a pooled RecvBufferSize buffer. Callers must call
// putRecvBuffer when done with it.
func getRecvBuffer() []byte {
	return *recvPool.Get().(*[]byte)
}

// putRecvBuffer returns a buffer to the pool. Buffers with the wrong
// capacity (should not happen) are simply dropped rather than pooled.
func putRecvBuffer(buf []byte) {
	if cap(buf) != constants.RecvBufferSize {
		return
	}
	buf = buf[:constants.RecvBufferSize]
	recvPool.Put(&buf)
}
