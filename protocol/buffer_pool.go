package protocol

import (
	"bytes"
	"sync"
)

// bufferPool holds scratch buffers for method and header encoding.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return &bytes.Buffer{}
	},
}

// getBuffer gets a buffer from the pool
func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer returns a buffer to the pool
func putBuffer(buf *bytes.Buffer) {
	// Don't pool buffers that are too large to avoid memory waste
	if buf.Cap() > 64*1024 {
		return
	}
	bufferPool.Put(buf)
}
