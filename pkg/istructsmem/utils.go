/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructsmem

import (
	"encoding/binary"

	"github.com/valyala/bytebufferpool"
)

// Calls f with partition key built from prefix and id.
// Key buffer is returned to pool after f returns and must not be retained
func withPKey[T ~string](prefix byte, id T, f func(pKey []byte) error) error {
	var k keys
	defer k.release()
	return f(k.pKey(prefix, string(id)))
}

// Pooled key buffers for batch operations
type keys struct {
	bufs []*bytebufferpool.ByteBuffer
}

func (k *keys) pKey(prefix byte, id string) []byte {
	bb := bytebufferpool.Get()
	_ = bb.WriteByte(prefix)
	_, _ = bb.WriteString(id)
	k.bufs = append(k.bufs, bb)
	return bb.B
}

func (k *keys) release() {
	for _, bb := range k.bufs {
		bytebufferpool.Put(bb)
	}
	k.bufs = nil
}

func cCols[T ~string](id T) []byte {
	return []byte(id)
}

func seqToBytes(seq int64) []byte {
	b := make([]byte, seqSize)
	binary.BigEndian.PutUint64(b, uint64(seq))
	return b
}

func seqFromBytes(b []byte) int64 {
	if len(b) != seqSize {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}
