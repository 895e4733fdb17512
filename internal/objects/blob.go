package objects

import (
	"bytes"
	"fmt"
)

// Blob holds immutable file content.
type Blob struct {
	content []byte
	hash    string
}

// NewBlob creates a blob from content. A nil slice is treated as an empty
// file, which is valid.
func NewBlob(content []byte) *Blob {
	content = bytes.Clone(content)
	if content == nil {
		content = []byte{}
	}
	return &Blob{
		content: content,
		hash:    hashOf(KindBlob, content),
	}
}

func (b *Blob) Hash() string {
	return b.hash
}

func (b *Blob) Kind() Kind {
	return KindBlob
}

// Content returns the blob's bytes. The returned slice must not be modified.
func (b *Blob) Content() []byte {
	return b.content
}

func (b *Blob) Size() int {
	return len(b.content)
}

func (b *Blob) Data() []byte {
	return encode(KindBlob, b.content)
}

func (b *Blob) String() string {
	return fmt.Sprintf("Blob{hash: %.8s, size: %d}", b.hash, b.Size())
}
