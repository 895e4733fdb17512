// Package objects defines the immutable content-addressed objects the wiki
// store is built from: blobs (file content), trees (directories) and commits
// (snapshots). Objects are encoded as "<kind> <size>\x00<payload>" and
// addressed by the hex SHA-256 of that encoding, so identical content always
// yields the identical id.
package objects

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Kind identifies the type of a stored object.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
)

// Object is implemented by every storable object.
type Object interface {
	// Hash returns the hex SHA-256 id of the encoded object.
	Hash() string

	// Kind returns the object type.
	Kind() Kind

	// Data returns the complete encoding including the header.
	Data() []byte
}

func encode(kind Kind, payload []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", kind, len(payload))
	return append([]byte(header), payload...)
}

func hashOf(kind Kind, payload []byte) string {
	sum := sha256.Sum256(encode(kind, payload))
	return hex.EncodeToString(sum[:])
}

// Decode splits an encoded object into its kind and payload, validating the
// header against the payload length.
func Decode(data []byte) (Kind, []byte, error) {
	sep := bytes.IndexByte(data, 0)
	if sep < 0 {
		return "", nil, fmt.Errorf("invalid object: missing header terminator")
	}
	header := data[:sep]
	payload := data[sep+1:]

	space := bytes.IndexByte(header, ' ')
	if space < 0 {
		return "", nil, fmt.Errorf("invalid object header %q", header)
	}
	kind := Kind(header[:space])
	switch kind {
	case KindBlob, KindTree, KindCommit:
	default:
		return "", nil, fmt.Errorf("unknown object kind %q", header[:space])
	}

	size, err := strconv.Atoi(string(header[space+1:]))
	if err != nil {
		return "", nil, fmt.Errorf("invalid object size in header %q", header)
	}
	if size != len(payload) {
		return "", nil, fmt.Errorf("object size mismatch: header says %d, payload is %d", size, len(payload))
	}
	return kind, payload, nil
}
