package i3

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// MessageType identifies an i3 IPC request and its reply
type MessageType uint32

const (
	MessageRunCommand MessageType = 0
	MessageGetVersion MessageType = 7
)

const (
	magic = "i3-ipc"

	// magic, payload length, message type
	headerLen = len(magic) + 4 + 4

	// replies larger than this are treated as a corrupt stream
	maxPayloadLen = 16 << 20
)

func (t MessageType) String() string {
	switch t {
	case MessageRunCommand:
		return "RUN_COMMAND"
	case MessageGetVersion:
		return "GET_VERSION"
	}
	return "UNKNOWN"
}

// encodeMessage frames payload. i3 uses the host byte order for both integers.
func encodeMessage(t MessageType, payload []byte) []byte {
	buf := make([]byte, headerLen+len(payload))
	copy(buf, magic)
	binary.NativeEndian.PutUint32(buf[len(magic):], uint32(len(payload)))
	binary.NativeEndian.PutUint32(buf[len(magic)+4:], uint32(t))
	copy(buf[headerLen:], payload)
	return buf
}

func readMessage(r io.Reader) (MessageType, []byte, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, errors.Wrap(err, "failed to read reply header")
	}

	if !bytes.Equal(header[:len(magic)], []byte(magic)) {
		return 0, nil, errors.Errorf("invalid magic %q in reply", header[:len(magic)])
	}

	size := binary.NativeEndian.Uint32(header[len(magic):])
	t := MessageType(binary.NativeEndian.Uint32(header[len(magic)+4:]))

	if size > maxPayloadLen {
		return 0, nil, errors.Errorf("reply payload too large: %d bytes", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, errors.Wrapf(err, "failed to read %d byte reply payload", size)
	}

	return t, payload, nil
}
