package antivirus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClamd accepts one connection, checks the INSTREAM framing and answers with reply
func fakeClamd(t *testing.T, reply string) (string, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)

		cmd := make([]byte, len("zINSTREAM\x00"))
		if _, err := io.ReadFull(r, cmd); err != nil {
			return
		}
		var body bytes.Buffer
		for {
			var size uint32
			if err := binary.Read(r, binary.BigEndian, &size); err != nil {
				return
			}
			if size == 0 {
				break
			}
			if _, err := io.CopyN(&body, r, int64(size)); err != nil {
				return
			}
		}
		got <- body.Bytes()
		_, _ = conn.Write([]byte(reply + "\x00"))
	}()
	return ln.Addr().String(), got
}

func TestClamAVScanner(t *testing.T) {
	ctx := context.Background()

	t.Run("clean", func(t *testing.T) {
		addr, got := fakeClamd(t, "stream: OK")
		res := NewClamAVScanner(addr, time.Second).Scan(ctx, "sofa.png", bytes.NewReader([]byte("image-bytes")))
		assert.False(t, res.Rejected())
		assert.Equal(t, []byte("image-bytes"), <-got)
	})

	t.Run("infected", func(t *testing.T) {
		addr, _ := fakeClamd(t, "stream: Eicar-Signature FOUND")
		res := NewClamAVScanner(addr, time.Second).Scan(ctx, "sofa.png", bytes.NewReader([]byte("X5O!P%@AP")))
		assert.True(t, res.Infected)
		assert.True(t, res.Rejected())
		assert.Equal(t, "Eicar-Signature", res.ThreatName)
	})

	t.Run("daemon error", func(t *testing.T) {
		addr, _ := fakeClamd(t, "INSTREAM size limit exceeded. ERROR")
		res := NewClamAVScanner(addr, time.Second).Scan(ctx, "sofa.png", bytes.NewReader([]byte("x")))
		assert.Error(t, res.Error)
		assert.True(t, res.Rejected())
	})

	t.Run("unreachable", func(t *testing.T) {
		res := NewClamAVScanner("127.0.0.1:1", 200*time.Millisecond).Scan(ctx, "sofa.png", bytes.NewReader(nil))
		assert.True(t, res.Rejected())
	})
}

func TestNoOpScanner(t *testing.T) {
	res := NewNoOpScanner().Scan(context.Background(), "a.png", bytes.NewReader(nil))
	assert.False(t, res.Rejected())
	assert.Equal(t, "noop", res.ScannerName)
}
