package antivirus

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// ClamAVScanner streams attachments to a clamd daemon with zINSTREAM
type ClamAVScanner struct {
	address string        // TCP address (host:port) or Unix socket path
	timeout time.Duration // Connection and scan timeout
}

var _ Scanner = (*ClamAVScanner)(nil)

// NewClamAVScanner creates a ClamAV scanner
// address: TCP "localhost:3310" or Unix socket "/var/run/clamav/clamd.sock"
func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ClamAVScanner{
		address: address,
		timeout: timeout,
	}
}

func (c *ClamAVScanner) Name() string {
	return "clamav"
}

func (c *ClamAVScanner) network() string {
	if strings.HasPrefix(c.address, "/") {
		return "unix"
	}
	return "tcp"
}

// Scan sends data in a single chunk. Any transport or daemon error is
// returned in the result and the caller drops the attachment.
func (c *ClamAVScanner) Scan(ctx context.Context, filename string, data io.Reader) ScanResult {
	result := ScanResult{ScannerName: c.Name()}

	payload, err := io.ReadAll(data)
	if err != nil {
		result.Error = fmt.Errorf("read %s: %w", filename, err)
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, c.network(), c.address)
	if err != nil {
		result.Error = fmt.Errorf("failed to connect to clamd: %w", err)
		return result
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// zINSTREAM, then <uint32 big-endian length><bytes>, then a zero-length chunk
	frame := make([]byte, 0, len(payload)+18)
	frame = append(frame, "zINSTREAM\x00"...)
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(payload)))
	frame = append(frame, payload...)
	frame = binary.BigEndian.AppendUint32(frame, 0)

	if _, err := conn.Write(frame); err != nil {
		result.Error = fmt.Errorf("failed to stream to clamd: %w", err)
		return result
	}

	reply, err := io.ReadAll(io.LimitReader(conn, 1024))
	if err != nil && len(reply) == 0 {
		result.Error = fmt.Errorf("failed to read clamd reply: %w", err)
		return result
	}

	// "stream: OK", "stream: Eicar-Signature FOUND" or "... ERROR"
	line := strings.TrimRight(strings.TrimSpace(string(reply)), "\x00")
	switch {
	case strings.HasSuffix(line, "FOUND"):
		result.Infected = true
		if _, threat, ok := strings.Cut(line, ":"); ok {
			result.ThreatName = strings.TrimSuffix(strings.TrimSpace(threat), " FOUND")
		}
	case strings.HasSuffix(line, "ERROR"):
		result.Error = fmt.Errorf("clamd error: %s", line)
	case !strings.HasSuffix(line, "OK"):
		result.Error = fmt.Errorf("unexpected clamd reply: %q", line)
	}
	return result
}
