// Package telemetry implements the msgpack stream protocol for per-cycle
// signal export: a version/role handshake record from each side, one
// labels record, then one flat value frame per cycle. The transport is
// any io.ReadWriter; pairing a Sender with a Receiver over a TCP
// connection is the expected arrangement.
package telemetry

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Version is the protocol version exchanged in the handshake.
const Version = "0.0.1"

// Peer roles carried in handshake records.
const (
	RoleSender   = "sender"
	RoleReceiver = "receiver"
)

// Hello is the handshake record each side sends first.
type Hello struct {
	Version string `msgpack:"version"`
	Role    string `msgpack:"type"`
}

// labelsRecord follows the sender's handshake and names the signals of
// every subsequent frame, in port order.
type labelsRecord struct {
	Version string   `msgpack:"version"`
	Role    string   `msgpack:"type"`
	Labels  []string `msgpack:"labels"`
}

// VersionError reports a handshake with an incompatible protocol version.
type VersionError struct {
	Got string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("telemetry protocol version mismatch: got %q, want %q", e.Got, Version)
}

// RoleError reports a handshake from an unexpected peer role.
type RoleError struct {
	Got  string
	Want string
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("telemetry peer is a %q, want a %q", e.Got, e.Want)
}

// Sender is the producing half. NewSender performs the handshake and
// sends the labels record; Send streams one frame per call.
type Sender struct {
	enc    *msgpack.Encoder
	labels []string
}

// NewSender handshakes with the receiving peer on rw and announces the
// frame labels. It blocks until the peer acknowledges.
func NewSender(rw io.ReadWriter, labels []string) (*Sender, error) {
	enc := msgpack.NewEncoder(rw)
	dec := msgpack.NewDecoder(rw)

	if err := enc.Encode(Hello{Version: Version, Role: RoleSender}); err != nil {
		return nil, fmt.Errorf("send hello: %w", err)
	}

	var ack Hello
	if err := dec.Decode(&ack); err != nil {
		return nil, fmt.Errorf("read handshake ack: %w", err)
	}
	if ack.Version != Version {
		return nil, &VersionError{Got: ack.Version}
	}
	if ack.Role != RoleReceiver {
		return nil, &RoleError{Got: ack.Role, Want: RoleReceiver}
	}

	if err := enc.Encode(labelsRecord{Version: Version, Role: RoleSender, Labels: labels}); err != nil {
		return nil, fmt.Errorf("send labels: %w", err)
	}

	return &Sender{enc: enc, labels: labels}, nil
}

// Labels returns the announced signal labels.
func (s *Sender) Labels() []string { return s.labels }

// Send streams one value frame. Values must be ordered like the labels.
func (s *Sender) Send(values []float64) error {
	return s.enc.Encode(values)
}

// Receiver is the consuming half. NewReceiver performs the handshake and
// reads the labels record; Next returns frames in order.
type Receiver struct {
	dec    *msgpack.Decoder
	labels []string
	frame  []float64
}

// NewReceiver handshakes with the sending peer on rw sequentially: read
// the sender's hello, acknowledge, read the labels record.
func NewReceiver(rw io.ReadWriter) (*Receiver, error) {
	dec := msgpack.NewDecoder(rw)
	enc := msgpack.NewEncoder(rw)

	var hello Hello
	if err := dec.Decode(&hello); err != nil {
		return nil, fmt.Errorf("read hello: %w", err)
	}
	if hello.Version != Version {
		return nil, &VersionError{Got: hello.Version}
	}
	if hello.Role != RoleSender {
		return nil, &RoleError{Got: hello.Role, Want: RoleSender}
	}

	if err := enc.Encode(Hello{Version: Version, Role: RoleReceiver}); err != nil {
		return nil, fmt.Errorf("send handshake ack: %w", err)
	}

	var labels labelsRecord
	if err := dec.Decode(&labels); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if labels.Version != Version {
		return nil, &VersionError{Got: labels.Version}
	}

	return &Receiver{dec: dec, labels: labels.Labels}, nil
}

// Labels returns the signal labels the sender announced.
func (r *Receiver) Labels() []string { return r.labels }

// Next blocks for the next value frame. The returned slice is reused
// between calls; copy it to keep it.
func (r *Receiver) Next() ([]float64, error) {
	r.frame = r.frame[:0]
	if err := r.dec.Decode(&r.frame); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return r.frame, nil
}
