// Package data provides blocks that move signal frames between
// processes over TCP using the msgpack telemetry protocol: a sender
// sink and a receiver source. A receiver block paces its diagram to
// the sender's cycle rate, which is how a low-power target offloads
// logging and supervision to a second machine.
package data

import (
	"context"
	"fmt"
	"net"

	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/registry"
	"github.com/gridloop/gridloop/internal/telemetry"
)

// Module registers the telemetry block types.
type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.Register(&registry.Def{
		Type:      "DATASENDER",
		Kind:      diagram.KindSink,
		NewParams: func() any { return &SenderParams{} },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewSender(*a.Params.(*SenderParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:      "DATARECEIVER",
		Kind:      diagram.KindSource,
		NewParams: func() any { return &ReceiverParams{} },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewReceiver(*a.Params.(*ReceiverParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			return b, nil
		},
	})
}

// SenderParams configures a DATASENDER block. One input per label.
type SenderParams struct {
	Addr   string   `hcl:"addr"`
	Labels []string `hcl:"labels"`
}

// Sender streams its input values to a receiver once per cycle.
type Sender struct {
	diagram.BlockCore
	addr   string
	labels []string
	conn   net.Conn
	enc    *telemetry.Sender
}

func NewSender(p SenderParams) (*Sender, error) {
	if p.Addr == "" {
		return nil, fmt.Errorf("datasender needs an addr")
	}
	if len(p.Labels) == 0 {
		return nil, fmt.Errorf("datasender needs at least one label")
	}
	return &Sender{
		BlockCore: diagram.NewCore(diagram.KindSink, "DATASENDER", len(p.Labels), 0),
		addr:      p.Addr,
		labels:    p.Labels,
	}, nil
}

func (b *Sender) Start(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", b.addr)
	if err != nil {
		return fmt.Errorf("connecting to receiver: %w", err)
	}
	enc, err := telemetry.NewSender(conn, b.labels)
	if err != nil {
		conn.Close()
		return err
	}
	b.conn, b.enc = conn, enc
	return nil
}

func (b *Sender) Output(t float64) ([]float64, error) {
	return b.Out(), nil
}

func (b *Sender) Step() error {
	return b.enc.Send(b.Inputs())
}

func (b *Sender) Done() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

// ReceiverParams configures a DATARECEIVER block. With Listen set the
// block waits for the sender to connect; otherwise it dials out. Nout
// must match the number of labels the sender announces.
type ReceiverParams struct {
	Addr   string `hcl:"addr"`
	Listen bool   `hcl:"listen,optional"`
	Nout   int    `hcl:"nout"`
}

// Receiver emits frames read from a sender. Reads block, so the
// diagram cycles in lockstep with the remote sender.
type Receiver struct {
	diagram.BlockCore
	addr   string
	listen bool
	conn   net.Conn
	dec    *telemetry.Receiver
}

func NewReceiver(p ReceiverParams) (*Receiver, error) {
	if p.Addr == "" {
		return nil, fmt.Errorf("datareceiver needs an addr")
	}
	if p.Nout < 1 {
		return nil, fmt.Errorf("datareceiver needs at least one output, got %d", p.Nout)
	}
	return &Receiver{
		BlockCore: diagram.NewCore(diagram.KindSource, "DATARECEIVER", 0, p.Nout),
		addr:      p.Addr,
		listen:    p.Listen,
	}, nil
}

func (b *Receiver) Start(ctx context.Context) error {
	conn, err := b.connect(ctx)
	if err != nil {
		return err
	}
	dec, err := telemetry.NewReceiver(conn)
	if err != nil {
		conn.Close()
		return err
	}
	if n := len(dec.Labels()); n != b.NOut() {
		conn.Close()
		return fmt.Errorf("sender announces %d signals, want %d", n, b.NOut())
	}
	b.conn, b.dec = conn, dec
	return nil
}

func (b *Receiver) connect(ctx context.Context) (net.Conn, error) {
	if !b.listen {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", b.addr)
		if err != nil {
			return nil, fmt.Errorf("connecting to sender: %w", err)
		}
		return conn, nil
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", b.addr)
	if err != nil {
		return nil, fmt.Errorf("listening for sender: %w", err)
	}
	accepted := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-accepted:
		}
	}()
	conn, err := ln.Accept()
	close(accepted)
	ln.Close()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("waiting for sender: %w", err)
	}
	return conn, nil
}

// Labels reports the signal names announced by the sender. Empty
// before Start.
func (b *Receiver) Labels() []string {
	if b.dec == nil {
		return nil
	}
	return b.dec.Labels()
}

func (b *Receiver) Output(t float64) ([]float64, error) {
	frame, err := b.dec.Next()
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	if len(frame) != b.NOut() {
		return nil, fmt.Errorf("frame carries %d values, want %d", len(frame), b.NOut())
	}
	out := b.Out()
	copy(out, frame)
	return out, nil
}

func (b *Receiver) Done() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}
