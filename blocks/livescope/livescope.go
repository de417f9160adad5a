// Package livescope provides a sink block that streams signal frames
// to a socket.io endpoint, typically a browser scope that plots them
// as they arrive.
package livescope

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/registry"
)

// Module registers the live scope block type.
type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.Register(&registry.Def{
		Type:      "LIVESCOPE",
		Kind:      diagram.KindSink,
		NewParams: func() any { p := DefaultScopeParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewScope(*a.Params.(*ScopeParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			return b, nil
		},
	})
}

// ScopeParams configures a LIVESCOPE block. One input per label.
// Every decimates the stream: with Every 5 only one cycle in five is
// emitted. On connect the block emits "<event>:labels" carrying the
// label list, then one <event> per emitted frame.
type ScopeParams struct {
	URL       string   `hcl:"url"`
	Labels    []string `hcl:"labels"`
	Namespace string   `hcl:"namespace,optional"`
	Event     string   `hcl:"event,optional"`
	Every     int      `hcl:"every,optional"`
	Timeout   string   `hcl:"timeout,optional"`
}

func DefaultScopeParams() ScopeParams {
	return ScopeParams{Namespace: "/", Event: "telemetry", Every: 1, Timeout: "10s"}
}

// Scope streams input frames to a socket.io server.
type Scope struct {
	diagram.BlockCore
	url     string
	ns      string
	event   string
	every   int
	timeout time.Duration
	labels  []string

	io    *socket.Socket
	cycle int
}

func NewScope(p ScopeParams) (*Scope, error) {
	if p.URL == "" {
		return nil, fmt.Errorf("livescope needs a url")
	}
	if len(p.Labels) == 0 {
		return nil, fmt.Errorf("livescope needs at least one label")
	}
	if p.Every < 1 {
		return nil, fmt.Errorf("livescope decimation must be at least 1, got %d", p.Every)
	}
	timeout, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return nil, fmt.Errorf("parsing livescope timeout: %w", err)
	}
	return &Scope{
		BlockCore: diagram.NewCore(diagram.KindSink, "LIVESCOPE", len(p.Labels), 0),
		url:       p.URL,
		ns:        p.Namespace,
		event:     p.Event,
		every:     p.Every,
		timeout:   timeout,
		labels:    p.Labels,
	}, nil
}

func (b *Scope) Start(ctx context.Context) error {
	parsed, err := url.Parse(b.url)
	if err != nil {
		return fmt.Errorf("parsing scope url: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	opts := socket.DefaultOptions()
	if parsed.Path != "" {
		opts.SetPath(parsed.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(b.ns, opts)

	connected := make(chan error, 1)
	var once sync.Once
	io.On(types.EventName("connect"), func(...any) {
		io.Emit(b.event+":labels", b.labels)
		once.Do(func() { connected <- nil })
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) == 0 {
			return
		}
		if err, ok := errs[0].(error); ok {
			select {
			case connected <- err:
			default:
			}
		}
	})

	io.Connect()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		io.Disconnect()
		return ctx.Err()
	case <-timer.C:
		io.Disconnect()
		return fmt.Errorf("timed out connecting to scope at %s", b.url)
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return fmt.Errorf("connecting to scope: %w", err)
		}
	}

	b.io = io
	return nil
}

func (b *Scope) Output(t float64) ([]float64, error) {
	return b.Out(), nil
}

func (b *Scope) Step() error {
	emit := b.cycle%b.every == 0
	b.cycle++
	if !emit {
		return nil
	}
	frame := make([]float64, b.NIn())
	copy(frame, b.Inputs())
	b.io.Emit(b.event, frame)
	return nil
}

func (b *Scope) Done() error {
	if b.io == nil {
		return nil
	}
	b.io.Disconnect()
	b.io = nil
	return nil
}
