package shmchan

import (
	"github.com/behrlich/shmchan/internal/constants"
	"github.com/behrlich/shmchan/internal/logging"
	"github.com/behrlich/shmchan/internal/wait"
)

// ChannelParams holds the configuration New and Open build from their
// Option arguments. Most callers should use the Option constructors below
// rather than building this directly.
type ChannelParams struct {
	// Ident is an opaque tag the creator stamps into the descriptor; Open
	// does not need to (and cannot) set it, since it's read from the
	// existing region.
	Ident uint32
	// NetCapacity and HostCapacity size the two rings, in payload bytes,
	// ignored by Open (which reads the capacities the creator already
	// stamped).
	NetCapacity, HostCapacity uint32

	logger         *logging.Logger
	metrics        *Metrics
	waiterOverride wait.Adapter
}

func defaultParams() ChannelParams {
	return ChannelParams{
		NetCapacity:  constants.DefaultCapacity,
		HostCapacity: constants.DefaultCapacity,
		logger:       logging.Default(),
		metrics:      NewMetrics(),
	}
}

// Option configures a Channel at New or Open time.
type Option func(*ChannelParams)

// WithIdent sets the creator-chosen opaque tag stamped into a new
// channel's descriptor. Has no effect on Open.
func WithIdent(ident uint32) Option {
	return func(p *ChannelParams) { p.Ident = ident }
}

// WithCapacity sets both ring capacities to the same value. Has no effect
// on Open.
func WithCapacity(capacity uint32) Option {
	return func(p *ChannelParams) {
		p.NetCapacity = capacity
		p.HostCapacity = capacity
	}
}

// WithNetCapacity sets the creator->attacher ring's capacity independently.
// Has no effect on Open.
func WithNetCapacity(capacity uint32) Option {
	return func(p *ChannelParams) { p.NetCapacity = capacity }
}

// WithHostCapacity sets the attacher->creator ring's capacity
// independently. Has no effect on Open.
func WithHostCapacity(capacity uint32) Option {
	return func(p *ChannelParams) { p.HostCapacity = capacity }
}

// WithLogger attaches a specific logger instead of the package default.
func WithLogger(l *logging.Logger) Option {
	return func(p *ChannelParams) { p.logger = l }
}

// WithMetrics attaches a specific Metrics instance instead of creating a
// fresh one.
func WithMetrics(m *Metrics) Option {
	return func(p *ChannelParams) { p.metrics = m }
}

// withWaiter overrides the wait.Adapter used for blocking operations;
// unexported because it only makes sense with the in-process Loopback
// helper in testing.go.
func withWaiter(w wait.Adapter) Option {
	return func(p *ChannelParams) { p.waiterOverride = w }
}
