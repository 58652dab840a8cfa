// Package transport defines the contract a transport adapter must satisfy
// to drive a peerset.Peerset, plus a logging-only stub implementation
// suitable for demos and for wiring a Peerset up without a real
// network underneath it.
package transport

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ortelius-network/peerset/peerset"
)

// Adapter executes the notification commands a Peerset emits. A real
// implementation would open/close libp2p substreams and call the five
// ReportXxx methods on the owning Peerset as the transport observes
// substream lifecycle events; see peerset.Peerset's event-ingress methods.
type Adapter interface {
	Execute(ctx context.Context, cmd peerset.NotificationCommand) error
}

// LoggingAdapter just logs every command it is asked to execute. It never
// calls back into the Peerset: there is no real substream lifecycle to
// report on.
type LoggingAdapter struct {
	log *logrus.Entry
}

// NewLoggingAdapter returns an Adapter that logs at Info level, tagged
// with the given protocol name.
func NewLoggingAdapter(protocol string) *LoggingAdapter {
	return &LoggingAdapter{log: logrus.WithField("protocol", protocol).WithField("component", "transport")}
}

// Execute implements Adapter.
func (a *LoggingAdapter) Execute(_ context.Context, cmd peerset.NotificationCommand) error {
	switch c := cmd.(type) {
	case *peerset.OpenSubstreamCommand:
		a.log.WithField("peers", c.Peers).Info("open substream")
	case *peerset.CloseSubstreamCommand:
		a.log.WithField("peers", c.Peers).Info("close substream")
	default:
		a.log.WithField("command", cmd).Warn("unknown notification command")
	}
	return nil
}

// Pump reads from out until it closes or ctx is canceled, handing every
// command to adapter. It is the small glue loop cmd/peersetd and tests use
// to drive a Peerset end to end.
func Pump(ctx context.Context, out <-chan peerset.NotificationCommand, adapter Adapter) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-out:
			if !ok {
				return
			}
			if err := adapter.Execute(ctx, cmd); err != nil {
				logrus.WithError(err).Warn("transport adapter execution failed")
			}
		}
	}
}
