// Command peersetd is a minimal runnable demonstration of a Peerset: it
// wires the engine up against the reference in-memory peerstore and a
// logging-only transport adapter, seeds a handful of demo peers, and runs
// until interrupted. It exists so the engine in package peerset is
// reachable as a program, not only as a library.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ortelius-network/peerset/peerset"
	"github.com/ortelius-network/peerset/peerstore"
	"github.com/ortelius-network/peerset/transport"
)

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(logrus.Infof)); err != nil {
		logrus.WithError(err).Warn("could not set GOMAXPROCS")
	}

	app := &cli.App{
		Name:  "peersetd",
		Usage: "run a single Peerset instance against an in-memory demo peerstore",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "protocol", Value: "demo/1", Usage: "notification protocol tag"},
			&cli.IntFlag{Name: "max-in", Value: 25, Usage: "inbound slot budget"},
			&cli.IntFlag{Name: "max-out", Value: 25, Usage: "outbound slot budget"},
			&cli.BoolFlag{Name: "reserved-only", Value: false},
			&cli.IntFlag{Name: "demo-peers", Value: 10, Usage: "number of random peers to seed into the demo peerstore"},
			&cli.StringFlag{Name: "metrics-addr", Value: "127.0.0.1:2112", Usage: "address to serve /metrics on"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("peersetd exited with an error")
	}
}

func run(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := peerstore.New()
	if err != nil {
		return fmt.Errorf("building peerstore: %w", err)
	}
	seedDemoPeers(store, c.Int("demo-peers"))

	gauge := peerset.NewConnectedGauge()
	ps := peerset.New(peerset.Config{
		Protocol:             c.String("protocol"),
		MaxIn:                c.Int("max-in"),
		MaxOut:               c.Int("max-out"),
		ReservedOnly:         c.Bool("reserved-only"),
		Connected:            gauge,
		Peerstore:            store,
		InboundRatePerSecond: 5,
		InboundBurst:         20,
	})

	adapter := transport.NewLoggingAdapter(c.String("protocol"))
	go transport.Pump(ctx, ps.Output(), adapter)
	go ps.Run(ctx)

	metricsAddr := c.String("metrics-addr")
	srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Warn("metrics server stopped")
		}
	}()

	logrus.WithField("metrics_addr", metricsAddr).Info("peersetd running, press ctrl-c to stop")
	reportStatus(ctx, ps, gauge)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// reportStatus logs a human-readable snapshot every few seconds until ctx
// is canceled.
func reportStatus(ctx context.Context, ps *peerset.Peerset, gauge *peerset.ConnectedGauge) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logrus.Infof(
				"num_in=%s num_out=%s connected=%s",
				humanize.Comma(int64(ps.NumIn())),
				humanize.Comma(int64(ps.NumOut())),
				humanize.Comma(gauge.Load()),
			)
		}
	}
}

func seedDemoPeers(store *peerstore.Store, count int) {
	for i := 0; i < count; i++ {
		var raw [32]byte
		if _, err := rand.Read(raw[:]); err != nil {
			logrus.WithError(err).Fatal("could not generate demo peer id")
		}
		peer := peerset.PeerIDFromBytes(raw[:])

		label := uuid.New().String()
		addr, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", 30000+i))
		if err != nil {
			logrus.WithError(err).Fatal("could not build demo multiaddr")
		}
		store.AddPeer(peer, addr)
		store.ReportPeer(peer, int32(i*10))
		logrus.WithField("peer", peer).WithField("label", label).Debug("seeded demo peer")
	}
}
