// Command shmchan-create creates a named shmchan channel and relays it to
// stdin/stdout: each line read from stdin is pushed to the attacher, and
// each frame popped from the attacher is printed as a line. Pair it with
// shmchan-attach running the same -name in another terminal or process.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/behrlich/shmchan"
	"github.com/behrlich/shmchan/internal/logging"
)

func main() {
	var (
		name     = flag.String("name", "shmchan-demo", "channel name")
		capacity = flag.Uint("capacity", 65536, "ring capacity in bytes, each direction")
		verbose  = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	ch, err := shmchan.New(*name, shmchan.WithCapacity(uint32(*capacity)), shmchan.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create channel", "error", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Channel %q created, pid %d. Type lines to send; Ctrl+C to tear down.\n", *name, ch.SelfPID())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go relayStdinToChannel(ch, logger, done)
	go relayChannelToStdout(ch, logger)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case <-done:
		logger.Info("stdin closed")
	}

	if err := ch.Delete(); err != nil {
		logger.Error("error deleting channel", "error", err)
		os.Exit(1)
	}
	logger.Info("channel deleted")
}

func relayStdinToChannel(ch *shmchan.Channel, logger *logging.Logger, done chan<- struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := ch.Push(scanner.Bytes()); err != nil {
			if shmchan.IsCode(err, shmchan.CLOSED) {
				return
			}
			logger.Error("push failed", "error", err)
			return
		}
	}
}

func relayChannelToStdout(ch *shmchan.Channel, logger *logging.Logger) {
	for {
		received, err := ch.Pop()
		if err != nil {
			if shmchan.IsCode(err, shmchan.CLOSED) {
				return
			}
			logger.Error("pop failed", "error", err)
			return
		}
		fmt.Println(string(received.Bytes()))
		received.Commit()
	}
}
