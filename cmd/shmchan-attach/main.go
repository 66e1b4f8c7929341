// Command shmchan-attach attaches to a named shmchan channel created by
// shmchan-create and relays it to stdin/stdout, symmetrically: each line
// from stdin is pushed to the creator, each popped frame is printed.
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
		name    = flag.String("name", "shmchan-demo", "channel name")
		verbose = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	ch, err := shmchan.Open(*name, shmchan.WithLogger(logger))
	if err != nil {
		logger.Error("failed to attach to channel", "name", *name, "error", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Attached to %q, peer pid %d. Type lines to send; Ctrl+C to detach.\n", *name, ch.PeerPID())

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

	if err := ch.Close(); err != nil {
		logger.Error("error closing channel", "error", err)
		os.Exit(1)
	}
	logger.Info("detached")
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
