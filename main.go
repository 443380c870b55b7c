package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sanehaakhtar/localboard/internal/config"
	"github.com/sanehaakhtar/localboard/internal/interact"
	boardnet "github.com/sanehaakhtar/localboard/internal/net"
	"github.com/sanehaakhtar/localboard/internal/state"
	"github.com/sanehaakhtar/localboard/internal/ui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "localboard:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("localboard", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	listen := flags.String("listen", "", "relay listen address (overrides relay.listen)")
	logLevel := flags.String("log-level", "", "debug, info, warn or error (overrides log_level)")
	headless := flags.Bool("headless", false, "run only the relay, without a window")
	discover := flags.Bool("discover", false, "join the first relay found on the local network")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: localboard [flags] [localboard://host:port]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Relay.Listen = *listen
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := cfg.NewLogger()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := cfg.Client.URL
	if flags.NArg() > 0 {
		target = flags.Arg(0)
		if !boardnet.IsShareLink(target) {
			return fmt.Errorf("expected a %shost:port link, got %q", boardnet.LinkScheme, target)
		}
	}
	switch {
	case *headless:
		return runRelay(ctx, cfg, log)
	case *discover:
		found, err := boardnet.Browse(ctx, 3*time.Second)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return errors.New("no relay found on the local network")
		}
		log.Info("discovered relay", "addr", found[0], "found", len(found))
		return runParticipant(ctx, cfg, found[0], "", log)
	case target != "":
		return runParticipant(ctx, cfg, target, "", log)
	default:
		return runHost(ctx, cfg, log)
	}
}

// runRelay serves the relay, advertising it if configured, until ctx ends.
func runRelay(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	port, err := listenPort(cfg.Relay.Listen)
	if err != nil {
		return err
	}
	if cfg.Relay.Advertise {
		adv, err := boardnet.Advertise(port, log)
		if err != nil {
			log.Warn("mDNS advertisement unavailable", "err", err)
		} else {
			defer adv.Shutdown()
		}
	}
	relay := boardnet.NewRelay(boardnet.RelayOptions{
		AllowedOrigins: cfg.Relay.AllowedOrigins,
		SendBuffer:     cfg.Relay.SendBuffer,
	}, log)
	return boardnet.NewServer(cfg.Relay.Listen, relay, cfg.Relay.AllowedOrigins, log).ListenAndServe(ctx)
}

// runHost starts a relay in the background and joins it from a window.
func runHost(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	port, err := listenPort(cfg.Relay.Listen)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relayErr := make(chan error, 1)
	go func() { relayErr <- runRelay(ctx, cfg, log) }()

	link := boardnet.ShareLink(boardnet.GetOutgoingIP(), port)
	log.Info("hosting board", "link", link)
	err = runParticipant(ctx, cfg, net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), link, log)
	cancel()
	return errors.Join(err, <-relayErr)
}

// runParticipant opens the board window connected to the relay at target.
func runParticipant(ctx context.Context, cfg config.Config, target, shareLink string, log *slog.Logger) error {
	url, err := socketURL(target)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := ui.NewApp("LocalBoard", log)
	backoff := boardnet.Backoff{
		Attempts: cfg.Client.ReconnectAttempts,
		Delay:    cfg.Client.ReconnectDelay,
		MaxDelay: cfg.Client.ReconnectDelayMax,
	}
	client := boardnet.NewClient(url, backoff, nil, log)
	store := state.NewStore(client, log)
	client.SetReceiver(store)
	ctrl := interact.NewController(store, app.Clipboard(), state.UUIDs{}, interact.Options{
		MinSize:     cfg.Board.MinSize,
		PasteOffset: cfg.Board.PasteOffset,
	}, log)
	app.Mount(store, ctrl, shareLink)

	client.OnStatus = func(connected bool, err error) {
		switch {
		case connected:
			app.SetStatus("Connected to " + url)
		case errors.Is(err, boardnet.ErrReconnectExhausted):
			app.SetStatus("Relay unreachable, edits are no longer shared")
		case err != nil:
			app.SetStatus("Disconnected, retrying: " + err.Error())
		}
	}

	clientErr := make(chan error, 1)
	go func() { clientErr <- client.Run(ctx) }()
	closed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			app.Quit()
		case <-closed:
		}
	}()

	app.Run()
	close(closed)
	cancel()
	if err := <-clientErr; err != nil {
		log.Warn("relay connection ended", "err", err)
	}
	return nil
}

// socketURL accepts a share link, a host:port or a ws:// URL.
func socketURL(target string) (string, error) {
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		return target, nil
	}
	return boardnet.SocketURL(target)
}

func listenPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("relay.listen %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("relay.listen %q: invalid port", addr)
	}
	return port, nil
}
