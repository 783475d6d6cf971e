package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/TimelordUK/novelreader/internal/config"
	"github.com/TimelordUK/novelreader/internal/locale"
	"github.com/TimelordUK/novelreader/internal/logging"
	"github.com/TimelordUK/novelreader/internal/rpc"
	"github.com/TimelordUK/novelreader/internal/session"
	"github.com/TimelordUK/novelreader/internal/store"
)

var log = logging.GetLogger("daemon")

func main() {
	configFlag := flag.String("config", "", "Config file (default "+config.GetConfigPath()+")")
	verboseFlag := flag.Int("v", 1, "Log verbosity (0-5)")
	logFlag := flag.String("log", "", "Log file (default stderr)")
	addrFlag := flag.String("addr", "", "Override daemon address")
	wsFlag := flag.String("ws", "", "Override websocket listen address")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: novelreaderd [-config file] [-v n] [-log file] [-addr address] [-ws host:port]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := logging.Configure(*verboseFlag, *logFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Daemon.Address = *addrFlag
	}
	if *wsFlag != "" {
		cfg.Daemon.WebsocketAddress = *wsFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	st := store.NewSQLite(cfg.Daemon.StorePath)
	defer st.Close()

	locales, err := locale.NewNegotiator(cfg.Locale.Supported, cfg.Locale.Default)
	if err != nil {
		return err
	}

	hub := rpc.NewHub()
	hub.SetTimeout(cfg.Daemon.BroadcastTimeout.Duration)
	cache := session.NewCache(hub)
	// a fresh process starts with nothing cached
	cache.Reset()

	d := rpc.NewDispatcher(st, cache, hub, locales)
	srv := rpc.NewServer(d, hub)
	defer srv.Close()

	l, err := listen(cfg.Daemon.Network, cfg.Daemon.Address)
	if err != nil {
		return err
	}

	var wl net.Listener
	if cfg.Daemon.WebsocketAddress != "" {
		if wl, err = net.Listen("tcp", cfg.Daemon.WebsocketAddress); err != nil {
			l.Close()
			return fmt.Errorf("websocket listen: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx, l)
	})
	if wl != nil {
		g.Go(func() error {
			return srv.ServeWebsocket(ctx, wl)
		})
	}

	g.Go(func() error {
		recycle(ctx, cache)
		return nil
	})

	log.Noticef("novelreaderd ready, store %s", st.Path())
	log.Infof("serving %s", strings.Join(d.Actions(), ", "))
	err = g.Wait()
	log.Notice("shutting down")
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// recycle treats SIGHUP as a process restart for the session cache
func recycle(ctx context.Context, cache *session.Cache) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			log.Notice("SIGHUP: resetting session cache")
			cache.Reset()
		}
	}
}

// listen opens the daemon socket, replacing a stale unix socket file
func listen(network, address string) (net.Listener, error) {
	if network == "unix" {
		if err := os.MkdirAll(filepath.Dir(address), 0700); err != nil {
			return nil, err
		}
		if c, err := net.Dial("unix", address); err == nil {
			c.Close()
			return nil, fmt.Errorf("%s: another daemon is already listening", address)
		}
		if err := os.Remove(address); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	l, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return l, nil
}
