package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TimelordUK/novelreader/internal/config"
	"github.com/TimelordUK/novelreader/internal/loader"
	"github.com/TimelordUK/novelreader/internal/logging"
	"github.com/TimelordUK/novelreader/internal/rpc"
)

type command struct {
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

// env is what every subcommand gets
type env struct {
	cfg        *config.Config
	configPath string // empty means the default location
	client     *rpc.Client
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"load":     {"load [-e encoding] [file]", runLoad},
		"read":     {"read", runRead},
		"clear":    {"clear", runClear},
		"get":      {"get <key>", runGet},
		"set":      {"set <key> <json>", runSet},
		"rm":       {"rm <key>", runRemove},
		"locale":   {"locale [tag]", runLocale},
		"settings": {"settings [-font name] [-size n] [-color c] ... [-reset]", runSettings},
		"config":   {"config [-init]", runConfig},
	}
}

var order = []string{"load", "read", "clear", "get", "set", "rm", "locale", "settings", "config"}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: novelreader [-config file] [-ws url] [-v n] [-log file] <command> [args]\n\nCommands:\n")
	for _, name := range order {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

func main() {
	configFlag := flag.String("config", "", "Config file (default "+config.GetConfigPath()+")")
	wsFlag := flag.String("ws", "", "Reach the daemon over a websocket URL instead of its socket")
	verboseFlag := flag.Int("v", 0, "Log verbosity (0-5)")
	logFlag := flag.String("log", "", "Log file (default stderr, or a temp file for read)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	name := flag.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", name)
		usage()
		os.Exit(1)
	}

	logPath := *logFlag
	if logPath == "" && name == "read" {
		// stderr belongs to the terminal UI
		logPath = logging.DefaultPath()
	}
	if err := logging.Configure(*verboseFlag, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	client := newClient(cfg, *wsFlag)

	err = cmd.run(ctx, &env{cfg: cfg, configPath: *configFlag, client: client}, flag.Args()[1:])
	client.Close()
	stop()

	if err != nil {
		if errors.Is(err, loader.ErrCancelled) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func newClient(cfg *config.Config, wsURL string) *rpc.Client {
	if wsURL != "" {
		return rpc.NewClient(rpc.WebsocketDialer(wsURL), rpc.PolicyFromConfig(cfg.Retry))
	}
	return rpc.NewClientFromConfig(cfg)
}
