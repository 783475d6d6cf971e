package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"

	"github.com/TimelordUK/novelreader/internal/config"
	"github.com/TimelordUK/novelreader/internal/loader"
	"github.com/TimelordUK/novelreader/internal/logging"
	"github.com/TimelordUK/novelreader/internal/protocol"
	"github.com/TimelordUK/novelreader/internal/reader"
	"github.com/TimelordUK/novelreader/internal/render"
	"github.com/TimelordUK/novelreader/internal/settings"
	"github.com/TimelordUK/novelreader/internal/ui"
)

var log = logging.GetLogger("cli")

func runLoad(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	encFlag := fs.String("e", "", "Encoding (default: sniffed, then "+e.cfg.Loader.DefaultEncoding+")")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := fs.Arg(0)
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		if path, err = ui.PickFile(wd); err != nil {
			return err
		}
	}

	res, err := loader.LoadFile(path, loader.OptionsFromConfig(e.cfg.Loader, *encFlag))
	if err != nil {
		return err
	}
	if err := loader.Push(ctx, e.client, res); err != nil {
		return err
	}

	how := "given"
	if res.Sniffed {
		how = "sniffed"
	}
	fmt.Printf("Loaded %s: %d lines, %s (%s), %s\n",
		res.Set.FileName(), res.Set.LineCount(), res.Encoding, how, res.Kind)
	return nil
}

func runRead(ctx context.Context, e *env, _ []string) error {
	r := reader.New(e.client, e.cfg.Keybindings.JumpSize)
	rend := render.NewRenderer(settings.Defaults())
	rend.SetDarkBackground(lipgloss.HasDarkBackground())

	model := ui.NewReaderModel(ctx, r, rend, ui.KeyMapFromConfig(e.cfg.Keybindings))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	unsubscribe := e.client.Subscribe(func(n protocol.Notification) {
		p.Send(ui.NotificationMsg(n))
	})
	defer unsubscribe()

	if err := e.client.Connect(ctx); err != nil {
		// the reader shows the failure and the subscription keeps re-dialling
		log.Warningf("connect: %s", err)
	}

	_, err := p.Run()
	return err
}

func runClear(ctx context.Context, e *env, _ []string) error {
	return e.client.ClearNovelSessionCache(ctx)
}

func runGet(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", commands["get"].usage)
	}
	var value json.RawMessage
	found, err := e.client.GetStorage(ctx, args[0], &value)
	if err != nil {
		return err
	}
	if !found {
		value = json.RawMessage("null")
	}
	fmt.Println(string(value))
	return nil
}

func runSet(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s", commands["set"].usage)
	}
	return e.client.SetStorage(ctx, args[0], parseValue(args[1]))
}

func runRemove(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", commands["rm"].usage)
	}
	return e.client.RemoveStorage(ctx, args[0])
}

func runLocale(ctx context.Context, e *env, args []string) error {
	switch len(args) {
	case 0:
		tag, err := e.client.GetCurrentLocale(ctx)
		if err != nil {
			return err
		}
		fmt.Println(tag)
		return nil
	case 1:
		return e.client.SetLocale(ctx, args[0])
	default:
		return fmt.Errorf("usage: %s", commands["locale"].usage)
	}
}

func runSettings(ctx context.Context, e *env, args []string) error {
	rec, err := settings.Load(ctx, e.client)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	font := fs.String("font", rec.FontFamily, "Font family")
	size := fs.Int("size", int(rec.FontSize), "Font size")
	lineHeight := fs.Float64("line-height", float64(rec.LineHeight), "Line height")
	color := fs.String("color", rec.TextColor, "Text colour")
	opacity := fs.Float64("opacity", rec.Opacity, "Opacity (0-1)")
	hoverOpacity := fs.Float64("hover-opacity", rec.HoverOpacity, "Opacity under the pointer (0-1)")
	shadow := fs.Bool("shadow", rec.TextShadow, "Text shadow")
	maxWidth := fs.Int("max-width", rec.MaxWidth, "Maximum width, percent of the screen")
	bg := fs.String("bg", rec.BackgroundColor, "Background colour")
	hoverBg := fs.String("hover-bg", rec.HoverBackgroundColor, "Background colour under the pointer")
	reset := fs.Bool("reset", false, "Restore defaults")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *reset {
		rec = settings.Defaults()
	}
	if fs.NFlag() > 0 && !*reset {
		rec = settings.Record{
			FontFamily:           *font,
			FontSize:             settings.FontSize(*size),
			LineHeight:           settings.LineHeight(*lineHeight),
			TextColor:            *color,
			Opacity:              *opacity,
			HoverOpacity:         *hoverOpacity,
			TextShadow:           *shadow,
			MaxWidth:             *maxWidth,
			BackgroundColor:      *bg,
			HoverBackgroundColor: *hoverBg,
		}
	}
	if fs.NFlag() > 0 {
		if err := settings.Save(ctx, e.client, rec); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runConfig(_ context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	initFlag := fs.Bool("init", false, "Write the effective config to the config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *initFlag {
		var err error
		if e.configPath == "" {
			err = config.Save(e.cfg)
		} else {
			err = config.SaveTo(e.cfg, e.configPath)
		}
		if err != nil {
			return err
		}
		path := e.configPath
		if path == "" {
			path = config.GetConfigPath()
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	}

	out, err := toml.Marshal(e.cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

// parseValue takes JSON as given and anything else as a string
func parseValue(arg string) json.RawMessage {
	if json.Valid([]byte(arg)) {
		return json.RawMessage(arg)
	}
	quoted, _ := json.Marshal(arg)
	return quoted
}
