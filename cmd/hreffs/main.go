// Command hreffs browses HTML directory listings as a virtual file system.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/pkg/config"
	"github.com/marmos91/hreffs/pkg/listing"
	"github.com/marmos91/hreffs/pkg/vfs"
)

// Globals are the flags shared by every command.
type Globals struct {
	ConfigPath string `name:"config" short:"c" help:"Path to config file (default: $XDG_CONFIG_HOME/hreffs/config.yaml)" type:"path"`
	LogLevel   string `name:"log-level" help:"Override the configured log level (DEBUG, INFO, WARN, ERROR)"`
}

// CLI defines the command-line interface for hreffs.
var CLI struct {
	Globals

	Ls      LsCmd      `cmd:"" help:"List the entries of the current (or given) listing URL"`
	Cd      CdCmd      `cmd:"" help:"Change the current listing URL to a URL or a listed directory"`
	Get     GetCmd     `cmd:"" help:"Download an entry of the current listing"`
	Info    InfoCmd    `cmd:"" help:"Show the URL and extra text of an entry"`
	History HistoryCmd `cmd:"" help:"Print visited listing URLs, most recent first, or forget one"`
	Config  ConfigCmd  `cmd:"" help:"Configuration management"`
}

// session bundles a plugin with the process-wide context and teardown.
type session struct {
	ctx    context.Context
	plugin *vfs.Plugin
	close  func() error
}

// openSession loads configuration, configures logging and initializes a
// plugin instance.
func openSession(g *Globals) (*session, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = strings.ToUpper(g.LogLevel)
	}

	logCloser, err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	p, err := vfs.Open(ctx, cfg)
	if err != nil {
		stop()
		_ = logCloser.Close()
		return nil, err
	}

	err = p.Init(vfs.Callbacks{
		Progress: func(source, target string, percent int) bool {
			if percent > 0 {
				fmt.Fprintf(os.Stderr, "\r%3d%% %s", percent, filepath.Base(target))
			}
			// Ctrl-C cancels a running transfer.
			return ctx.Err() != nil
		},
		Log: func(msgType vfs.MessageType, text string) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", msgType, text)
		},
	})
	if err != nil {
		stop()
		_ = logCloser.Close()
		return nil, err
	}

	return &session{
		ctx:    ctx,
		plugin: p,
		close: func() error {
			defer stop()
			defer func() { _ = logCloser.Close() }()
			return p.Finalize()
		},
	}, nil
}

// LsCmd lists a listing page.
type LsCmd struct {
	URL   string `arg:"" optional:"" help:"Listing URL (default: the current URL)"`
	Probe bool   `help:"Ask the server for the size and date of every entry"`
}

func (c *LsCmd) Run(g *Globals) (err error) {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close()) }()

	if c.URL != "" {
		if res := s.plugin.ExecuteFile(s.ctx, "/", "quote cd "+c.URL); res != vfs.ExecOK {
			return fmt.Errorf("invalid listing URL %q", c.URL)
		}
	}
	if c.Probe && !s.plugin.Probing() {
		s.plugin.ExecuteFile(s.ctx, "/", "quote sizes")
	}

	h, fd, err := s.plugin.FindFirst(s.ctx, "/")
	if errors.Is(err, listing.ErrNotFound) {
		fmt.Printf("%s: no entries\n", s.plugin.CurrentURL())
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = s.plugin.FindClose(h) }()

	fmt.Println(s.plugin.CurrentURL())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for {
		printEntry(w, fd)
		fd, err = s.plugin.FindNext(h)
		if errors.Is(err, listing.ErrEndOfSequence) {
			break
		}
		if err != nil {
			return err
		}
	}
	if snap := s.plugin.Snapshot(); snap != nil && snap.Partial {
		fmt.Fprintln(w, "(listing incomplete: timed out)")
	}
	return w.Flush()
}

func printEntry(w *tabwriter.Writer, fd vfs.FindData) {
	kind, size := "-", humanize.IBytes(fd.Size)
	if fd.IsDir() {
		kind, size = "d", ""
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, size, fd.ModTime.Format("2006-01-02 15:04"), fd.Name)
}

// CdCmd changes the current listing URL.
type CdCmd struct {
	Target string `arg:"" help:"Absolute URL, or the name of a directory entry of the current listing"`
}

func (c *CdCmd) Run(g *Globals) (err error) {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close()) }()

	verb, remote := "quote cd "+c.Target, "/"
	if !strings.Contains(c.Target, "://") {
		verb, remote = "open", "/"+c.Target
	}

	switch s.plugin.ExecuteFile(s.ctx, remote, verb) {
	case vfs.ExecOK:
		fmt.Println(s.plugin.CurrentURL())
		return nil
	case vfs.ExecYourself:
		return fmt.Errorf("%s is a file, use get", c.Target)
	default:
		return fmt.Errorf("cannot change to %s", c.Target)
	}
}

// GetCmd downloads one entry.
type GetCmd struct {
	Name      string `arg:"" help:"Entry name as shown by ls"`
	Dest      string `arg:"" optional:"" help:"Destination name (default: the entry name)"`
	Overwrite bool   `short:"f" help:"Overwrite an existing destination"`
}

func (c *GetCmd) Run(g *Globals) (err error) {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close()) }()

	dest := c.Dest
	if dest == "" {
		dest = c.Name
	}

	var flags vfs.CopyFlags
	if c.Overwrite {
		flags |= vfs.CopyOverwrite
	}

	var declared int64
	if snap := s.plugin.Snapshot(); snap != nil {
		if e, ok := snap.Lookup(c.Name); ok {
			declared = int64(e.SizeOrZero())
		}
	}

	res := s.plugin.GetFile(s.ctx, "/"+c.Name, dest, flags, declared)
	fmt.Fprintln(os.Stderr)
	if res != vfs.FileOK {
		return fmt.Errorf("get %s: %s", c.Name, res)
	}
	return nil
}

// InfoCmd prints the content fields of one entry.
type InfoCmd struct {
	Name string `arg:"" help:"Entry name as shown by ls"`
}

func (c *InfoCmd) Run(g *Globals) (err error) {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close()) }()

	for i := 0; ; i++ {
		field, ft := s.plugin.ContentGetSupportedField(i)
		if ft == vfs.FieldNoMoreFields {
			return nil
		}
		value, vt := s.plugin.ContentGetValue(s.ctx, c.Name, i)
		if vt != vfs.FieldString {
			value = "-"
		}
		fmt.Printf("%s: %s\n", field, value)
	}
}

// HistoryCmd prints or prunes the visited listing URLs.
type HistoryCmd struct {
	Remove string `help:"Forget this URL and its cached listing instead of printing"`
}

func (c *HistoryCmd) Run(g *Globals) (err error) {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close()) }()

	if c.Remove != "" {
		return s.plugin.Forget(s.ctx, c.Remove)
	}

	cached, err := s.plugin.Cached(s.ctx)
	if err != nil {
		return err
	}
	isCached := make(map[string]bool, len(cached))
	for _, u := range cached {
		isCached[u] = true
	}

	for i, u := range s.plugin.Visited() {
		marker, note := " ", ""
		if i == 0 {
			marker = "*"
		}
		if isCached[u] {
			note = "  (cached)"
		}
		fmt.Printf("%s %s%s\n", marker, u, note)
	}
	return nil
}

// ConfigCmd groups configuration commands.
type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write a sample configuration file"`
	Path ConfigPathCmd `cmd:"" help:"Show where the configuration file is looked up"`
}

// ConfigPathCmd prints the configuration locations.
type ConfigPathCmd struct{}

func (c *ConfigPathCmd) Run(g *Globals) error {
	fmt.Printf("Config directory: %s\n", config.GetConfigDir())

	if g.ConfigPath != "" {
		fmt.Printf("Config file:      %s (--config)\n", g.ConfigPath)
		return nil
	}

	status := "not found, built-in defaults in use"
	if config.ConfigExists() {
		status = "found"
	}
	fmt.Printf("Config file:      %s (%s)\n", config.GetDefaultConfigPath(), status)
	return nil
}

// ConfigInitCmd writes a sample configuration file.
type ConfigInitCmd struct {
	Force bool   `short:"f" help:"Overwrite an existing file"`
	Path  string `help:"Write to this path instead of the default location" type:"path"`
}

func (c *ConfigInitCmd) Run(g *Globals) error {
	path := c.Path
	if path == "" {
		path = g.ConfigPath
	}

	if path != "" {
		if err := config.InitConfigToPath(path, c.Force); err != nil {
			return err
		}
	} else {
		var err error
		if path, err = config.InitConfig(c.Force); err != nil {
			return err
		}
	}

	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("hreffs"),
		kong.Description("Hypertext REFerence - browse HTML directory listings as a file system"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
