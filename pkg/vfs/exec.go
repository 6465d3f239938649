package vfs

import (
	"context"
	"net/url"
	"strings"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/pkg/config"
)

// ExecuteFile runs verb on remote.
//
// Supported verbs:
//   - "open": a container entry becomes the current URL (ExecOK); a file
//     is left to the host (ExecYourself)
//   - "quote sizes": toggles per-entry HEAD probing
//   - "quote cd <url>": makes <url> the current URL
//   - "quote set <key> <value>": changes a listing, transfer or probe
//     setting for the rest of the session
func (p *Plugin) ExecuteFile(ctx context.Context, remote, verb string) ExecResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case verb == "open":
		entry, ok := p.lookup(ctx, strings.TrimPrefix(remote, "/"))
		if !ok {
			return ExecError
		}
		if !entry.IsContainer {
			return ExecYourself
		}
		p.setURL(entry.URL)
		return ExecOK

	case strings.HasPrefix(verb, "quote "):
		return p.quote(strings.TrimSpace(strings.TrimPrefix(verb, "quote ")))
	}

	logger.Debug("ExecuteFile: unsupported verb %q on %s", verb, remote)
	return ExecError
}

func (p *Plugin) quote(command string) ExecResult {
	name, arg, _ := strings.Cut(command, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "sizes":
		p.probe = !p.probe
		logger.Info("Size probing: %v", p.probe)
		return ExecOK

	case "cd":
		u, err := url.Parse(arg)
		if err != nil || !u.IsAbs() || u.Host == "" {
			p.log(MsgImportantError, "quote cd: not an absolute URL: "+arg)
			logger.Error("quote cd: not an absolute URL: %q", arg)
			return ExecError
		}
		p.setURL(u.String())
		return ExecOK

	case "set":
		key, value, _ := strings.Cut(arg, " ")
		if err := config.Set(p.cfg, key, value); err != nil {
			p.log(MsgImportantError, "quote set: "+err.Error())
			logger.Error("quote set: %v", err)
			return ExecError
		}
		p.applySettings()
		if strings.EqualFold(strings.TrimSpace(key), "listing.probe_sizes") {
			p.probe = p.cfg.Listing.ProbeSizes
		}
		logger.Info("Setting %s = %q", key, strings.TrimSpace(value))
		return ExecOK
	}

	logger.Debug("Unknown quote command %q", command)
	return ExecError
}

// applySettings pushes the current configuration into the fetcher and
// resolver. It runs between calls, never during a transfer.
func (p *Plugin) applySettings() {
	p.fetcher.SetOptions(config.FetchOptions(p.cfg))
	p.fetcher.SetProbeLimiter(config.ProbeLimiter(p.cfg))
	p.resolver.SetTimeout(p.cfg.Transfer.Timeout)
	p.resolver.SetPredicates(config.Predicates(p.cfg))
}
