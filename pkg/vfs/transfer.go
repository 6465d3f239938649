package vfs

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/pkg/fetch"
	"github.com/marmos91/hreffs/pkg/store/destination"
)

// GetFile downloads the entry remote ("/name") of the current listing to
// local on the destination.
//
// declaredSize is the size the host showed for the entry (0 if unknown);
// it drives the progress percentage. The destination is created on the
// first received chunk.
func (p *Plugin) GetFile(ctx context.Context, remote, local string, flags CopyFlags, declaredSize int64) FileResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.progress(remote, local, 0) {
		return FileUserAbort
	}

	if flags&CopyOverwrite == 0 {
		exists, err := p.dest.Exists(ctx, local)
		if err != nil {
			p.reportError(err)
			return FileWriteError
		}
		if exists {
			return FileExists
		}
	}

	entry, ok := p.lookup(ctx, strings.TrimPrefix(remote, "/"))
	if !ok {
		logger.Debug("GetFile: %s is not in the current listing", remote)
		return FileReadError
	}

	out := &lazyWriter{ctx: ctx, dest: p.dest, name: local}
	n, err := p.fetcher.Download(ctx, entry.URL, out, declaredSize, func(pr fetch.Progress) bool {
		return p.progress(entry.URL, local, pr.Percent)
	})

	switch {
	case errors.Is(err, fetch.ErrUserAbort):
		// The partial file stays where it is.
		if aerr := out.abandon(); aerr != nil {
			logger.Warn("Failed to release %s: %v", local, aerr)
		}
		logger.Info("Download of %s aborted by user after %d bytes", entry.URL, n)
		return FileUserAbort

	case err != nil:
		p.reportError(err)
		if aerr := out.abandon(); aerr != nil {
			logger.Warn("Failed to release %s: %v", local, aerr)
		}
		if errors.Is(err, fetch.ErrWrite) {
			return FileWriteError
		}
		return FileReadError
	}

	if err := out.Close(); err != nil {
		p.reportError(err)
		return FileWriteError
	}

	p.progress(remote, local, 100)

	exists, err := p.dest.Exists(ctx, local)
	if err != nil || !exists {
		if err != nil {
			p.reportError(err)
		}
		return FileWriteError
	}

	logger.Info("Downloaded %s -> %s (%d bytes)", entry.URL, local, n)
	return FileOK
}

// lazyWriter opens its destination on the first Write. A transfer that
// fails before any data arrives leaves nothing behind.
type lazyWriter struct {
	ctx  context.Context
	dest destination.Destination
	name string
	w    io.WriteCloser
}

func (l *lazyWriter) open() error {
	if l.w != nil {
		return nil
	}
	w, err := l.dest.Create(l.ctx, l.name)
	if err != nil {
		return err
	}
	l.w = w
	return nil
}

func (l *lazyWriter) Write(b []byte) (int, error) {
	if err := l.open(); err != nil {
		return 0, err
	}
	return l.w.Write(b)
}

// Close finishes the destination. A body with no data still produces an
// empty file.
func (l *lazyWriter) Close() error {
	if err := l.open(); err != nil {
		return err
	}
	return l.w.Close()
}

func (l *lazyWriter) abandon() error {
	if l.w == nil {
		return nil
	}
	return destination.Abandon(l.w)
}
