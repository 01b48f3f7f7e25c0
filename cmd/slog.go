package main

import (
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// newLogger builds the process logger once config (and .env) is loaded.
// "text" output is colourised by tint for local work, anything else is JSON.
// Source locations are attached at debug level.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	addSource := level <= slog.LevelDebug
	replace := sourceTrimmer(modulePrefix())

	if format == "text" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			AddSource:  addSource,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a = replace(groups, a)
				if err, ok := a.Value.Any().(error); ok {
					aErr := tint.Err(err)
					aErr.Key = a.Key
					return aErr
				}
				return a
			},
		}))
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   addSource,
		ReplaceAttr: replace,
	}))
}

// sourceTrimmer shortens source file paths to be relative to the module.
func sourceTrimmer(prefix string) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		if a.Key != slog.SourceKey {
			return a
		}
		if source, ok := a.Value.Any().(*slog.Source); ok {
			source.File = trimSourcePath(source.File, prefix)
		}
		return a
	}
}

// modulePrefix is "/<last module path element>/", e.g. "/storefront/".
func modulePrefix() string {
	path := "github.com/cardify/storefront"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
		path = info.Main.Path
	}
	return "/" + path[strings.LastIndex(path, "/")+1:] + "/"
}

func trimSourcePath(file, prefix string) string {
	if _, rest, ok := strings.Cut(file, prefix); ok {
		return rest
	}
	if idx := strings.LastIndex(file, "/src/"); idx != -1 {
		return file[idx+len("/src/"):]
	}
	return file
}
