package main

import (
	"cmp"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sagarc03/shelf/config"
	"github.com/sagarc03/shelf/database"
)

// newLogHandler writes JSON in prod and colored text in dev. Every record is
// tagged with the storage root and journal backend it was served from.
func newLogHandler(w io.Writer, cfg *config.Config) slog.Handler {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	var h slog.Handler
	if cfg.Env == "prod" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, ReplaceAttr: utcTimestamp})
	} else {
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  level == slog.LevelDebug,
			TimeFormat: "15:04:05.000",
		})
	}

	return h.WithAttrs([]slog.Attr{
		slog.String("storage", cfg.Storage.Path),
		slog.String("journal", cmp.Or(cfg.Journal.Type, database.TypeNone)),
	})
}

func utcTimestamp(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}

// setupLogging installs the handler as the slog default and routes the
// standard logger, used by net/http for connection errors, through it.
func setupLogging(cfg *config.Config) {
	h := newLogHandler(os.Stdout, cfg)
	slog.SetDefault(slog.New(h))

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(h, slog.LevelWarn).Writer())
}
