package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"tacc/pkg/compiler"
)

// unit is one translated source file.
type unit struct {
	path string
	src  string
	res  *compiler.Result
}

// translateFile reads and translates one file as its own session. Every
// log record of the session carries the same session id.
func translateFile(log *slog.Logger, path string) (*unit, error) {
	log = log.With("session", uuid.NewString(), "file", path)

	src, err := os.ReadFile(path)
	if err != nil {
		log.Error("read failed", "error", err)
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	start := time.Now()
	log.Debug("translation started", "bytes", len(src))
	res, err := compiler.Translate(string(src))
	if err != nil {
		log.Error("translation failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info("translated",
		"instrs", res.Program.Len(),
		"labels", res.Labels,
		"temps", res.Temps,
		"frame", res.FrameSize,
		"duration", time.Since(start),
	)
	return &unit{path: path, src: string(src), res: res}, nil
}
