package decorator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/programme-lv/arena/logger"
)

// P - params
type CmdHandler[P any] interface {
	Handle(ctx context.Context, p P) error
}

// Q - query, R - result
type QueryHandler[Q any, R any] interface {
	Handle(ctx context.Context, q Q) (R, error)
}

// ApplyCmdDecorators wraps handler with duration and outcome logging.
func ApplyCmdDecorators[P any](handler CmdHandler[P]) CmdHandler[P] {
	return cmdLoggingDecorator[P]{base: handler}
}

type cmdLoggingDecorator[P any] struct {
	base CmdHandler[P]
}

func (d cmdLoggingDecorator[P]) Handle(ctx context.Context, p P) (err error) {
	log := logger.FromContext(ctx).With("command", handlerName(d.base))
	start := time.Now()
	log.Debug("executing command", "params", fmt.Sprintf("%+v", p))
	defer func() {
		attrs := []any{"duration", time.Since(start)}
		if err != nil {
			log.Warn("command failed", append(attrs, "error", err)...)
			return
		}
		log.Info("command executed", attrs...)
	}()
	return d.base.Handle(ctx, p)
}

// ApplyQueryDecorators wraps handler with duration logging.
func ApplyQueryDecorators[Q any, R any](handler QueryHandler[Q, R]) QueryHandler[Q, R] {
	return queryLoggingDecorator[Q, R]{base: handler}
}

type queryLoggingDecorator[Q any, R any] struct {
	base QueryHandler[Q, R]
}

func (d queryLoggingDecorator[Q, R]) Handle(ctx context.Context, q Q) (res R, err error) {
	log := logger.FromContext(ctx).With("query", handlerName(d.base))
	start := time.Now()
	defer func() {
		if err != nil {
			log.Warn("query failed", "duration", time.Since(start), "error", err)
			return
		}
		log.Debug("query executed", "duration", time.Since(start))
	}()
	return d.base.Handle(ctx, q)
}

func handlerName(h any) string {
	name := fmt.Sprintf("%T", h)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "*")
}
