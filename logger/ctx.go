package logger

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
)

func FromCtx(ctx context.Context) Logger {
	return logger.FromCtx(ctx)
}

func CtxWithLogger(ctx context.Context, l Logger) context.Context {
	return logger.CtxWithLogger(ctx, l)
}

// NewLogrus returns a logrus-backed logger of the given level and makes it
// the default one, so that contexts without a logger log too.
func NewLogrus(level Level) Logger {
	l := logrus.Default().WithLevel(level)
	logger.Default = func() logger.Logger {
		return l
	}
	return l
}
