package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fieo/orgregistry/pkg/constants"
)

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the logger from the context.
// Without one, the standard logrus logger is returned.
func UseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok && logger != nil {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
