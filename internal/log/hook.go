// Package log contains the logrus hooks selected with --log-output.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

// AsyncHook extends the logrus.Hook functionality
// handling logging asynchronously.
type AsyncHook interface {
	logrus.Hook

	// Listen flushes buffered lines until ctx is done, then drains and
	// releases whatever the hook writes to. It blocks.
	Listen(ctx context.Context)
}
