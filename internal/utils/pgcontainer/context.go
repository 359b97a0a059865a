package pgcontainer

import (
	"context"
	"time"
)

const defaultTestTimeout = 5 * time.Second

func contextWithTestTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultTestTimeout)
}
