// Command auctionctl records, lists and prints auctions through the API and
// keeps working from the cached snapshot while the API is unreachable.
package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"auctionbook/internal/apperrors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describeError(err))
		stop()
		os.Exit(1)
	}
}

// describeError renders err for a terminal, listing field problems when
// present.
func describeError(err error) string {
	e := apperrors.As(err)
	if e == nil {
		return err.Error()
	}
	msg := e.Message
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		msg += fmt.Sprintf("\n  %s: %s", field, e.Fields[field])
	}
	if apperrors.Retryable(err) {
		msg += "\n  (temporary problem, try again)"
	}
	return msg
}
