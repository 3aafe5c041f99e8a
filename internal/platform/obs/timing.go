package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

// RunIDKey carries the build-run identifier so every timed operation in one
// build can be correlated in the logs.
const RunIDKey ctxKey = "run_id"

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// Time logs the duration of an operation when the returned func runs.
// Pass a pointer to the caller's named error to include failure in the line,
// or nil when the operation cannot fail.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	runID, _ := ctx.Value(RunIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("run_id=%s op=%s dur=%dms err=%v", runID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("run_id=%s op=%s dur=%dms", runID, name, dur.Milliseconds())
	}
}
