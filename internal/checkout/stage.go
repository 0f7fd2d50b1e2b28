package checkout

import (
	"context"
	"time"
)

// runStage exécute une étape avec son propre délai. Le contexte parent n'est
// utilisé que pour ses valeurs : une déconnexion du client n'interrompt pas l'étape.
func runStage[T any](ctx context.Context, name string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	stageCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(stageCtx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-stageCtx.Done():
		var zero T
		return zero, &StageTimeoutError{Stage: name, Timeout: timeout}
	}
}
