package ingest

import "context"

// Pump forwards every message from source into reducer until source's
// channel closes, a Done envelope arrives, or ctx is cancelled, then
// shuts the reducer down. This is the glue between the external Source
// collaborator (§6) and the reducer's own ingest channel.
func Pump(ctx context.Context, source Source, reducer *Reducer) {
	defer reducer.Shutdown()

	for {
		select {
		case env, ok := <-source.Messages():
			if !ok || env.Done() {
				return
			}
			reducer.PushGeyser(env.Message)
		case <-ctx.Done():
			return
		}
	}
}
