package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"lifestock/internal/app"
)

// dispatcherSub adapts a Nakama match dispatcher to the store's outbound
// subscription. The match handler manages membership itself, so only the
// snapshot broadcast is needed.
type dispatcherSub struct {
	dispatcher runtime.MatchDispatcher
}

func (d *dispatcherSub) Send(ctx context.Context, event string, payload any) error {
	if event != app.EventStateUpdate {
		return fmt.Errorf("unsupported outbound event: %s", event)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return d.dispatcher.BroadcastMessage(OpStateUpdate, data, nil, nil, true)
}

func (d *dispatcherSub) Close() error { return nil }
