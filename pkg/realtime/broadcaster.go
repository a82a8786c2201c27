package realtime

import (
	"context"
	"encoding/json"

	"github.com/avelasquez/taskflow-backend/pkg/logger"
)

// publisher is the redis surface the broadcaster needs.
type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	ChannelKey(parts ...string) string
}

// PostEvent is the fire-and-forget payload pushed to board subscribers when a
// post's visible fields change.
type PostEvent struct {
	PostID  int64  `json:"post_id"`
	BoardID int64  `json:"board_id"`
	ActorID int64  `json:"actor_id"`
	Action  string `json:"action"`
}

// Broadcaster publishes post change events over redis pub/sub. Delivery is
// best-effort: failures are logged and swallowed, never returned.
type Broadcaster struct {
	pub  publisher
	logg *logger.Logger
}

func NewBroadcaster(pub publisher, logg *logger.Logger) *Broadcaster {
	return &Broadcaster{pub: pub, logg: logg}
}

// PostChanged announces a post mutation to the board's channel.
func (b *Broadcaster) PostChanged(ctx context.Context, event PostEvent) {
	if b == nil || b.pub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if b.logg != nil {
			b.logg.Error(ctx, "marshal post event", err)
		}
		return
	}
	channel := b.pub.ChannelKey("boards", "events")
	if err := b.pub.Publish(ctx, channel, payload); err != nil && b.logg != nil {
		b.logg.Error(ctx, "broadcast post event", err)
	}
}
