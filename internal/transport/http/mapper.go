package http

import (
	"github.com/vovakirdan/wirerelay-server/internal/core"
	"github.com/vovakirdan/wirerelay-server/internal/proto"
	"github.com/vovakirdan/wirerelay-server/internal/store"
)

// outboundsFromEvent renders a core event as wire frames. A replay batch
// expands into one message frame per record, oldest first, so clients handle
// replayed history exactly like live traffic.
func outboundsFromEvent(event *core.Event) []proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return []proto.Outbound{messageOutbound(event.Message)}

	case core.EventDeleted:
		return []proto.Outbound{{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameDeleted,
			Data:  proto.EventDeleted{ID: event.Deleted},
		}}

	case core.EventReplay:
		outbounds := make([]proto.Outbound, 0, len(event.Messages))
		for _, msg := range event.Messages {
			outbounds = append(outbounds, messageOutbound(msg))
		}
		return outbounds

	default:
		return nil
	}
}

func messageOutbound(msg *store.Message) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventNameMessage,
		Data: proto.EventMessage{
			ID:   msg.ID,
			User: msg.Author,
			Text: msg.Content,
			TS:   msg.CreatedAt.Unix(),
		},
	}
}
