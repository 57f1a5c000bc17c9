package http

import (
	"github.com/contriboost/chat-relay/internal/core"
	"github.com/contriboost/chat-relay/internal/proto"
)

func inboundToAction(inbound proto.Inbound) core.Action {
	return core.Action{
		Kind:      core.ParseActionKind(inbound.Action),
		MessageID: inbound.MessageID,
		Content:   inbound.Content,
	}
}

func outboundFromEvent(event *core.Event) any {
	switch event.Kind {
	case core.EventMessageDeleted:
		return proto.DeleteEvent{ID: event.Message.ID, Action: proto.ActionDelete}
	case core.EventMessageEdited:
		return messageEvent(event.Message, proto.ActionEdit)
	default:
		return messageEvent(event.Message, proto.ActionSend)
	}
}

func messageEvent(msg core.Message, action string) proto.MessageEvent {
	return proto.MessageEvent{
		ID:        msg.ID,
		Sender:    msg.Sender,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Edited:    msg.Edited,
		Action:    action,
	}
}

func historyFromMessages(room string, msgs []core.Message) proto.HistoryResponse {
	out := make([]proto.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, proto.Message{
			ID:        msg.ID,
			Sender:    msg.Sender,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Edited:    msg.Edited,
		})
	}
	return proto.HistoryResponse{ContractAddress: room, Messages: out}
}
