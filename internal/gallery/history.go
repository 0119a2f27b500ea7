package gallery

import "github.com/mpoapostolis/galerra-game-server/pkg/wire"

// chatHistory is a bounded FIFO of the most recent chat messages,
// included in the snapshot sent to new joiners.
type chatHistory struct {
	cap  int
	msgs []wire.ChatMessage
}

func newChatHistory(capacity int) *chatHistory {
	return &chatHistory{cap: capacity}
}

func (h *chatHistory) Append(msg wire.ChatMessage) {
	h.msgs = append(h.msgs, msg)
	if len(h.msgs) > h.cap {
		h.msgs = h.msgs[len(h.msgs)-h.cap:]
	}
}

// Messages returns a copy in oldest-first order.
func (h *chatHistory) Messages() []wire.ChatMessage {
	if len(h.msgs) == 0 {
		return nil
	}
	out := make([]wire.ChatMessage, len(h.msgs))
	copy(out, h.msgs)
	return out
}
