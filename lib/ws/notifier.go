package ws

import "encoding/json"

// BlocksChangedMessage tells connected editor surfaces which blocks need a
// decoration refresh after an edit.
type BlocksChangedMessage struct {
	Type     string   `json:"type"`
	BlockIds []string `json:"blockIds"`
}

// Notifier publishes affected-block reports to every subscriber.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// BlocksChanged broadcasts the affected block ids. A nil or empty report
// is dropped.
func (n *Notifier) BlocksChanged(blockIds []string) {
	if n == nil || len(blockIds) == 0 {
		return
	}
	message, err := json.Marshal(BlocksChangedMessage{
		Type:     "blocksChanged",
		BlockIds: blockIds,
	})
	if err != nil {
		return
	}
	n.hub.Broadcast <- message
}
