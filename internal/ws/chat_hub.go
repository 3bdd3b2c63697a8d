package ws

import (
	"encoding/json"
	"sync"
)

// ChatRoom is one room per order, shared by its buyer and seller.
type ChatRoom struct {
	OrderID  uint
	BuyerID  uint
	SellerID uint
	clients  map[*Client]struct{}
	mu       sync.RWMutex
}

func NewChatRoom(orderID, buyerID, sellerID uint) *ChatRoom {
	return &ChatRoom{
		OrderID:  orderID,
		BuyerID:  buyerID,
		SellerID: sellerID,
		clients:  make(map[*Client]struct{}),
	}
}

func (r *ChatRoom) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

func (r *ChatRoom) Leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
}

func (r *ChatRoom) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast sends to everyone in the room except the sender.
func (r *ChatRoom) Broadcast(from *Client, payload interface{}) {
	data, _ := json.Marshal(payload)
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		if c != from {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// ChatHub holds order chat rooms by order ID.
type ChatHub struct {
	mu    sync.RWMutex
	rooms map[uint]*ChatRoom
}

func NewChatHub() *ChatHub {
	return &ChatHub{rooms: make(map[uint]*ChatRoom)}
}

func (h *ChatHub) GetOrCreateRoom(orderID, buyerID, sellerID uint) *ChatRoom {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[orderID]; ok {
		return r
	}
	r := NewChatRoom(orderID, buyerID, sellerID)
	h.rooms[orderID] = r
	return r
}

func (h *ChatHub) GetRoom(orderID uint) *ChatRoom {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[orderID]
}

func (h *ChatHub) RemoveRoom(orderID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, orderID)
}
