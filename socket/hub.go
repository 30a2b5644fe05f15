package socket

import (
	"encoding/json"
	"sync"
	"time"

	"naskahlokal/internal/session"
	"naskahlokal/pkg/logger"
)

const (
	EditType      = "EDIT"      // Buffer text and selection from the page
	SaveType      = "SAVE"      // Manual save request
	SwitchType    = "SWITCH"    // Activate another document
	CreateType    = "CREATE"    // Create a document and activate it
	DeleteType    = "DELETE"    // Delete the active document
	CommandType   = "COMMAND"   // Editing operation on the buffer
	BufferType    = "BUFFER"    // Authoritative buffer state
	StatusType    = "STATUS"    // Transient status message
	DocumentsType = "DOCUMENTS" // Document list
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub tracks connected pages. Each page owns its own session; the hub only
// tells pages when the shared document list changed under them.
type Hub struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	// Broadcast carries the page that changed the document list, or nil
	// when the change came from outside any page.
	Broadcast chan *Client

	docs     session.DocumentStore
	prefs    session.PreferenceStore
	debounce time.Duration

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	// pages counts registered pages whose readPump has not returned
	pages sync.WaitGroup
}

func NewHub(docs session.DocumentStore, prefs session.PreferenceStore, debounce time.Duration) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *Client),
		docs:       docs,
		prefs:      prefs,
		debounce:   debounce,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.pages.Add(1)
			h.clients[client] = true
			logger.Sugar.Debugf("Page connected for user %s (%d open)", client.UserID, len(h.clients))

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				logger.Sugar.Debugf("Page disconnected for user %s (%d open)", client.UserID, len(h.clients))
			}

		case origin := <-h.Broadcast:
			for client := range h.clients {
				if client != origin {
					client.requestRefresh()
				}
			}

		case <-h.quit:
			for client := range h.clients {
				client.Conn.Close()
			}
			h.clients = map[*Client]bool{}
			return
		}
	}
}

// Stop disconnects every page and waits until each page's session has
// closed, so saves already running finish before storage goes away.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
	h.pages.Wait()
}

// DocumentsChanged asks every page except origin to reload its list.
func (h *Hub) DocumentsChanged(origin *Client) {
	select {
	case h.Broadcast <- origin:
	case <-h.quit:
	}
}

func (h *Hub) register(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.quit:
	}
}
