package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"naskahlokal/internal/document/model"
	"naskahlokal/internal/editing"
	"naskahlokal/internal/session"
	"naskahlokal/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the page is served from anywhere during development
	CheckOrigin: func(r *http.Request) bool { return true },
}

const pingPeriod = 30 * time.Second

// Client is one open page. It owns the page's buffer and session.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	UserID  string
	Send    chan []byte
	Refresh chan struct{}
	Buffer  *editing.Buffer
	Session *session.Session

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// BufferState is pushed whenever the authoritative buffer changes.
type BufferState struct {
	editing.State
	Title string        `json:"title"`
	Ready bool          `json:"ready"`
	Stats editing.Stats `json:"stats"`
}

type DocumentList struct {
	Documents []model.DocumentMetadata `json:"documents"`
	Active    string                   `json:"active"`
}

type switchRequest struct {
	DocID string `json:"document_id"`
}

// Selection offsets on the wire, in EDIT, COMMAND and BUFFER, are UTF-16
// code units like a textarea reports them.
type commandRequest struct {
	editing.Command
	Start *int `json:"selectionStart,omitempty"`
	End   *int `json:"selectionEnd,omitempty"`
}

func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		UserID:  userID,
		Send:    make(chan []byte, 256),
		Refresh: make(chan struct{}, 1),
		Buffer:  editing.NewBuffer(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	client.Session = session.New(hub.docs, hub.prefs, client.Buffer, session.Options{
		Debounce: hub.debounce,
		Notifier: client,
	})

	if !hub.register(client) {
		cancel()
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Notify forwards session status messages to the page.
func (c *Client) Notify(st session.Status) {
	session.LogNotifier{}.Notify(st)
	c.push(StatusType, st.DocID, st)
}

func (c *Client) requestRefresh() {
	select {
	case c.Refresh <- struct{}{}:
	default:
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// push queues a message without blocking. A page too slow to drain its
// queue loses messages; the next BUFFER push resynchronizes it.
func (c *Client) push(msgType, docID string, v interface{}) {
	msg, err := encode(msgType, docID, v)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s message: %v", msgType, err)
		return
	}
	select {
	case c.Send <- msg:
	default:
		logger.Sugar.Warnf("Client %s's send buffer is full, dropping %s", c.UserID, msgType)
	}
}

func encode(msgType, docID string, v interface{}) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, DocID: docID, Payload: payload})
}

func (c *Client) bufferState() BufferState {
	st := c.Buffer.Snapshot()
	return BufferState{
		State: editing.ToUTF16(st),
		Title: c.Session.CurrentTitle(),
		Ready: c.Session.Ready(),
		Stats: editing.Count(st.Text),
	}
}

func (c *Client) documentList() DocumentList {
	docs := c.Session.Documents()
	list := DocumentList{Documents: make([]model.DocumentMetadata, 0, len(docs)), Active: c.Session.CurrentID()}
	for _, d := range docs {
		list.Documents = append(list.Documents, d.Metadata())
	}
	return list
}

func (c *Client) pushBuffer() {
	c.push(BufferType, c.Session.CurrentID(), c.bufferState())
}

func (c *Client) pushDocuments() {
	c.push(DocumentsType, c.Session.CurrentID(), c.documentList())
}

func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.Session.Close()
		c.Hub.unregister(c)
		c.close()
		c.Conn.Close()
		c.Hub.pages.Done()
	}()

	if err := c.Session.Start(c.ctx); err != nil {
		logger.Sugar.Errorf("Could not start session for user %s: %v", c.UserID, err)
	}
	c.pushDocuments()
	c.pushBuffer()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg WSMessage) {
	switch msg.Type {
	case EditType:
		var st editing.State
		if err := json.Unmarshal(msg.Payload, &st); err != nil {
			logger.Sugar.Warnf("Invalid %s payload: %v", msg.Type, err)
			return
		}
		applied := c.Session.Mutate(func() bool {
			before := c.Buffer.Text()
			c.Buffer.Replace(editing.FromUTF16(st))
			return c.Buffer.Text() != before
		})
		if !applied {
			// edits before the document is loaded are dropped
			c.pushBuffer()
		}

	case SaveType:
		c.Session.ScheduleSave()

	case SwitchType:
		var req switchRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil || req.DocID == "" {
			req.DocID = msg.DocID
		}
		if req.DocID == "" {
			return
		}
		if err := c.Session.SwitchDocument(c.ctx, req.DocID); err != nil {
			logger.Sugar.Errorf("Switch to %s failed: %v", req.DocID, err)
		}
		c.pushDocuments()
		c.pushBuffer()

	case CreateType:
		var req model.CreateDocRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			// treated as a blank title below
			logger.Sugar.Warnf("Invalid %s payload: %v", msg.Type, err)
		}
		if _, err := c.Session.CreateDocument(c.ctx, req.Title); err != nil {
			if errors.Is(err, session.ErrNoTitle) {
				return
			}
			logger.Sugar.Errorf("Create document failed: %v", err)
		}
		c.pushDocuments()
		c.pushBuffer()
		c.Hub.DocumentsChanged(c)

	case DeleteType:
		if err := c.Session.DeleteActiveDocument(c.ctx); err != nil {
			logger.Sugar.Errorf("Delete document failed: %v", err)
		}
		c.pushDocuments()
		c.pushBuffer()
		c.Hub.DocumentsChanged(c)

	case CommandType:
		c.runCommand(msg.Payload)

	default:
		logger.Sugar.Warnf("Unknown message type %q from user %s", msg.Type, c.UserID)
	}
}

func (c *Client) runCommand(raw json.RawMessage) {
	var req commandRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		logger.Sugar.Warnf("Invalid %s payload: %v", CommandType, err)
		return
	}
	op, err := req.Operation()
	if err != nil {
		c.Notify(session.Status{Kind: session.StatusError, Message: "Comando desconhecido."})
		return
	}

	var opErr error
	applied := c.Session.Mutate(func() bool {
		if req.Start != nil && req.End != nil {
			text := c.Buffer.Text()
			c.Buffer.SetSelection(editing.RuneOffset(text, *req.Start), editing.RuneOffset(text, *req.End))
		}
		changed, err := c.Buffer.Apply(op)
		opErr = err
		return changed
	})
	if applied {
		docID := c.Session.CurrentID()
		switch {
		case errors.Is(opErr, editing.ErrNotFound) && req.Name == editing.CmdReplaceAll:
			c.Notify(session.Status{Kind: session.StatusNoMatches, Message: "Nenhuma ocorrência encontrada.", DocID: docID})
		case errors.Is(opErr, editing.ErrNotFound):
			c.Notify(session.Status{Kind: session.StatusEndOfDocument, Message: "Fim do documento.", DocID: docID})
		case opErr != nil:
			c.Notify(session.Status{Kind: session.StatusError, Message: opErr.Error(), DocID: docID})
		case req.Name == editing.CmdReplaceAll:
			c.Notify(session.Status{Kind: session.StatusReplacedAll, Message: "Todas as ocorrências foram substituídas.", DocID: docID})
		}
	}
	c.pushBuffer()
}

// writePump is the only goroutine writing to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.Send:
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Conn.Close()
				return
			}
		case <-c.Refresh:
			if _, err := c.Session.RefreshDocuments(c.ctx); err != nil {
				logger.Sugar.Warnf("Could not refresh documents for user %s: %v", c.UserID, err)
				continue
			}
			msg, err := encode(DocumentsType, c.Session.CurrentID(), c.documentList())
			if err != nil {
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
