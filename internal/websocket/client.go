package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must stay below pongWait
	maxMessageSize = 4 * 1024            // consoles only send control frames
	sendBuffer     = 64                  // events queued per console before drops
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The console is served from another origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one console session subscribed to the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// Authenticated console user
	UserID string
}

// ServeWs upgrades an authenticated request and subscribes it to the hub.
// The upgrader has already answered the request when it fails.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ WS upgrade for %s failed: %v", userID, err)
		return
	}

	c := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), UserID: userID}
	if !hub.subscribe(c) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go c.deliver()
	go c.watch()
}

// watch keeps the read deadline alive via pongs and unsubscribes the client
// once the peer goes away. Inbound payloads are discarded.
func (c *Client) watch() {
	defer func() {
		c.hub.unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ WS %s: %v", c.UserID, err)
			}
			return
		}
	}
}

// deliver writes queued events and periodic pings until the hub closes send
func (c *Client) deliver() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
