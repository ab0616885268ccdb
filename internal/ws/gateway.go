package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"skillscape-chat/internal/auth"
	"skillscape-chat/internal/observability"
)

// Gateway upgrades websocket connections, authenticates them once, and
// pumps inbound events into the relay.
type Gateway struct {
	hub    *Hub
	relay  *Relay
	issuer *auth.TokenIssuer
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, relay *Relay, issuer *auth.TokenIssuer) *Gateway {
	return &Gateway{hub: hub, relay: relay, issuer: issuer}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// well under the presence record TTL
const presenceRefreshInterval = time.Hour

// Handle authenticates and upgrades the connection. The credential may come
// from the Authorization header, a token query parameter, or the
// access_token cookie; a malformed header falls through to the other
// sources. No credential refuses the connection before any verification; a
// bad credential refuses with a distinct message that does not reveal
// whether the user exists.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("skillscape-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false, "statusCode": http.StatusUnauthorized, "message": "missing credentials",
		})
		return
	}

	userID, err := g.issuer.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false, "statusCode": http.StatusUnauthorized, "message": "invalid or expired token",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(uuid.NewString(), userID, conn)
	log.Printf("websocket connected conn_id=%s user_id=%d ip=%s request_id=%s",
		client.ConnID, userID, observability.IPFromRequest(c.Request), observability.RequestIDFromRequest(c.Request))
	g.hub.Register(client)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.relay.ClientConnected(ctx, client)

	go client.WritePump()
	go g.presenceLoop(client)
	go g.readLoop(client, conn)
}

// presenceLoop keeps the presence record alive for connections that outlive
// its TTL.
func (g *Gateway) presenceLoop(client *Client) {
	ticker := time.NewTicker(presenceRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-client.Done():
			return
		case <-ticker.C:
			g.relay.RefreshPresence(context.Background(), client)
		}
	}
}

func (g *Gateway) readLoop(client *Client, conn *websocket.Conn) {
	// Handler contexts die with the handshake request; connection work gets
	// its own lifetime.
	ctx := context.Background()
	defer func() {
		g.hub.Unregister(client)
		g.relay.ClientDisconnected(ctx, client)
		client.Close()
		conn.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read error conn_id=%s: %v", client.ConnID, err)
			}
			return
		}

		var event InboundEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			client.Enqueue(errorEvent("malformed event payload"))
			continue
		}
		g.dispatch(ctx, client, event)
	}
}

func (g *Gateway) dispatch(ctx context.Context, client *Client, event InboundEvent) {
	switch event.Event {
	case EventJoinChat:
		var ref ChatRef
		if !decodeData(client, event.Data, &ref) {
			return
		}
		g.relay.JoinChat(ctx, client, ref.ChatID)
	case EventLeaveChat:
		var ref ChatRef
		if !decodeData(client, event.Data, &ref) {
			return
		}
		g.relay.LeaveChat(client, ref.ChatID)
	case EventSendMessage:
		var payload SendMessagePayload
		if !decodeData(client, event.Data, &payload) {
			return
		}
		g.relay.SendMessage(ctx, client, payload.ChatID, payload.Content)
	case EventTyping:
		var ref ChatRef
		if !decodeData(client, event.Data, &ref) {
			return
		}
		g.relay.Typing(ctx, client, ref.ChatID, false)
	case EventStopTyping:
		var ref ChatRef
		if !decodeData(client, event.Data, &ref) {
			return
		}
		g.relay.Typing(ctx, client, ref.ChatID, true)
	default:
		client.Enqueue(errorEvent("unrecognized event"))
	}
}

func decodeData(client *Client, data json.RawMessage, dst any) bool {
	if err := json.Unmarshal(data, dst); err != nil {
		client.Enqueue(errorEvent("malformed event payload"))
		return false
	}
	return true
}

// bearerToken tries the Authorization header, the token query parameter and
// the access_token cookie, in that order. A malformed header does not block
// the other sources.
func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	if header := c.GetHeader("Authorization"); len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}
