package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/quizbattle/internal/service/roomengine"
	ws "github.com/yourusername/quizbattle/internal/websocket"
	"github.com/yourusername/quizbattle/pkg/auth"
)

// WSHandler upgrades and serves the bidirectional socket from spec.md §6:
// "/ws/{pin}/{player_id}?token=<player_token>". Grounded on this repo's
// existing ws_handler.go upgrader/ticket-auth conventions, trimmed of the
// quiz-subscription registration this repo's WSManager does.
type WSHandler struct {
	hub      *ws.Hub
	registry *roomengine.Registry
	tokens   *auth.TokenService
}

func NewWSHandler(hub *ws.Hub, registry *roomengine.Registry, tokens *auth.TokenService) *WSHandler {
	return &WSHandler{hub: hub, registry: registry, tokens: tokens}
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin allowlisting is delegated to gin-contrib/cors in front of
		// this handler for browser clients; non-browser clients (mobile,
		// curl) send no Origin header at all.
		return true
	},
}

// HandleConnection handles GET /ws/{pin}/{playerID}?token=...
func (h *WSHandler) HandleConnection(c *gin.Context) {
	pin := normalizePin(c.Param("pin"))
	playerID64, err := strconv.ParseUint(c.Param("playerID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}
	playerID := uint(playerID64)

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing player token"})
		return
	}
	if _, err := h.tokens.VerifyPlayerToken(token, pin, playerID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired player token"})
		return
	}

	room, ok := h.registry.Get(pin)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] upgrade failed pin=%s player=%d: %v", pin, playerID, err)
		return
	}

	client := ws.NewClient(h.hub, conn, pin, playerID, func() {
		if _, err := room.Disconnect(playerID); err != nil {
			log.Printf("[WSHandler] disconnect handling error pin=%s player=%d: %v", pin, playerID, err)
		}
	})

	log.Printf("[WSHandler] connection accepted pin=%s player=%d", pin, playerID)
	client.StartPumps(func(message []byte, c *ws.Client) {
		h.dispatch(room, c, message)
	})
}

type clientMessage struct {
	Action          string `json:"action"`
	OptionIndex     int    `json:"option_index"`
	Choice          string `json:"choice"`
	ToPlayerID      uint   `json:"to_player_id"`
	ControlAction   string `json:"control_action"`
	TargetPlayerID  *uint  `json:"target_player_id"`
	Topic           string `json:"topic"`
	Difficulty      string `json:"difficulty"`
}

// dispatch parses one client->server frame and routes it to the Room's
// Command Dispatcher. A malformed payload or a domain error rejecting the
// command closes the socket with 1008, per spec.md §7's propagation policy
// for socket-originated commands.
func (h *WSHandler) dispatch(room *roomengine.Room, c *ws.Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.Close1008("malformed message")
		return
	}

	var err error
	switch msg.Action {
	case "answer":
		// Wire contract is 1-based (spec.md §6); storage/engine is 0-based.
		_, err = room.Answer(c.PlayerID, msg.OptionIndex-1)
	case "vote":
		_, err = room.Vote(c.PlayerID, msg.Choice)
	case "skip":
		_, err = room.Skip(c.PlayerID)
	case "transfer_captain":
		_, err = room.TransferCaptain(c.PlayerID, msg.ToPlayerID)
	case "host_control":
		_, err = room.HostControl(c.PlayerID, msg.ControlAction, msg.TargetPlayerID, msg.Topic, msg.Difficulty)
	case "ping":
		if sendErr := c.SendPong(); sendErr != nil {
			log.Printf("[WSHandler] pong send failed pin=%s player=%d: %v", room.Pin(), c.PlayerID, sendErr)
		}
		return
	default:
		c.Close1008("unknown action")
		return
	}

	if err != nil {
		log.Printf("[WSHandler] command rejected pin=%s player=%d action=%s: %v", room.Pin(), c.PlayerID, msg.Action, err)
		c.Close1008(err.Error())
	}
}
