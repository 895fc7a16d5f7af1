package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"pressgrid-backend/shared/config"
	"pressgrid-backend/shared/utils/alerts"
	"pressgrid-backend/shared/utils/cache"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// AlertHub fans quota alerts out to connected ops dashboards. Alerts
// arrive on the Redis pub/sub channel the metering gateway publishes to,
// so it works across processes; each connection only receives alerts for
// its own organization.
type AlertHub struct {
	clients  map[*websocket.Conn]uuid.UUID // connection -> organization
	mutex    sync.RWMutex
	upgrader websocket.Upgrader
	cache    *cache.CacheManager
}

func NewAlertHub(cacheManager *cache.CacheManager) *AlertHub {
	return &AlertHub{
		clients: make(map[*websocket.Conn]uuid.UUID),
		cache:   cacheManager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || origin == config.GetConfig().FrontendURL {
					return true
				}
				log.Printf("🚫 WebSocket connection rejected from origin: %s", origin)
				return false
			},
		},
	}
}

// Run subscribes to the alert channel and broadcasts until ctx is done.
// Call in a goroutine from main.
func (h *AlertHub) Run(ctx context.Context) {
	pubsub := h.cache.Subscribe(ctx, alerts.QuotaAlertChannel)
	defer pubsub.Close()

	log.Printf("🔔 Alert hub subscribed to %s", alerts.QuotaAlertChannel)

	channel := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-channel:
			if !ok {
				return
			}

			var alert alerts.QuotaAlert
			if err := json.Unmarshal([]byte(msg.Payload), &alert); err != nil {
				log.Printf("❌ Failed to decode quota alert: %v", err)
				continue
			}

			h.broadcast(&alert)
		}
	}
}

// broadcast delivers an alert to every connection of its organization
func (h *AlertHub) broadcast(alert *alerts.QuotaAlert) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for conn, orgID := range h.clients {
		if orgID != alert.OrganizationID {
			continue
		}
		if err := conn.WriteJSON(alert); err != nil {
			log.Printf("❌ Failed to push alert: %v", err)
		}
	}
}

// HandleConnection upgrades the request and keeps the connection
// registered until the client goes away
func (h *AlertHub) HandleConnection(w http.ResponseWriter, r *http.Request, organizationID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	h.register(conn, organizationID)
	defer h.unregister(conn)

	// Consume (and discard) client frames so pings and closes are handled.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *AlertHub) register(conn *websocket.Conn, organizationID uuid.UUID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[conn] = organizationID
	log.Printf("🔌 Ops client connected for %s (Total: %d)", organizationID, len(h.clients))
}

func (h *AlertHub) unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	delete(h.clients, conn)
	conn.Close()
}
