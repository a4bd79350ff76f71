// Package hub implements the subscriber hub (C4): per-connection push
// channels and (userId, gameId) subscriptions, with best-effort fan-out.
// Generalizes a hub/table/client trio (per-table goroutine, Redis-bridged
// broadcast) into a reusable, per-game-scoped primitive.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

// Sink is a unicast delivery channel for one connection. Hub never closes
// it; the connection owner does on disconnect.
type Sink chan any

// Connection is a single live push channel, tied to a user.
type Connection struct {
	ID     string
	UserID string
	Sink   Sink
}

// Hub tracks connections and game subscriptions and fans events out to
// them. The zero value is not usable; construct with New or NewWithRedis.
type Hub struct {
	mu            sync.RWMutex
	connections   map[string]*Connection            // connectionID -> Connection
	byUser        map[string]map[string]*Connection // userID -> connectionID -> Connection
	subscriptions map[string]map[string]bool        // gameID -> userID -> true

	redis     *redis.Client
	redisChan func(gameID string) string
	redisSubs map[string]*redis.PubSub // gameID -> live subscription, one listener goroutine each
}

// New returns a Hub with no cross-process fan-out.
func New() *Hub {
	return &Hub{
		connections:   make(map[string]*Connection),
		byUser:        make(map[string]map[string]*Connection),
		subscriptions: make(map[string]map[string]bool),
		redisSubs:     make(map[string]*redis.PubSub),
	}
}

// NewWithRedis returns a Hub that republishes every broadcast over a
// per-game Redis Pub/Sub channel ("game:<id>:events") and, once a local
// subscriber exists for a game, runs a relayRedisMessages goroutine that
// redelivers other replicas' broadcasts into this process's local
// sinks — the full NewHubWithRedis/table.publishMessages +
// table.subscribeToMessages pattern, scoped per game instead of per
// table.
func NewWithRedis(client *redis.Client) *Hub {
	h := New()
	h.redis = client
	h.redisChan = func(gameID string) string { return "game:" + gameID + ":events" }
	return h
}

// RegisterConnection adds a live connection for userID.
func (h *Hub) RegisterConnection(userID, connectionID string, sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn := &Connection{ID: connectionID, UserID: userID, Sink: sink}
	h.connections[connectionID] = conn
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[string]*Connection)
	}
	h.byUser[userID][connectionID] = conn
}

// UnregisterConnection removes connectionID and every subscription that
// referenced it, once no other connection for the same user remains
// subscribed through it.
func (h *Hub) UnregisterConnection(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.connections[connectionID]
	if !ok {
		return
	}
	delete(h.connections, connectionID)
	if conns, ok := h.byUser[conn.UserID]; ok {
		delete(conns, connectionID)
		if len(conns) == 0 {
			delete(h.byUser, conn.UserID)
			for gameID, subs := range h.subscriptions {
				delete(subs, conn.UserID)
				if len(subs) == 0 {
					h.closeGameSubscription(gameID)
				}
			}
		}
	}
}

// Subscribe marks userID as interested in gameID's events. Idempotent.
func (h *Hub) Subscribe(userID, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscriptions[gameID] == nil {
		h.subscriptions[gameID] = make(map[string]bool)
	}
	h.subscriptions[gameID][userID] = true

	if h.redis != nil {
		h.ensureRedisListener(gameID)
	}
}

// Unsubscribe removes userID's interest in gameID. Idempotent.
func (h *Hub) Unsubscribe(userID, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscriptions[gameID]; ok {
		delete(subs, userID)
		if len(subs) == 0 {
			h.closeGameSubscription(gameID)
		}
	}
}

// closeGameSubscription drops gameID's local subscriber set and, if a
// Redis listener is running for it, closes the subscription so
// relayRedisMessages' range loop exits. Callers hold h.mu.
func (h *Hub) closeGameSubscription(gameID string) {
	delete(h.subscriptions, gameID)
	if pubsub, ok := h.redisSubs[gameID]; ok {
		pubsub.Close()
		delete(h.redisSubs, gameID)
	}
}

// BroadcastToGame delivers event to every live sink of every subscribed
// user on this replica, then republishes it to Redis (if configured) so
// other replicas' relayRedisMessages loops deliver to their own local
// sinks. Delivery is best-effort and non-blocking: a full or closed sink
// is skipped, logged, and never fails the caller.
func (h *Hub) BroadcastToGame(ctx context.Context, gameID string, event any) {
	h.deliverLocal(gameID, event)

	if h.redis != nil {
		h.publishRedis(ctx, gameID, event)
	}
}

// deliverLocal fans event out to this replica's own sinks only, the half
// of BroadcastToGame that both a direct call and a Redis-relayed message
// share.
func (h *Hub) deliverLocal(gameID string, event any) {
	h.mu.RLock()
	subs := h.subscriptions[gameID]
	var targets []*Connection
	for userID := range subs {
		for _, conn := range h.byUser[userID] {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		deliver(conn, event)
	}
}

// SendToUser delivers event to every live sink belonging to userID.
func (h *Hub) SendToUser(userID string, event any) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.byUser[userID]))
	for _, c := range h.byUser[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		deliver(conn, event)
	}
}

func deliver(conn *Connection, event any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("hub: send to closed sink recovered", "connectionId", conn.ID, "recover", r)
		}
	}()
	select {
	case conn.Sink <- event:
	default:
		slog.Warn("hub: sink full, dropping event", "connectionId", conn.ID, "userId", conn.UserID)
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// SubscriberCount returns how many distinct users subscribe to gameID.
func (h *Hub) SubscriberCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[gameID])
}

// publishRedis republishes event on gameID's Pub/Sub channel for other
// process replicas. Failures are logged, never surfaced: a broadcast must
// never fail a move.
func (h *Hub) publishRedis(ctx context.Context, gameID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("hub: marshal event for redis publish failed", "error", err, "gameId", gameID)
		return
	}
	if err := h.redis.Publish(ctx, h.redisChan(gameID), payload).Err(); err != nil {
		slog.Error("hub: redis publish failed", "error", err, "gameId", gameID)
	}
}

// ensureRedisListener starts gameID's relayRedisMessages goroutine on
// first subscribe, mirroring table.subscribeToMessages: one Redis
// subscription and one relay goroutine per game, reference-counted by
// h.subscriptions the same way closeGameSubscription tears it down.
// Callers hold h.mu.
func (h *Hub) ensureRedisListener(gameID string) {
	if _, ok := h.redisSubs[gameID]; ok {
		return
	}
	pubsub := h.redis.Subscribe(context.Background(), h.redisChan(gameID))
	h.redisSubs[gameID] = pubsub
	go h.relayRedisMessages(gameID, pubsub)
}

// relayRedisMessages redelivers every message published on gameID's
// channel into this replica's local sinks, the other half of
// publishRedis's republish. It never republishes back to Redis, or a
// multi-replica deployment would echo every event forever. The range
// loop exits once closeGameSubscription closes pubsub.
func (h *Hub) relayRedisMessages(gameID string, pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		var event any
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			slog.Error("hub: unmarshal redis-relayed event failed", "error", err, "gameId", gameID)
			continue
		}
		h.deliverLocal(gameID, event)
	}
}
