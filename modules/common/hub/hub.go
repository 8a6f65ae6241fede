package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"portrait-studio-server/modules/common/logger"
)

// 메시지 타입
const (
	TypeConnected    = "connected"
	TypeJobQueued    = "job_queued"
	TypeJobStarted   = "job_started"
	TypeJobProgress  = "job_progress"
	TypeJobCompleted = "job_completed"
	TypeJobFailed    = "job_failed"
	TypeJobCancelled = "job_cancelled"
	TypePing         = "ping"
	TypePong         = "pong"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message - 클라이언트로 보내는 Job 진행 메시지
type Message struct {
	Type      string    `json:"type"`
	JobID     string    `json:"jobId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Status    string    `json:"status,omitempty"`
	Completed int       `json:"completed,omitempty"`
	Total     int       `json:"total,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client - 연결된 WebSocket 클라이언트
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	once   sync.Once
}

// channel - 사용자별 연결 묶음 (탭 여러 개 허용)
type channel struct {
	clients      map[*Client]struct{}
	createdAt    time.Time
	lastActivity time.Time
}

// Metrics - 서버 메트릭
type Metrics struct {
	TotalConnections int       `json:"totalConnections"`
	ActiveUsers      int       `json:"activeUsers"`
	ActiveClients    int       `json:"activeClients"`
	MessagesSent     int       `json:"messagesSent"`
	MessagesDropped  int       `json:"messagesDropped"`
	StartTime        time.Time `json:"startTime"`
}

// Hub - 사용자별 Job 진행 상황 브로드캐스트
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*channel
	metrics  Metrics
}

// New - Hub 생성
func New() *Hub {
	return &Hub{
		channels: make(map[string]*channel),
		metrics:  Metrics{StartTime: time.Now()},
	}
}

// ServeWS - GET /ws?user={userId}
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "user parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Warnf("⚠️  [Hub] WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
	h.register(client)

	go client.writePump()
	go client.readPump()

	h.Publish(userID, Message{Type: TypeConnected, UserID: userID})
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[c.userID]
	if !ok {
		now := time.Now()
		ch = &channel{clients: make(map[*Client]struct{}), createdAt: now, lastActivity: now}
		h.channels[c.userID] = ch
	}
	ch.clients[c] = struct{}{}
	ch.lastActivity = time.Now()
	h.metrics.TotalConnections++

	logger.L().Infof("✅ [Hub] Client connected: user=%s (tabs: %d)", c.userID, len(ch.clients))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[c.userID]
	if !ok {
		return
	}
	if _, ok := ch.clients[c]; !ok {
		return
	}
	delete(ch.clients, c)
	c.closeSend()

	// 빈 채널은 바로 정리
	if len(ch.clients) == 0 {
		delete(h.channels, c.userID)
	}
	logger.L().Infof("👋 [Hub] Client disconnected: user=%s", c.userID)
}

// Publish - 사용자의 모든 연결로 메시지 전송. 버퍼가 가득 찬 연결은 건너뜀
func (h *Hub) Publish(userID string, msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.UserID == "" {
		msg.UserID = userID
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		logger.L().Errorf("❌ [Hub] Failed to marshal message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[userID]
	if !ok {
		return
	}
	ch.lastActivity = time.Now()

	for c := range ch.clients {
		select {
		case c.send <- payload:
			h.metrics.MessagesSent++
		default:
			h.metrics.MessagesDropped++
			logger.L().Warnf("⚠️  [Hub] Send buffer full, dropping %s for user %s", msg.Type, userID)
		}
	}
}

// ClientCount - 사용자의 현재 연결 수
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if ch, ok := h.channels[userID]; ok {
		return len(ch.clients)
	}
	return 0
}

// Stats - 메트릭 스냅샷
func (h *Hub) Stats() Metrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m := h.metrics
	m.ActiveUsers = len(h.channels)
	for _, ch := range h.channels {
		m.ActiveClients += len(ch.clients)
	}
	return m
}

// Run - ctx 종료 시 모든 연결 정리
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.Close()
}

// Close - 모든 연결 종료
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0)
	for _, ch := range h.channels {
		for c := range ch.clients {
			clients = append(clients, c)
		}
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
	logger.L().Infof("🧹 [Hub] Closed %d connections", len(clients))
}

// HandleMetrics - GET /metrics
func (h *Hub) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	stats := h.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"uptime":  time.Since(stats.StartTime).String(),
		"metrics": stats,
	})
}

func (c *Client) closeSend() {
	c.once.Do(func() { close(c.send) })
}

// 클라이언트로부터 메시지 읽기 (ping 응답 외에는 무시)
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.L().Warnf("⚠️  [Hub] WebSocket error: %v", err)
			}
			return
		}

		if msg.Type == TypePing {
			c.hub.Publish(c.userID, Message{Type: TypePong})
		}
	}
}

// 클라이언트로 메시지 쓰기
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.L().Warnf("⚠️  [Hub] WebSocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
