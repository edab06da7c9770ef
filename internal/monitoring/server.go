package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"field-backend/internal/notify"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// MonitoringServer serves the ops dashboard on its own port: system and
// database stats over HTTP, live status-change events over websocket.
type MonitoringServer struct {
	db         *pgxpool.Pool
	port       int
	notifier   *notify.RedisNotifier
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
}

type DashboardStats struct {
	DatabaseStatus string  `json:"database_status"`
	ResponseTime   int64   `json:"response_time_ms"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	DiskPercent    float64 `json:"disk_percent"`
	PendingReview  int     `json:"pending_review"`
	ClockedIn      int     `json:"clocked_in"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewMonitoringServer(db *pgxpool.Pool, port int, notifier *notify.RedisNotifier) *MonitoringServer {
	return &MonitoringServer{
		db:       db,
		port:     port,
		notifier: notifier,
		clients:  make(map[*websocket.Conn]bool),
	}
}

func (ms *MonitoringServer) Start() {
	r := mux.NewRouter()

	r.HandleFunc("/api/stats", ms.getStats).Methods("GET")
	r.HandleFunc("/ws", ms.handleWebSocket)

	if ms.notifier != nil {
		go ms.relayStatusEvents()
	}

	addr := fmt.Sprintf(":%d", ms.port)
	log.Printf("Monitoring dashboard running on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func (ms *MonitoringServer) getStats(w http.ResponseWriter, r *http.Request) {
	stats := ms.collectStats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (ms *MonitoringServer) collectStats() DashboardStats {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	stats := DashboardStats{DatabaseStatus: "healthy"}

	start := time.Now()
	if err := ms.db.Ping(ctx); err != nil {
		stats.DatabaseStatus = "unhealthy"
	}
	stats.ResponseTime = time.Since(start).Milliseconds()

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
	}
	if du, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = du.UsedPercent
	}

	if stats.DatabaseStatus == "healthy" {
		ms.db.QueryRow(ctx,
			"SELECT COUNT(*) FROM current_status WHERE status = 'tech_completed'").Scan(&stats.PendingReview)
		ms.db.QueryRow(ctx, `
			SELECT COUNT(*) FROM (
				SELECT DISTINCT ON (job_id, user_id) event_type
				FROM clock_events
				ORDER BY job_id, user_id, event_time DESC, id DESC
			) latest WHERE event_type IN ('clock_in', 'break_end')`).Scan(&stats.ClockedIn)
	}

	return stats
}

func (ms *MonitoringServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Monitoring] WebSocket upgrade failed: %v", err)
		return
	}

	ms.clientsMux.Lock()
	ms.clients[conn] = true
	ms.clientsMux.Unlock()

	// Reader loop only to detect close
	go func() {
		defer func() {
			ms.clientsMux.Lock()
			delete(ms.clients, conn)
			ms.clientsMux.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// relayStatusEvents fans committed transitions out to dashboard clients.
func (ms *MonitoringServer) relayStatusEvents() {
	for event := range ms.notifier.Subscribe(context.Background()) {
		payload, err := json.Marshal(map[string]interface{}{
			"type":  "status_changed",
			"event": event,
		})
		if err != nil {
			continue
		}

		ms.clientsMux.Lock()
		for conn := range ms.clients {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				delete(ms.clients, conn)
				conn.Close()
			}
		}
		ms.clientsMux.Unlock()
	}
}
