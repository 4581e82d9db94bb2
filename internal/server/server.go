package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"marsvandals/internal/game"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow connections from any origin
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server handles HTTP and WebSocket connections
type Server struct {
	world     *game.World
	staticDir string
}

// NewServer creates a new server around a world
func NewServer(world *game.World, staticDir string) *Server {
	return &Server{
		world:     world,
		staticDir: staticDir,
	}
}

// Start starts the server on the specified address
func (s *Server) Start(addr string) error {
	s.world.Start()

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/save-bot-billboards", s.handleSaveBotBillboards)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Printf("Server starting on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := game.NewClient(0, conn) // ID will be assigned by world
	s.world.AddClient(client)

	go s.handleClientReads(client)
	go s.handleClientWrites(client)
}

// handleClientReads reads messages from the client
func (s *Server) handleClientReads(client *game.Client) {
	defer func() {
		client.Conn.Close()
		s.world.RemoveClient(client.ID)
	}()

	// Set read deadline and pong handler for keepalive
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.world.HandleMessage(client, messageBytes)
	}
}

// handleClientWrites sends messages to the client
func (s *Server) handleClientWrites(client *game.Client) {
	ticker := time.NewTicker(54 * time.Second) // Send ping every 54 seconds
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Write error: %v", err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleSaveBotBillboards accepts a full-array replace of the bot billboard
// collection. Externally curated bot content enters here, bypassing the
// spawner's normal gating; the next capacity check trims any excess.
func (s *Server) handleSaveBotBillboards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var bots []game.Billboard
	if err := json.NewDecoder(r.Body).Decode(&bots); err != nil {
		log.Printf("Error parsing bot billboard upload: %v", err)
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	removed := s.world.Registry().ReplaceBotBillboards(bots)
	s.world.Store().SaveBotBillboards(s.world.Registry().BotBillboards())
	s.world.Spawner().CheckNow()

	log.Printf("Replaced bot billboards: %d removed, %d uploaded", len(removed), len(bots))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"saved":   len(bots),
		"removed": len(removed),
	})
}

// handleHistory serves recent world events from the archive.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.world.Archive().Recent(limit))
}
