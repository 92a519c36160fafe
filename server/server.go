// 会话层，通过websocket与外部世界交换tick、观测与动作
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tsinghua-fib-lab/agentmobility-oss/scenario"
)

// 消息类型
const (
	msgTypeSync        = "sync"
	msgTypeObservation = "observation"
	msgTypePersonMove  = "person_move"
)

const writeTimeout = 5 * time.Second

// envelope websocket消息信封
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// syncRequest 外部世界的tick请求
type syncRequest struct {
	Timestamp  float64                `json:"timestamp"`
	IdlePeople []*scenario.IdleUpdate `json:"idle_people,omitempty"`
}

// Server websocket会话服务
// 功能：接收外部世界的sync与observation消息，sync处理完成后把
// 累积的移动动作以person_move消息写回
// 说明：同一时刻只接受一个会话，后来的连接直接拒绝；
// 畸形消息记录日志后忽略，不中断会话
type Server struct {
	addr     string
	scenario *scenario.Scenario
	upgrader websocket.Upgrader

	mu     sync.Mutex
	active bool
}

// New 创建会话服务
func New(addr string, s *scenario.Scenario) *Server {
	return &Server{
		addr:     addr,
		scenario: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run 启动服务
// 说明：阻塞直至监听失败
func (s *Server) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleSession)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"running"}`))
	})
	log.Infof("listening on %s", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// handleSession 处理一个websocket会话
// 算法说明：
// 1. 会话互斥：已有活跃会话时拒绝新连接
// 2. 读循环：按消息类型分发sync/observation
// 3. sync处理完成后写回动作，写失败终止会话
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		log.Warnf("session from %s rejected, another session is active", r.RemoteAddr)
		http.Error(w, "another session is active", http.StatusConflict)
		return
	}
	s.active = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Infof("session established with %s", r.RemoteAddr)

	ctx := r.Context()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Infof("session closed: %v", err)
			return
		}
		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			log.Warnf("malformed message ignored: %v", err)
			continue
		}
		switch env.Type {
		case msgTypeSync:
			var req syncRequest
			if err := json.Unmarshal(env.Payload, &req); err != nil {
				log.Warnf("malformed sync payload ignored: %v", err)
				continue
			}
			if err := s.scenario.Sync(ctx, req.Timestamp, req.IdlePeople); err != nil {
				log.Errorf("sync at timestamp %v failed: %v", req.Timestamp, err)
				continue
			}
			if err := s.flushActions(conn); err != nil {
				log.Errorf("failed to send actions: %v", err)
				return
			}
		case msgTypeObservation:
			var ob scenario.Observation
			if err := json.Unmarshal(env.Payload, &ob); err != nil {
				log.Warnf("malformed observation payload ignored: %v", err)
				continue
			}
			s.scenario.HandleObservation(ctx, &ob)
		default:
			log.Warnf("unknown message type <%s> ignored", env.Type)
		}
	}
}

// flushActions 把累积的移动动作写回会话
func (s *Server) flushActions(conn *websocket.Conn) error {
	if !s.scenario.HasPendingActions() {
		return nil
	}
	actions := s.scenario.DrainActions()
	for _, action := range actions {
		payload, err := json.Marshal(action)
		if err != nil {
			log.Errorf("failed to marshal action for person %s: %v", action.PersonID, err)
			continue
		}
		msg, err := json.Marshal(envelope{Type: msgTypePersonMove, Payload: payload})
		if err != nil {
			log.Errorf("failed to marshal person_move message: %v", err)
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return err
		}
	}
	log.Infof("sent %d person_move messages", len(actions))
	return nil
}
