package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"gemshell/pluginhost"
	"gemshell/typedef"
)

// commandTimeout bounds how long an API request waits for the frame loop to
// pick its command up. The loop only stalls if a plugin blocks, and then the
// whole device is stalled anyway.
const commandTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The control socket binds to localhost on the device; origin
		// checking is left to the deployment.
		return true
	},
}

// Server is the websocket control API. Every mutating request is forwarded to
// the host's command queue and executed between frames, so API clients never
// touch registry state concurrently with the frame loop.
type Server struct {
	host *pluginhost.Host
	log  zerolog.Logger
}

func NewServer(host *pluginhost.Host, log zerolog.Logger) *Server {
	return &Server{host: host, log: log}
}

// Serve blocks listening on addr.
func (s *Server) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.log.Info().Str("addr", addr).Msg("control API listening")
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if err := conn.WriteJSON(s.dispatch(req)); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	switch req.Type {
	case MessageTypeListPlugins:
		return s.listPlugins()
	case MessageTypeSystemStats:
		return Response{Type: MessageTypeSystemStats, Data: pluginhost.ReadSystemStats()}
	case MessageTypeRefresh:
		return s.refresh()
	case MessageTypeOpen:
		return s.open(req.Name)
	case MessageTypeSetVisibility:
		return s.setVisibility(req.Basename, req.Visibility)
	}
	return Response{Type: MessageTypeError, Error: fmt.Sprintf("unknown request type %q", req.Type)}
}

func (s *Server) listPlugins() Response {
	out := make(chan []PluginInfo, 1)
	s.host.Do(func(h *pluginhost.Host) {
		reg := h.Registry()
		active := h.ActiveIndex()
		infos := make([]PluginInfo, 0, reg.Len())
		for i, e := range reg.Entries() {
			info := PluginInfo{
				Basename:   e.Basename(),
				Name:       e.Name(),
				Category:   e.Category().DisplayName(),
				Visibility: e.Visibility().String(),
				Active:     i == active,
			}
			if d := e.Descriptor(); d != nil {
				info.Description = d.Description
			}
			infos = append(infos, info)
		}
		out <- infos
	})
	select {
	case infos := <-out:
		return Response{Type: MessageTypeListPlugins, Data: infos}
	case <-time.After(commandTimeout):
		return Response{Type: MessageTypeError, Error: "host busy"}
	}
}

func (s *Server) refresh() Response {
	out := make(chan int, 1)
	s.host.Do(func(h *pluginhost.Host) { out <- h.ForceRefresh() })
	select {
	case changed := <-out:
		return Response{Type: MessageTypeAck, Data: map[string]int{"changes": changed}}
	case <-time.After(commandTimeout):
		return Response{Type: MessageTypeError, Error: "host busy"}
	}
}

func (s *Server) open(name string) Response {
	if name == "" {
		return Response{Type: MessageTypeError, Error: "request_open needs a name"}
	}
	out := make(chan bool, 1)
	s.host.Do(func(h *pluginhost.Host) { out <- h.OpenByName(name) })
	select {
	case ok := <-out:
		if !ok {
			return Response{Type: MessageTypeError, Error: fmt.Sprintf("no plugin matches %q", name)}
		}
		return Response{Type: MessageTypeAck}
	case <-time.After(commandTimeout):
		return Response{Type: MessageTypeError, Error: "host busy"}
	}
}

func (s *Server) setVisibility(basename, value string) Response {
	v, ok := typedef.ParseVisibility(value)
	if !ok {
		return Response{Type: MessageTypeError, Error: fmt.Sprintf("unknown visibility %q", value)}
	}
	if basename == "" {
		return Response{Type: MessageTypeError, Error: "set_visibility needs a basename"}
	}
	s.host.Do(func(h *pluginhost.Host) { h.SetVisibility(basename, v) })
	return Response{Type: MessageTypeAck}
}
