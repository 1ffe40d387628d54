package api

// MessageType identifies a control-API request or response.
type MessageType string

const (
	MessageTypeListPlugins   MessageType = "list_plugins"
	MessageTypeSystemStats   MessageType = "system_stats"
	MessageTypeRefresh       MessageType = "request_refresh"
	MessageTypeOpen          MessageType = "request_open"
	MessageTypeSetVisibility MessageType = "set_visibility"
	MessageTypeAck           MessageType = "ack"
	MessageTypeError         MessageType = "error"
)

// Request is one client message on the websocket.
type Request struct {
	Type MessageType `json:"type"`
	// Name is the plugin name for request_open (lookup cascade applies).
	Name string `json:"name,omitempty"`
	// Basename and Visibility drive set_visibility.
	Basename   string `json:"basename,omitempty"`
	Visibility string `json:"visibility,omitempty"`
}

// Response answers exactly one Request.
type Response struct {
	Type  MessageType `json:"type"`
	Data  any         `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// PluginInfo is one registry entry in a list_plugins response.
type PluginInfo struct {
	Basename    string `json:"basename"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Visibility  string `json:"visibility"`
	Active      bool   `json:"active"`
}
