package model

// NetworkStatus summarizes the overlay manager's externally visible state,
// returned verbatim by the get_network_status command and pushed as the
// network-status event on change.
type NetworkStatus struct {
	IsListening   bool     `json:"is_listening"`
	LocalPeerID   string   `json:"local_peer_id,omitempty"`
	ListenAddrs   []string `json:"listen_addrs"`
	ConnectedPeers int     `json:"connected_peers"`
	ReadyPeers    int      `json:"ready_peers"`
}

// ConnectionSummary is the result of the ensure_connected barrier, returned
// by refresh_connections.
type ConnectionSummary struct {
	TotalPeers int `json:"total_peers"`
	Connected  int `json:"connected"`
	Failed     int `json:"failed"`
}

// ShareResult is returned by handle_shared_content.
type ShareResult struct {
	Total          int  `json:"total"`
	Reached        int  `json:"reached"`
	Offline        int  `json:"offline"`
	AddedToHistory bool `json:"added_to_history"`
}

// PendingClipboard is a remote update received while the app was
// backgrounded, to be applied and cleared on resume.
type PendingClipboard struct {
	Content    string `json:"content"`
	FromDevice string `json:"from_device"`
}
