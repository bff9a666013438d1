package observerproto

// Version is the observer protocol version.
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Blocks turns BLOCK_DELTA messages on. STEP and BUILD_DONE are always sent.
	Blocks bool `json:"blocks"`
	// MaxBatch caps the changes per BLOCK_DELTA message.
	MaxBatch int `json:"max_batch,omitempty"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldParams     WorldParams `json:"world_params"`
	BlockPalette    []string    `json:"block_palette"`
}

type WorldParams struct {
	ChunkSize [3]int `json:"chunk_size"`
	MinY      int    `json:"min_y"`
	MaxY      int    `json:"max_y"`
	Seed      int64  `json:"seed"`
	BoundaryR int    `json:"boundary_r"`
}

type BlockChange struct {
	Pos  [3]int `json:"pos"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Server -> Client. Block changes of one run since the previous delta.
type BlockDeltaMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Run             string        `json:"run"`
	Changes         []BlockChange `json:"changes"`
}

// Server -> Client. One finished script step.
type StepMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Run             string `json:"run"`
	Index           int    `json:"index"`
	Op              string `json:"op"`
	DeltaLength     int    `json:"delta_length"`
	DeltaPowered    int    `json:"delta_powered"`
	End             [3]int `json:"end"`
	Facing          string `json:"facing"`
}

// Server -> Client. A run ended; Err is set when it failed.
type BuildDoneMsg struct {
	Type              string `json:"type"`
	ProtocolVersion   string `json:"protocol_version"`
	Run               string `json:"run"`
	TotalLength       int    `json:"total_length"`
	TotalPoweredRails int    `json:"total_powered_rails"`
	Err               string `json:"err,omitempty"`
}
