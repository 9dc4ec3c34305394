package types

// ModelCreated is reported as the creation time of every configured model.
const ModelCreated = 1700000000

// ModelOwner is reported as the owner of every configured model.
const ModelOwner = "original owners"

// Model is one entry of GET /v1/models.
type Model struct {
	// Name clients pass as "model".
	// example: meta-llama/Llama-2-70b-chat-hf
	ID string `json:"id" example:"meta-llama/Llama-2-70b-chat-hf"`
	// example: model
	Object string `json:"object" example:"model"`
	// example: 1700000000
	Created int64 `json:"created" example:"1700000000"`
	// example: original owners
	OwnedBy string `json:"owned_by" example:"original owners"`
}

// ModelList is returned by GET /v1/models.
type ModelList struct {
	// example: list
	Object string  `json:"object" example:"list"`
	Data   []Model `json:"data"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Ready    bool            `json:"ready"`
	Backends []BackendStatus `json:"backends"`
}

// BackendStatus reports readiness and load of one backend.
type BackendStatus struct {
	Name  string `json:"name" example:"triton"`
	Type  string `json:"type" example:"triton"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
	// Requests currently running against the backend.
	Inflight int `json:"inflight"`
	// Requests waiting for a slot.
	Queued      int `json:"queued"`
	MaxInflight int `json:"max_inflight"`
}
