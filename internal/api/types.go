package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// RecvRequest is the POST /recv body.
type RecvRequest struct {
	Content json.RawMessage `json:"content"`
	MD5     string          `json:"md5"`
	Source  string          `json:"source" binding:"omitempty,max=100"`
}

// RecvResponse reports how a submission was handled.
type RecvResponse struct {
	Status       string `json:"status"`
	ImportID     string `json:"import_id"`
	ItemsCount   int    `json:"items_count"`
	ImportedAt   string `json:"imported_at,omitempty"`
	ComputedHash string `json:"computed_hash"`
	ProvidedHash string `json:"provided_hash,omitempty"`
	HashMatch    *bool  `json:"hash_match"`
	Timestamp    string `json:"timestamp"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ImportBatch describes a stored batch without its payload.
type ImportBatch struct {
	ID           string `json:"id"`
	ContentHash  string `json:"content_hash"`
	Source       string `json:"source"`
	ItemCount    int    `json:"item_count"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Processed    int    `json:"processed"`
	Duplicates   int    `json:"duplicates"`
	Errors       int    `json:"errors"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// ImportSummary describes the tags found in a batch payload.
type ImportSummary struct {
	TotalItems       int      `json:"total_items"`
	ValidTags        int      `json:"valid_tags"`
	TagsWithLocation int      `json:"tags_with_location"`
	TagList          []string `json:"tag_list"`
}

// LatestImport is the GET /api/imports/latest payload.
type LatestImport struct {
	Import  ImportBatch     `json:"import"`
	Summary ImportSummary   `json:"summary"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ImportDetail is the GET /api/imports/:id payload.
type ImportDetail struct {
	Import    ImportBatch `json:"import"`
	Locations []Location  `json:"locations"`
}

// Location is one stored observation.
type Location struct {
	ID            string  `json:"id"`
	Tag           string  `json:"tag"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Accuracy      float64 `json:"accuracy"`
	ObservedAt    string  `json:"observed_at"`
	BatteryStatus int     `json:"battery_status"`
	IsInaccurate  bool    `json:"is_inaccurate"`
	LocationHash  string  `json:"location_hash"`
	ImportID      string  `json:"import_id,omitempty"`
}

// Pagination describes one page of a location listing.
type Pagination struct {
	Page     int  `json:"page"`
	Limit    int  `json:"limit"`
	Returned int  `json:"returned"`
	HasMore  bool `json:"has_more"`
}

// TagHistory is one page of a tag's records, newest first.
type TagHistory struct {
	Tag        string     `json:"tag"`
	Locations  []Location `json:"locations"`
	Pagination Pagination `json:"pagination"`
}

// LocationWindow is one page of records across tags within a time range.
type LocationWindow struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	Locations  []Location `json:"locations"`
	Pagination Pagination `json:"pagination"`
}

// ProcessOutcome mirrors the result of the most recent processing pass.
type ProcessOutcome struct {
	ImportID      string `json:"import_id"`
	Status        string `json:"status"`
	TotalExpected int    `json:"total_expected"`
	Processed     int    `json:"processed"`
	Duplicates    int    `json:"duplicates"`
	Errors        int    `json:"errors"`
	Ignored       int    `json:"ignored"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running         bool            `json:"running"`
	LastError       string          `json:"last_error,omitempty"`
	LastOutcome     *ProcessOutcome `json:"last_outcome,omitempty"`
	Imports         map[string]int  `json:"imports"`
	Locations       int             `json:"locations"`
	ProcessorRuns   int64           `json:"processor_runs"`
	PendingTriggers int             `json:"pending_triggers"`
}
