package models

// NetworkMode selects which origin variant the client talks to.
type NetworkMode string

const (
	ModeOnline  NetworkMode = "online"
	ModeOffline NetworkMode = "offline"
)

// ParseNetworkMode returns the mode named by s and whether s was recognized.
func ParseNetworkMode(s string) (NetworkMode, bool) {
	switch NetworkMode(s) {
	case ModeOnline:
		return ModeOnline, true
	case ModeOffline:
		return ModeOffline, true
	default:
		return "", false
	}
}

// ProbeStatus is the outcome of a single candidate probe.
type ProbeStatus string

const (
	ProbeSuccess ProbeStatus = "success"
	ProbeError   ProbeStatus = "error"
)

// ProbeResult represents the reachability check of one candidate origin.
type ProbeResult struct {
	URL       string      `json:"url"`
	Status    ProbeStatus `json:"status"`
	Data      any         `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	LatencyMs int64       `json:"latency_ms"`
}

// OK reports whether the probe succeeded.
func (r ProbeResult) OK() bool {
	return r.Status == ProbeSuccess
}

// EndpointStatus describes the active endpoint configuration.
type EndpointStatus struct {
	BaseURL       string      `json:"base_url"`
	Mode          NetworkMode `json:"mode"`
	PrimaryOrigin string      `json:"primary_origin"`
	Candidates    []string    `json:"candidates"`
}
