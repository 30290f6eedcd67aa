package protocol

import "slices"

const (
	DefaultProtocolVersion = "2024-11-05"
	ClientName             = "mcp-reticle"
	ClientVersion          = "1.0.0"
)

var SupportedProtocolVersions = []string{
	"2025-03-26",
	"2024-11-05",
}

func IsSupported(version string) bool {
	return slices.Contains(SupportedProtocolVersions, version)
}

// DefaultCapabilities returns the capability flags advertised by both roles.
func DefaultCapabilities() map[string]interface{} {
	return map[string]interface{}{
		"tools":     map[string]interface{}{"listChanged": true},
		"resources": map[string]interface{}{"subscribe": true, "listChanged": true},
		"prompts":   map[string]interface{}{"listChanged": true},
	}
}
