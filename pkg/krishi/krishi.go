// Package krishi holds build-time values for the krishi client.
//
// Both variables can be replaced at link time:
//
//	go build -ldflags "-X github.com/mesh-intelligence/krishi/pkg/krishi.DefaultBackendURL=https://api.example.org/" ./cmd/krishi
package krishi

// Version is the release version of the krishi binary.
var Version = "0.1.0"

// DefaultBackendURL is the farming-assistant backend used when neither
// config.yaml nor KRISHI_BACKEND_URL names one.
var DefaultBackendURL = "http://localhost:8000/"

// ModulePath is the Go module path, printed by `krishi version`.
const ModulePath = "github.com/mesh-intelligence/krishi"
