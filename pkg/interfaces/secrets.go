package interfaces

import "context"

// SecretStore retrieves the deployment's secret payload from wherever the
// host keeps it (a managed secret service, an environment file, a vault).
// The payload is a flat map of lookup key to credential value; the runtime
// fetches it once and caches it for the process lifetime.
type SecretStore interface {
	Fetch(ctx context.Context) (map[string]string, error)
}
