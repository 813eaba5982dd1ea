package capability

import "errors"

var (
	// ErrConfigurationMissing is fatal at startup
	ErrConfigurationMissing = errors.New("required configuration is missing")

	ErrCapabilityNotFound   = errors.New("capability not found")
	ErrCapabilityDisabled   = errors.New("capability is disabled")
	ErrUnsupportedTransport = errors.New("unsupported transport")
	ErrConnectFailed        = errors.New("failed to connect to capability")

	// ErrFetchFailed is returned when an agent card cannot be fetched or parsed.
	// Failed fetches are never cached.
	ErrFetchFailed = errors.New("failed to fetch capability card")

	// ErrCommunication covers network and protocol failures while a capability is invoked
	ErrCommunication = errors.New("capability communication failure")

	ErrInvalidDescriptor = errors.New("invalid capability descriptor")
)
