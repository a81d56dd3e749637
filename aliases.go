package netop

import "github.com/akashmir/harvesh-app-sub004/types"

// Type aliases for convenience - re-export from types package.
type (
	ErrorKind         = types.ErrorKind
	AppError          = types.AppError
	Request           = types.Request
	QueueItemID       = types.QueueItemID
	QueuedItem        = types.QueuedItem
	ItemState         = types.ItemState
	ConnectivityState = types.ConnectivityState
	Logger            = types.Logger
	MetricsCollector  = types.MetricsCollector
)

// Re-export error kind constants for convenience.
const (
	KindNetwork        = types.KindNetwork
	KindAPI            = types.KindAPI
	KindValidation     = types.KindValidation
	KindAuthentication = types.KindAuthentication
	KindPermission     = types.KindPermission
	KindTimeout        = types.KindTimeout
	KindServerError    = types.KindServerError
	KindNoInternet     = types.KindNoInternet
	KindConfiguration  = types.KindConfiguration
	KindUnknown        = types.KindUnknown
)

// Re-export connectivity state constants for convenience.
const (
	Online  = types.Online
	Offline = types.Offline
)

// Re-export item state constants for convenience.
const (
	StatePending  = types.StatePending
	StateInFlight = types.StateInFlight
	StateFailed   = types.StateFailed
	StateCorrupt  = types.StateCorrupt
)
