package handler

const (
	// RouterRootPath is the root path inside a route group.
	RouterRootPath = "/"

	// APIPrefix is the path all JSON endpoints live under.
	APIPrefix = "/api"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
