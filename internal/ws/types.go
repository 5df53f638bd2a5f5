package ws

const (
	// client - server
	MsgStart   = "start"
	MsgTap     = "tap"
	MsgTapCell = "tap_cell"
	MsgFlip    = "flip"
	MsgAnswer  = "answer"
	MsgEnd     = "end"
	MsgPing    = "ping"

	// server - client; session events use the game event type as-is
	MsgReady = "ready"
	MsgPong  = "pong"
	MsgError = "error"
)
