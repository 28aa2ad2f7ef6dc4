package session

// Fixed Rerror strings. These are wire contract, not prose — every byte
// matters to clients written against this server. Carried over verbatim
// from the original implementation's error constants.
const (
	ENeedNotag    = "NOTAG(0xFFFF) Required for Tversion."
	E9P2000Only   = "We only talk 9P2000 Here."
	ENoAuth       = "No authentication required."
	ENeedNofid    = "No Authentication FID required."
	ENoAltRoot    = "Alternate root requested unavailable."
	EInvalidFid   = "Supplied FID invalid."
	EDuplicateFid = "Supplied FID exists."
	ENotDir       = "Not a directory."
	EAlreadyOpen  = "File already open."
	ENotFound     = "Not found."
	ENotOpen      = "File not opened."
)
