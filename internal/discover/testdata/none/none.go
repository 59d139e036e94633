package none

// Ping replies.
//
//apidoc:api GET /ping
func Ping() (string, error) { return "pong", nil }
