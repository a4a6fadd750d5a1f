package core

// Logger is any leveled logger.
// args may hold errors, extra data maps and the id of the user behind the request.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// UserID marks a logger argument as the id of the user behind the call.
type UserID string
