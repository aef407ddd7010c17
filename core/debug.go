package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled gates DebugPrintln; warnings from the controller are always written
	debugEnabled bool

	// debugChan feeds the async writer used from interrupt handlers
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, a host logger, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go func() {
		for msg := range debugChan {
			debugPrintln(msg)
		}
	}()
}

// DebugAsync queues a message without blocking; it is safe to call from an
// interrupt handler. Messages are dropped when the queue is full.
func DebugAsync(msg string) {
	if debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}
