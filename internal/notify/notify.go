// Package notify delivers user-facing notices (toasts) raised by the stores.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a single user-facing message.
type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier receives user-facing messages from the stores.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Nop discards every notice.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}

// Logger writes notices to a zap logger.
type Logger struct {
	lg *zap.Logger
}

// NewLogger returns a Notifier that logs every notice.
func NewLogger(lg *zap.Logger) *Logger {
	return &Logger{lg: lg}
}

func (l *Logger) Success(msg string) {
	l.lg.Info("Notice", zap.String("level", string(LevelSuccess)), zap.String("message", msg))
}

func (l *Logger) Error(msg string) {
	l.lg.Warn("Notice", zap.String("level", string(LevelError)), zap.String("message", msg))
}

// Feed keeps the most recent notices in memory until they are drained.
// Oldest notices are dropped once capacity is reached.
type Feed struct {
	mu       sync.Mutex
	notices  []Notice
	capacity int
	now      func() time.Time
}

// NewFeed creates a Feed holding at most capacity notices.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 32
	}
	return &Feed{capacity: capacity, now: time.Now}
}

func (f *Feed) Success(msg string) { f.push(LevelSuccess, msg) }
func (f *Feed) Error(msg string)   { f.push(LevelError, msg) }

func (f *Feed) push(level Level, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.notices) == f.capacity {
		copy(f.notices, f.notices[1:])
		f.notices = f.notices[:len(f.notices)-1]
	}
	f.notices = append(f.notices, Notice{Level: level, Message: msg, At: f.now()})
}

// Drain returns pending notices in arrival order and empties the feed.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.notices
	f.notices = nil
	return out
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
