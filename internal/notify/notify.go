// Package notify delivers transient user-facing messages ("toasts").
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is one delivered notification.
type Message struct {
	Level Level
	Text  string
}

// Logger forwards notifications to the structured logger.
type Logger struct {
	logg *logger.Logger
}

func NewLogger(logg *logger.Logger) *Logger {
	return &Logger{logg: logg}
}

func (l *Logger) Success(ctx context.Context, text string) {
	if l == nil || l.logg == nil {
		return
	}
	l.logg.Info(l.logg.WithField(ctx, "toast", string(LevelSuccess)), text)
}

func (l *Logger) Error(ctx context.Context, text string) {
	if l == nil || l.logg == nil {
		return
	}
	l.logg.Warn(l.logg.WithField(ctx, "toast", string(LevelError)), text)
}

// Writer prints notifications as single lines, e.g. to a terminal.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Success(_ context.Context, text string) {
	w.write("✔", text)
}

func (w *Writer) Error(_ context.Context, text string) {
	w.write("✘", text)
}

func (w *Writer) write(mark, text string) {
	if w == nil || w.out == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.out, "%s %s\n", mark, text)
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(_ context.Context, text string) {
	r.add(Message{Level: LevelSuccess, Text: text})
}

func (r *Recorder) Error(_ context.Context, text string) {
	r.add(Message{Level: LevelError, Text: text})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Errors returns the text of recorded error notifications.
func (r *Recorder) Errors() []string {
	return r.texts(LevelError)
}

// Successes returns the text of recorded success notifications.
func (r *Recorder) Successes() []string {
	return r.texts(LevelSuccess)
}

func (r *Recorder) texts(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.messages {
		if m.Level == level {
			out = append(out, m.Text)
		}
	}
	return out
}

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}
