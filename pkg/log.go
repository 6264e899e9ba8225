package pkg

import (
	"context"
	"io"
	"log/slog"

	"github.com/phsym/console-slog"
)

const TraceLevel = slog.Level(-8)

var _ slog.Handler = (*MultiLogHandler)(nil)

func ParseLevel(level string) slog.Level {
	var lv slog.LevelVar
	if level == "trace" {
		lv.Set(TraceLevel)
	} else {
		lv.UnmarshalText([]byte(level))
	}
	return lv.Level()
}

// NewLogger 控制台输出，file 不为 nil 时同时以 json 格式写入 file
func NewLogger(console io.Writer, file io.Writer, level string, noColor bool) *slog.Logger {
	lv := ParseLevel(level)
	var handler MultiLogHandler
	handler.SetLevel(lv)
	handler.Add(consoleHandler(console, lv, noColor))
	if file != nil {
		handler.Add(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: lv}))
	}
	return slog.New(&handler)
}

func consoleHandler(w io.Writer, lv slog.Level, noColor bool) slog.Handler {
	return console.NewHandler(w, &console.HandlerOptions{NoColor: noColor, Level: lv, TimeFormat: "2006-01-02 15:04:05.000"})
}

// MultiLogHandler 把日志分发给多个 handler。With/WithGroup 产生的子 handler 各自持有一份副本，
// 之后对父 handler 调用 Add 不会影响已有的子 handler
type MultiLogHandler struct {
	handlers    []slog.Handler
	parentLevel *slog.Level
	level       *slog.Level
}

// Add 只应在创建 logger 时调用
func (m *MultiLogHandler) Add(h slog.Handler) {
	m.handlers = append(m.handlers, h)
}

func (m *MultiLogHandler) SetLevel(level slog.Level) {
	if m.level == nil {
		m.level = &level
	} else {
		*m.level = level
	}
}

// Enabled implements slog.Handler.
func (m *MultiLogHandler) Enabled(_ context.Context, l slog.Level) bool {
	if m.level != nil {
		return l >= *m.level
	}
	if m.parentLevel != nil {
		return l >= *m.parentLevel
	}
	return l >= slog.LevelInfo
}

// Handle implements slog.Handler.
func (m *MultiLogHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (m *MultiLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	result := m.child()
	for i, h := range m.handlers {
		result.handlers[i] = h.WithAttrs(attrs)
	}
	return result
}

// WithGroup implements slog.Handler.
func (m *MultiLogHandler) WithGroup(name string) slog.Handler {
	result := m.child()
	for i, h := range m.handlers {
		result.handlers[i] = h.WithGroup(name)
	}
	return result
}

func (m *MultiLogHandler) child() *MultiLogHandler {
	result := &MultiLogHandler{
		handlers:    make([]slog.Handler, len(m.handlers)),
		parentLevel: m.parentLevel,
	}
	if m.level != nil {
		result.parentLevel = m.level
	}
	return result
}
