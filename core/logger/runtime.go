package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

// Context keys are unexported struct types so no other package can collide
// with them.
type (
	ridKey      struct{}
	updateIDKey struct{}
	userIDKey   struct{}
	chatIDKey   struct{}
	loggerKey   struct{}
	handlerKey  struct{}
	traceIDKey  struct{}
)

func ctxString(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

func ctxInt64(ctx context.Context, key any) int64 {
	if ctx == nil {
		return 0
	}
	switch v := ctx.Value(key).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// WithLogger stores log in the context so downstream layers log through the
// same component logger.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored in ctx, falling back to the global
// default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID attaches the request correlation id to the context.
func WithRID(ctx context.Context, rid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ridKey{}, rid)
}

// RIDFrom returns the correlation id stored in ctx, if any.
func RIDFrom(ctx context.Context) string {
	return ctxString(ctx, ridKey{})
}

// WithUpdateMeta attaches the identifiers shared by every log line emitted
// while handling one Telegram update.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, updateIDKey{}, updateID)
	ctx = context.WithValue(ctx, userIDKey{}, userID)
	return context.WithValue(ctx, chatIDKey{}, chatID)
}

// WithHandler records which handler owns the rest of the request.
func WithHandler(ctx context.Context, handler string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, handlerKey{}, handler)
}

// HandlerFrom returns the handler name stored in ctx, if any.
func HandlerFrom(ctx context.Context) string {
	return ctxString(ctx, handlerKey{})
}

// WithTrace attaches a trace identifier to the context.
func WithTrace(ctx context.Context, traceID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFrom returns the trace id stored in ctx, if any.
func TraceIDFrom(ctx context.Context) string {
	return ctxString(ctx, traceIDKey{})
}

// UserIDFrom returns the Telegram user id stored in ctx, if any.
func UserIDFrom(ctx context.Context) int64 {
	return ctxInt64(ctx, userIDKey{})
}

// ChatIDFrom returns the chat id stored in ctx, if any.
func ChatIDFrom(ctx context.Context) int64 {
	return ctxInt64(ctx, chatIDKey{})
}

// UpdateIDFrom returns the update id stored in ctx, if any.
func UpdateIDFrom(ctx context.Context) int {
	return int(ctxInt64(ctx, updateIDKey{}))
}

// Sanitize strips control and format runes from s, keeping tab and newline,
// so user input cannot mangle a log line.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == 0x7F, unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit sanitizes s and caps the result at max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	cleaned := []rune(Sanitize(s))
	if len(cleaned) <= max {
		return string(cleaned)
	}
	return string(cleaned[:max])
}

// BuildRID builds the correlation id in the updateID:chatID:userID format.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID re-encodes a colon-separated RID as dot-separated base36
// segments. Input that does not look like a RID comes back unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	if rid == "" {
		return ""
	}
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	compact := make([]string, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		compact = append(compact, strconv.FormatInt(n, 36))
	}
	return strings.Join(compact, ".")
}
