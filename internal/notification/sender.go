// Package notification delivers patient notices. The only channel is a
// simulated mailbox: one text file per message in a directory.
package notification

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/worker"
)

// Sink delivers one message to one recipient.
type Sink interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// FileSink writes each message to <dir>/<yyyyMMdd_HHmmssfff>_<recipient>.txt.
type FileSink struct {
	dir string
	now func() time.Time

	once    sync.Once
	initErr error
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir, now: time.Now}
}

func (s *FileSink) Dir() string { return s.dir }

func (s *FileSink) Notify(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(recipient) == "" {
		return errors.New("notification recipient is empty")
	}

	s.once.Do(func() {
		s.initErr = os.MkdirAll(s.dir, 0o755)
	})
	if s.initErr != nil {
		return fmt.Errorf("create mailbox dir: %w", s.initErr)
	}

	now := s.now()
	name := FileName(now, recipient)
	content := formatMessage(now, recipient, subject, body)

	path := filepath.Join(s.dir, name)
	err := writeNew(path, content)
	if errors.Is(err, fs.ErrExist) {
		// same millisecond, same recipient
		path = filepath.Join(s.dir, strings.TrimSuffix(name, ".txt")+"_"+uuid.NewString()[:8]+".txt")
		err = writeNew(path, content)
	}
	if err != nil {
		return fmt.Errorf("write notification: %w", err)
	}

	logger.Info("notification written", zap.String("path", path), zap.String("subject", subject))
	return nil
}

// FileName builds the mailbox file name. Dots in the address become
// underscores, as do path separators.
func FileName(at time.Time, recipient string) string {
	stamp := fmt.Sprintf("%s%03d", at.Format("20060102_150405"), at.Nanosecond()/int(time.Millisecond))
	return stamp + "_" + sanitizeRecipient(recipient) + ".txt"
}

var recipientReplacer = strings.NewReplacer(".", "_", "/", "_", `\`, "_")

func sanitizeRecipient(recipient string) string {
	return recipientReplacer.Replace(strings.TrimSpace(recipient))
}

func formatMessage(at time.Time, recipient, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", at.Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "To: %s\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\n\n", subject)
	b.WriteString("--- MESSAGE ---\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}

func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// AsyncSink hands messages to a worker pool and returns immediately.
// Delivery errors are logged, never returned.
type AsyncSink struct {
	next Sink
	pool *worker.Pool
}

func NewAsyncSink(next Sink, pool *worker.Pool) *AsyncSink {
	return &AsyncSink{next: next, pool: pool}
}

func (s *AsyncSink) Notify(_ context.Context, recipient, subject, body string) error {
	// the request context ends with the response, so run detached
	err := s.pool.SubmitDetached(func(ctx context.Context) {
		if err := s.next.Notify(ctx, recipient, subject, body); err != nil {
			logger.Error("async notification failed",
				zap.String("recipient", recipient),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	return nil
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*AsyncSink)(nil)
)
