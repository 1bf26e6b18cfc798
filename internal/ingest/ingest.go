// Package ingest imports trader messages from an inbox directory. Files live
// under <root>/<owner uuid>/ and hold one message per line; each line becomes
// a queued job.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/trade-ledger/internal/async"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
)

// FileResult is the per-file import outcome.
type FileResult struct {
	Path         string
	OwnerID      uuid.UUID
	HashHex      string
	Queued       int
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory import.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
	Messages     uint32
}

// maxLineBytes bounds one message line in an inbox file.
const maxLineBytes = 1 << 20

// Inbox queues the messages of inbox files, skipping content it has already seen.
type Inbox struct {
	queue  async.Queue
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]*progress // by sha256 hex of the file
}

// progress tracks one file's content. A failed import resumes after the
// messages already queued.
type progress struct {
	queued int
	busy   bool
	done   bool
}

func NewInbox(queue async.Queue, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{queue: queue, logger: logger, seen: make(map[string]*progress)}
}

// ImportFile queues every message of path for the owner named by its directory.
func (in *Inbox) ImportFile(ctx context.Context, path string) (FileResult, error) {
	out := FileResult{Path: path}

	ownerID, err := ownerFromPath(path)
	if err != nil {
		return out, err
	}
	out.OwnerID = ownerID

	raw, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(raw)
	out.HashHex = hex.EncodeToString(sum[:])

	in.mu.Lock()
	p := in.seen[out.HashHex]
	dup := p != nil && (p.done || p.busy)
	if p == nil {
		p = &progress{}
		in.seen[out.HashHex] = p
	}
	if !dup {
		p.busy = true
	}
	skip := p.queued
	in.mu.Unlock()
	if dup {
		out.Deduplicated = true
		in.logger.Info("ingest.file.duplicate", "path", path, "sha256", out.HashHex)
		return out, nil
	}

	err = in.enqueue(ctx, &out, raw, skip)
	in.mu.Lock()
	p.busy = false
	p.queued = skip + out.Queued
	p.done = err == nil
	in.mu.Unlock()
	if err != nil {
		return out, err
	}
	in.logger.Info("ingest.file.queued", "path", path, "owner_id", ownerID, "messages", out.Queued, "resumed_at", skip)
	return out, nil
}

// enqueue queues the messages of raw after the first skip.
func (in *Inbox) enqueue(ctx context.Context, out *FileResult, raw []byte, skip int) error {
	messages, err := readMessages(raw)
	if err != nil {
		return fmt.Errorf("read %s: %w", out.Path, err)
	}
	submitted := time.Now()
	for i := skip; i < len(messages); i++ {
		job := async.Job{
			OwnerID:     out.OwnerID,
			Text:        messages[i],
			TraceID:     fmt.Sprintf("%s:%d", out.HashHex[:12], i+1),
			SubmittedAt: submitted,
		}
		if err := in.queue.Enqueue(ctx, job); err != nil {
			return fmt.Errorf("enqueue message %d of %s: %w", i+1, out.Path, err)
		}
		out.Queued++
	}
	return nil
}

func ownerFromPath(path string) (uuid.UUID, error) {
	dir := filepath.Base(filepath.Dir(path))
	id, err := uuid.Parse(dir)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: parent directory must be an owner UUID: %w", path, common.ErrInvalidInput)
	}
	return id, nil
}

// readMessages splits raw into trimmed lines, dropping blanks and # comments.
func readMessages(raw []byte) ([]string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}
	return out, nil
}
