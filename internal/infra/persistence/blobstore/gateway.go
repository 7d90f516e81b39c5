// Package blobstore persists the exhibit collection as immutable JSON
// snapshot objects in a blob.Store and always reads the newest one.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"exhibitcore/internal/blob"
	"exhibitcore/internal/infra/persistence/snapshot"
	"exhibitcore/pkg/domain"
)

var _ domain.ClosableGateway = (*Gateway)(nil)

const (
	// DefaultPrefix namespaces snapshot keys inside the store.
	DefaultPrefix = snapshot.Bucket + "/"
	// DefaultRetain is the number of snapshots kept after each save.
	DefaultRetain = 10

	keyStem   = "snapshot-"
	keySuffix = ".json"
	maxPutTry = 3
)

// Logger is the subset of *slog.Logger the gateway uses.
type Logger interface {
	Warn(msg string, args ...any)
}

// Options tune key layout, retention and corruption handling.
type Options struct {
	Prefix string
	Retain int
	// Lenient skips unreadable snapshots on load instead of failing; each
	// skipped snapshot is logged at warn level.
	Lenient bool
	Logger  Logger
	Now     func() time.Time
}

// Gateway implements domain.Gateway over a blob store.
type Gateway struct {
	store   blob.Store
	prefix  string
	retain  int
	lenient bool
	logger  Logger
	now     func() time.Time
}

// New wraps store with the given options.
func New(store blob.Store, opts Options) *Gateway {
	g := &Gateway{store: store, prefix: opts.Prefix, retain: opts.Retain, lenient: opts.Lenient, logger: opts.Logger, now: opts.Now}
	if g.prefix == "" {
		g.prefix = DefaultPrefix
	}
	if !strings.HasSuffix(g.prefix, "/") {
		g.prefix += "/"
	}
	if g.retain <= 0 {
		g.retain = DefaultRetain
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

type snapshotRef struct {
	key string
	seq int64
}

func (g *Gateway) keyFor(seq int64) string {
	return fmt.Sprintf("%s%s%020d%s", g.prefix, keyStem, seq, keySuffix)
}

func (g *Gateway) parseKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, g.prefix+keyStem)
	if !ok {
		return 0, false
	}
	digits, ok := strings.CutSuffix(rest, keySuffix)
	if !ok || len(digits) != 20 {
		return 0, false
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// snapshots lists snapshot objects oldest first; unrelated keys under the prefix are ignored.
func (g *Gateway) snapshots(ctx context.Context) ([]snapshotRef, error) {
	infos, err := g.store.List(ctx, g.prefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	refs := make([]snapshotRef, 0, len(infos))
	for _, info := range infos {
		if seq, ok := g.parseKey(info.Key); ok {
			refs = append(refs, snapshotRef{key: info.Key, seq: seq})
		}
	}
	return refs, nil
}

// LoadAll returns the newest snapshot's collection, or an empty one when none
// exists. In lenient mode unreadable snapshots are skipped in favour of the
// next older one, and the collection is empty only when none can be read.
func (g *Gateway) LoadAll(ctx context.Context) ([]domain.Exhibit, error) {
	refs, err := g.snapshots(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(refs) - 1; i >= 0; i-- {
		exhibits, err := g.read(ctx, refs[i].key)
		if err == nil {
			return exhibits, nil
		}
		if !g.lenient || ctx.Err() != nil {
			return nil, err
		}
		g.logger.Warn("skipping unreadable exhibit snapshot", "key", refs[i].key, "error", err)
	}
	return []domain.Exhibit{}, nil
}

func (g *Gateway) read(ctx context.Context, key string) ([]domain.Exhibit, error) {
	_, rc, err := g.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return snapshot.Decode(payload)
}

// SaveAll writes a new snapshot with a sequence above every existing one, then
// prunes snapshots beyond the retention count.
func (g *Gateway) SaveAll(ctx context.Context, exhibits []domain.Exhibit) error {
	data, err := snapshot.Encode(exhibits)
	if err != nil {
		return err
	}
	refs, err := g.snapshots(ctx)
	if err != nil {
		return err
	}
	seq := g.now().UnixNano()
	if n := len(refs); n > 0 && refs[n-1].seq >= seq {
		seq = refs[n-1].seq + 1
	}
	opts := blob.PutOptions{ContentType: "application/json", Metadata: map[string]string{"count": strconv.Itoa(len(exhibits))}}
	var written string
	for attempt := 0; attempt < maxPutTry; attempt++ {
		key := g.keyFor(seq)
		_, err = g.store.Put(ctx, key, bytes.NewReader(data), opts)
		if err == nil {
			written = key
			break
		}
		if !errors.Is(err, blob.ErrExists) {
			return fmt.Errorf("put %s: %w", key, err)
		}
		seq++
	}
	if written == "" {
		return fmt.Errorf("put snapshot: %w", err)
	}
	refs = append(refs, snapshotRef{key: written, seq: seq})
	g.prune(ctx, refs)
	return nil
}

func (g *Gateway) prune(ctx context.Context, refs []snapshotRef) {
	if len(refs) <= g.retain {
		return
	}
	for _, ref := range refs[:len(refs)-g.retain] {
		if _, err := g.store.Delete(ctx, ref.key); err != nil {
			g.logger.Warn("prune exhibit snapshot failed", "key", ref.key, "error", err)
		}
	}
}

// Close is a no-op; blob stores hold no connections that need releasing.
func (g *Gateway) Close() error { return nil }
