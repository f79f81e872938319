// Package redisledger keeps failed-attempt counters in Redis sorted sets so
// every instance of the service shares one rate-limit view.
//
// Each failure is added to two sets, one keyed by user and one by ip, scored by
// its timestamp. Entries older than the retention window are trimmed on write.
// Successful attempts are not counted; configure WithArchive to keep the full
// ledger in another AttemptStorage.
package redisledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mfakit/svc/mfa"
)

// DefaultRetention matches the default rate-limit window.
const DefaultRetention = mfa.DefaultRateLimitWindow

// Ledger is an mfa.AttemptStorage backed by Redis.
type Ledger struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	archive   mfa.AttemptStorage
}

var _ mfa.AttemptStorage = (*Ledger)(nil)

// Option configures a Ledger.
type Option func(*Ledger)

// WithPrefix sets the key prefix, e.g. "mfa:".
func WithPrefix(prefix string) Option {
	return func(l *Ledger) {
		l.prefix = prefix
	}
}

// WithRetention sets how long failures are kept. It must not be shorter than the rate-limit window.
func WithRetention(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.retention = d
		}
	}
}

// WithArchive also writes every attempt to archive, which must be durable.
func WithArchive(archive mfa.AttemptStorage) Option {
	return func(l *Ledger) {
		l.archive = archive
	}
}

// New creates a ledger on top of client.
func New(client redis.UniversalClient, opts ...Option) *Ledger {
	l := &Ledger{client: client, retention: DefaultRetention}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) userKey(id uuid.UUID) string {
	return l.prefix + "attempts:user:" + id.String()
}

func (l *Ledger) ipKey(ip string) string {
	return l.prefix + "attempts:ip:" + ip
}

// LogAttempt records a failure in the user and ip sets and forwards the attempt to the archive.
func (l *Ledger) LogAttempt(ctx context.Context, a mfa.Attempt) error {
	if l.archive != nil {
		if err := l.archive.LogAttempt(ctx, a); err != nil {
			return err
		}
	}
	if a.Success {
		return nil
	}

	score := float64(a.CreatedAt.UnixMilli())
	cutoff := strconv.FormatInt(a.CreatedAt.Add(-l.retention).UnixMilli(), 10)
	member := a.ID.String()

	keys := []string{l.userKey(a.UserID)}
	if a.IP != "" {
		keys = append(keys, l.ipKey(a.IP))
	}

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
			pipe.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff)
			pipe.Expire(ctx, key, l.retention)
		}
		return nil
	})
	return err
}

// CountFailures counts set members scored at or after since.
func (l *Ledger) CountFailures(ctx context.Context, userID uuid.UUID, ip string, since time.Time) (mfa.FailureCounts, error) {
	from := strconv.FormatInt(since.UnixMilli(), 10)

	pipe := l.client.Pipeline()
	userCount := pipe.ZCount(ctx, l.userKey(userID), from, "+inf")
	var ipCount *redis.IntCmd
	if ip != "" {
		ipCount = pipe.ZCount(ctx, l.ipKey(ip), from, "+inf")
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return mfa.FailureCounts{}, err
	}

	counts := mfa.FailureCounts{User: int(userCount.Val())}
	if ipCount != nil {
		counts.IP = int(ipCount.Val())
	}
	return counts, nil
}
