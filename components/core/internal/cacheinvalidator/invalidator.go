// Package cacheinvalidator broadcasts keyed invalidation notices after a
// Pipeline transaction commits, so GraphEngine and the other in-process
// caches never serve a view built from a superseded snapshot (spec §4.9).
package cacheinvalidator

import (
	"context"
	"fmt"

	"github.com/elder-platform/elder/common/mlog"
	"github.com/elder-platform/elder/common/mredis"
)

const broadcastChannel = "elder:cache:invalidate"

// Subject names the kind of cached view a Key invalidates.
type Subject string

const (
	SubjectOrgTree      Subject = "org_tree"
	SubjectEntityGraph  Subject = "entity_graph"
	SubjectOnCall       Subject = "oncall"
	SubjectMembership   Subject = "membership"
)

// Key identifies one cached view: (tenant_id, subject[, scope]).
type Key struct {
	TenantID string
	Subject  Subject
	Scope    string // rotation/service scope for oncall, group id for membership
}

func (k Key) String() string {
	if k.Scope == "" {
		return fmt.Sprintf("%s:%s", k.TenantID, k.Subject)
	}

	return fmt.Sprintf("%s:%s:%s", k.TenantID, k.Subject, k.Scope)
}

// Listener is notified in-process when a Key is invalidated.
type Listener func(Key)

// Invalidator fans a committed write's invalidation key out to in-process
// listeners and, when Redis is configured, to every other core instance
// via Pub/Sub (spec §4.9).
type Invalidator struct {
	Redis     *mredis.RedisConnection
	Logger    mlog.Logger
	listeners []Listener
}

// New builds an Invalidator. redisConn may be nil: single-instance
// deployments rely on in-process notification alone.
func New(redisConn *mredis.RedisConnection, logger mlog.Logger) *Invalidator {
	return &Invalidator{Redis: redisConn, Logger: logger}
}

// Subscribe registers an in-process listener, called synchronously from
// Invalidate and from the Redis subscription loop started by Listen.
func (inv *Invalidator) Subscribe(l Listener) {
	inv.listeners = append(inv.listeners, l)
}

// Invalidate notifies local listeners and, if Redis is configured,
// publishes key to broadcastChannel for other instances. Callers invoke
// this only after the owning transaction has committed (spec §4.9 point 6).
func (inv *Invalidator) Invalidate(ctx context.Context, key Key) error {
	inv.notifyLocal(key)

	if inv.Redis == nil {
		return nil
	}

	client, err := inv.Redis.GetDB(ctx)
	if err != nil {
		return err
	}

	if err := client.Publish(ctx, broadcastChannel, key.String()).Err(); err != nil {
		if inv.Logger != nil {
			inv.Logger.Warnf("cache invalidation broadcast failed for %s: %v", key, err)
		}

		return err
	}

	return nil
}

func (inv *Invalidator) notifyLocal(key Key) {
	for _, l := range inv.listeners {
		l(key)
	}
}

// Listen subscribes to the Redis broadcast channel and feeds remote
// invalidations to local listeners until ctx is cancelled. No-op if Redis
// is not configured.
func (inv *Invalidator) Listen(ctx context.Context) error {
	if inv.Redis == nil {
		return nil
	}

	client, err := inv.Redis.GetDB(ctx)
	if err != nil {
		return err
	}

	sub := client.Subscribe(ctx, broadcastChannel)
	defer sub.Close()

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			inv.notifyLocal(parseKey(msg.Payload))
		}
	}
}

func parseKey(payload string) Key {
	parts := splitN(payload, ':', 3)

	var tenantID, subject, scope string

	if len(parts) > 0 {
		tenantID = parts[0]
	}

	if len(parts) > 1 {
		subject = parts[1]
	}

	if len(parts) > 2 {
		scope = parts[2]
	}

	return Key{TenantID: tenantID, Subject: Subject(subject), Scope: scope}
}

func splitN(s string, sep byte, n int) []string {
	var out []string

	start := 0

	for i := 0; i < len(s) && len(out) < n-1; i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}

	out = append(out, s[start:])

	return out
}
