package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// PayloadKeyJobID is injected into the payload before the service runs.
	PayloadKeyJobID = "job_id"

	payloadKeyMaxDuration = "max_duration"
	payloadKeyMaxAttempts = "max_attempts"
)

// JobDefaults carries the creation-time budgets. They are passed in
// explicitly from config rather than read from ambient state.
type JobDefaults struct {
	MaxDuration time.Duration // budget for a single attempt
	MaxAttempts int
}

// Job is a durable unit-of-work record tracked from creation through
// completion. LockedUntil is a soft time-bounded lease: it bounds retry
// and runaway execution but is only exclusive when acquired through the
// repository's conditional update.
type Job struct {
	ID          string
	Service     string
	Payload     map[string]any
	CreatedAt   time.Time
	ExpiresAt   *time.Time
	LockedUntil *time.Time
	MaxAttempts int
	CompletedAt *time.Time
	Result      map[string]any
}

// NewJob builds a pending job for the named service. The expiry window is
// max_duration * max_attempts * 2, where both factors may be overridden by
// the payload ("max_duration" in minutes, "max_attempts" as a count).
func NewJob(service string, payload map[string]any, defaults JobDefaults) *Job {
	now := time.Now().UTC()
	dur := payloadDuration(payload, defaults.MaxDuration)
	attempts := payloadInt(payload, payloadKeyMaxAttempts, defaults.MaxAttempts)
	if attempts < 0 {
		attempts = 0
	}
	expires := now.Add(dur * time.Duration(attempts) * 2)
	return &Job{
		ID:          uuid.NewString(),
		Service:     service,
		Payload:     payload,
		CreatedAt:   now,
		ExpiresAt:   &expires,
		MaxAttempts: attempts,
	}
}

// Available reports whether the job may be leased and executed at the
// given instant: not completed, not expired, not under a live lease, and
// with attempt budget remaining.
func (j *Job) Available(now time.Time) bool {
	if j.CompletedAt != nil {
		return false
	}
	if j.ExpiresAt != nil && !j.ExpiresAt.After(now) {
		return false
	}
	if j.LockedUntil != nil && j.LockedUntil.After(now) {
		return false
	}
	return j.MaxAttempts > 0
}

// Expired reports whether the expiry window has passed.
func (j *Job) Expired(now time.Time) bool {
	return j.ExpiresAt != nil && !j.ExpiresAt.After(now)
}

// LeaseDuration is the per-attempt lock window, honoring a payload
// "max_duration" override (minutes).
func (j *Job) LeaseDuration(fallback time.Duration) time.Duration {
	return payloadDuration(j.Payload, fallback)
}

// DecrementAttempts lowers the remaining attempt budget by one, never
// below zero.
func (j *Job) DecrementAttempts() {
	if j.MaxAttempts > 0 {
		j.MaxAttempts--
	}
}

// PayloadCopy returns a shallow copy of the payload so callers can inject
// derived fields without mutating the stored document.
func (j *Job) PayloadCopy() map[string]any {
	out := make(map[string]any, len(j.Payload)+1)
	for k, v := range j.Payload {
		out[k] = v
	}
	return out
}

func payloadDuration(payload map[string]any, fallback time.Duration) time.Duration {
	minutes := payloadInt(payload, payloadKeyMaxDuration, 0)
	if minutes <= 0 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}

// payloadInt tolerates the numeric types a decoded JSON document or an
// in-process caller may hand us.
func payloadInt(payload map[string]any, key string, fallback int) int {
	if payload == nil {
		return fallback
	}
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
