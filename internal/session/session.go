// Package session tracks run state in redis so a submitter can follow
// a batch from outside the worker process.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound means the session never existed or already expired.
var ErrNotFound = errors.New("session not found")

const defaultTTL = 24 * time.Hour

type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: defaultTTL}
}

func keyMeta(sid string) string  { return "clipforge:session:" + sid }
func keyClips(sid string) string { return "clipforge:session:" + sid + ":clips" }

func (s *Store) Start(ctx context.Context, sid, sourceRef string, requested int) error {
	key := keyMeta(sid)
	err := s.rdb.HSet(ctx, key, map[string]any{
		"state":      string(StateRunning),
		"source":     sourceRef,
		"requested":  requested,
		"produced":   0,
		"pct":        0,
		"message":    "queued",
		"started_at": time.Now().UTC().Format(time.RFC3339),
	}).Err()
	if err != nil {
		return fmt.Errorf("session start: %w", err)
	}
	return s.rdb.Expire(ctx, key, s.ttl).Err()
}

func (s *Store) Progress(ctx context.Context, sid string, pct float64, message string) error {
	return s.rdb.HSet(ctx, keyMeta(sid), map[string]any{
		"pct":     pct,
		"message": message,
	}).Err()
}

// ClipReady appends the produced file and bumps the counter so readers
// can stream results before the batch completes.
func (s *Store) ClipReady(ctx context.Context, sid, file string) error {
	key := keyClips(sid)
	if err := s.rdb.RPush(ctx, key, file).Err(); err != nil {
		return err
	}
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		return err
	}
	return s.rdb.HIncrBy(ctx, keyMeta(sid), "produced", 1).Err()
}

func (s *Store) Complete(ctx context.Context, sid string, produced int) error {
	return s.rdb.HSet(ctx, keyMeta(sid), map[string]any{
		"state":    string(StateDone),
		"pct":      100,
		"produced": produced,
		"message":  fmt.Sprintf("done: %d clips", produced),
	}).Err()
}

func (s *Store) Fail(ctx context.Context, sid string, cause error) error {
	msg := "failed"
	if cause != nil {
		msg = "failed: " + cause.Error()
	}
	return s.rdb.HSet(ctx, keyMeta(sid), map[string]any{
		"state":   string(StateFailed),
		"message": msg,
	}).Err()
}

type Snapshot struct {
	State     State
	Pct       float64
	Message   string
	Source    string
	Requested int
	Produced  int
	Clips     []string
}

func (s *Store) Snapshot(ctx context.Context, sid string) (Snapshot, error) {
	vals, err := s.rdb.HGetAll(ctx, keyMeta(sid)).Result()
	if err != nil {
		return Snapshot{}, err
	}
	if len(vals) == 0 {
		return Snapshot{}, ErrNotFound
	}

	clips, err := s.rdb.LRange(ctx, keyClips(sid), 0, -1).Result()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		State:   State(vals["state"]),
		Message: vals["message"],
		Source:  vals["source"],
		Clips:   clips,
	}
	snap.Pct, _ = strconv.ParseFloat(vals["pct"], 64)
	snap.Requested, _ = strconv.Atoi(vals["requested"])
	snap.Produced, _ = strconv.Atoi(vals["produced"])
	return snap, nil
}
