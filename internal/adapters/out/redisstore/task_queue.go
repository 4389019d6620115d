// Package redisstore implements the job queue and the event dead-letter list
// on Redis.
//
// Queue layout, all keys sharing the {name} hash tag:
//
//	q:{name}:ready       list of message ids waiting for a worker
//	q:{name}:inflight    sorted set of received ids scored by visibility deadline (ms)
//	q:{name}:dlq         list of dead-lettered ids
//	q:{name}:msg:<id>    hash {body, sent_at, receives, receipt}
//
// Every state change that touches more than one key runs as a Lua script.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultVisibilityTimeout = time.Hour
	DefaultMaxReceiveCount   = 3
)

// receiveScript returns expired in-flight ids to the ready list, then pops
// the next id. Ids over the receive limit go to the dead-letter list.
var receiveScript = redis.NewScript(`
local ready, inflight, dlq = KEYS[1], KEYS[2], KEYS[3]
local prefix = ARGV[1]
local now = tonumber(ARGV[2])
local visibility = tonumber(ARGV[3])
local maxReceive = tonumber(ARGV[4])

local expired = redis.call('ZRANGEBYSCORE', inflight, '-inf', now)
for _, id in ipairs(expired) do
	redis.call('ZREM', inflight, id)
	redis.call('RPUSH', ready, id)
end

while true do
	local id = redis.call('RPOP', ready)
	if not id then
		return false
	end
	local key = prefix .. id
	if redis.call('EXISTS', key) == 1 then
		local receives = redis.call('HINCRBY', key, 'receives', 1)
		if receives > maxReceive then
			redis.call('HSET', key, 'receives', maxReceive)
			redis.call('LPUSH', dlq, id)
		else
			local receipt = id .. '/' .. ARGV[5]
			redis.call('HSET', key, 'receipt', receipt)
			redis.call('ZADD', inflight, now + visibility, id)
			return {id, receipt, receives, redis.call('HGET', key, 'body'), redis.call('HGET', key, 'sent_at')}
		end
	end
end
`)

// deleteScript only removes an id that is still in flight. A dead-lettered
// or requeued message keeps its last receipt and must survive a late ack.
var deleteScript = redis.NewScript(`
local key = ARGV[1] .. ARGV[2]
if redis.call('HGET', key, 'receipt') ~= ARGV[3] then
	return 0
end
if not redis.call('ZSCORE', KEYS[1], ARGV[2]) then
	return 0
end
redis.call('ZREM', KEYS[1], ARGV[2])
redis.call('DEL', key)
return 1
`)

var changeVisibilityScript = redis.NewScript(`
local key = ARGV[1] .. ARGV[2]
if redis.call('HGET', key, 'receipt') ~= ARGV[3] then
	return 0
end
if not redis.call('ZSCORE', KEYS[1], ARGV[2]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[4], ARGV[2])
return 1
`)

var replayScript = redis.NewScript(`
local moved = 0
for i = 1, tonumber(ARGV[2]) do
	local id = redis.call('RPOP', KEYS[1])
	if not id then
		break
	end
	local key = ARGV[1] .. id
	if redis.call('EXISTS', key) == 1 then
		redis.call('HSET', key, 'receives', 0)
		redis.call('HDEL', key, 'receipt')
		redis.call('LPUSH', KEYS[2], id)
		moved = moved + 1
	end
end
return moved
`)

// QueueOptions configures a TaskQueue.
type QueueOptions struct {
	Name              string
	VisibilityTimeout time.Duration
	MaxReceiveCount   int64
}

// TaskQueue implements ports.TaskQueue and ports.QueueDeadLetters.
type TaskQueue struct {
	rdb  redis.UniversalClient
	opts QueueOptions
	now  func() time.Time
}

func NewTaskQueue(rdb redis.UniversalClient, opts QueueOptions) *TaskQueue {
	if opts.VisibilityTimeout <= 0 {
		opts.VisibilityTimeout = DefaultVisibilityTimeout
	}
	if opts.MaxReceiveCount <= 0 {
		opts.MaxReceiveCount = DefaultMaxReceiveCount
	}
	if opts.Name == "" {
		opts.Name = "optimization"
	}

	return &TaskQueue{rdb: rdb, opts: opts, now: time.Now}
}

func (q *TaskQueue) key(suffix string) string {
	return "q:{" + q.opts.Name + "}:" + suffix
}

func (q *TaskQueue) msgPrefix() string {
	return q.key("msg:")
}

// Send enqueues {"problemId": ...} and returns the message id.
func (q *TaskQueue) Send(ctx context.Context, problemID kernel.UUID) (string, error) {
	if err := problemID.Validate(); err != nil {
		return "", err
	}

	body, err := json.Marshal(optimization.JobMessage{ProblemID: problemID.String()})
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.msgPrefix()+id,
			"body", body,
			"sent_at", q.now().UnixMilli(),
			"receives", 0,
		)
		pipe.LPush(ctx, q.key("ready"), id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("send %s: %w", problemID, err)
	}

	return id, nil
}

// Receive leases the next message for the visibility timeout. It returns
// (nil, nil) when nothing is visible.
func (q *TaskQueue) Receive(ctx context.Context) (*ports.QueueMessage, error) {
	res, err := receiveScript.Run(ctx, q.rdb,
		[]string{q.key("ready"), q.key("inflight"), q.key("dlq")},
		q.msgPrefix(),
		q.now().UnixMilli(),
		q.opts.VisibilityTimeout.Milliseconds(),
		q.opts.MaxReceiveCount,
		uuid.NewString(),
	).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) != 5 {
		return nil, fmt.Errorf("receive: unexpected reply of %d elements", len(res))
	}

	msg := &ports.QueueMessage{
		ID:      fmt.Sprint(res[0]),
		Receipt: fmt.Sprint(res[1]),
	}
	if n, ok := res[2].(int64); ok {
		msg.ReceiveCount = n
	}
	if sentAt, convErr := strconv.ParseInt(fmt.Sprint(res[4]), 10, 64); convErr == nil {
		msg.SentAt = time.UnixMilli(sentAt).UTC()
	}
	// A malformed body leaves Job empty. The worker never acks such a
	// message, so it dead-letters after the receive limit.
	_ = json.Unmarshal([]byte(fmt.Sprint(res[3])), &msg.Job)

	return msg, nil
}

// Delete acks the delivery identified by receipt.
func (q *TaskQueue) Delete(ctx context.Context, receipt string) error {
	id, err := receiptID(receipt)
	if err != nil {
		return err
	}

	return deleteScript.Run(ctx, q.rdb, []string{q.key("inflight")}, q.msgPrefix(), id, receipt).Err()
}

// ChangeVisibility moves the delivery's deadline to now+timeout.
func (q *TaskQueue) ChangeVisibility(ctx context.Context, receipt string, timeout time.Duration) error {
	id, err := receiptID(receipt)
	if err != nil {
		return err
	}

	deadline := q.now().Add(timeout).UnixMilli()
	n, err := changeVisibilityScript.Run(ctx, q.rdb,
		[]string{q.key("inflight")}, q.msgPrefix(), id, receipt, deadline).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NewObjectNotFoundError("receipt", receipt)
	}

	return nil
}

// Stats counts in-flight messages whose deadline passed as visible.
func (q *TaskQueue) Stats(ctx context.Context) (ports.QueueStats, error) {
	now := strconv.FormatInt(q.now().UnixMilli(), 10)

	var ready, expired, inFlight, dead *redis.IntCmd
	_, err := q.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		ready = pipe.LLen(ctx, q.key("ready"))
		expired = pipe.ZCount(ctx, q.key("inflight"), "-inf", now)
		inFlight = pipe.ZCount(ctx, q.key("inflight"), "("+now, "+inf")
		dead = pipe.LLen(ctx, q.key("dlq"))
		return nil
	})
	if err != nil {
		return ports.QueueStats{}, err
	}

	return ports.QueueStats{
		Visible:      ready.Val() + expired.Val(),
		NotVisible:   inFlight.Val(),
		DeadLettered: dead.Val(),
	}, nil
}

// ListDeadLetters returns up to limit dead-lettered messages, newest first.
func (q *TaskQueue) ListDeadLetters(ctx context.Context, limit int64) ([]ports.QueueMessage, error) {
	if limit <= 0 {
		return []ports.QueueMessage{}, nil
	}

	ids, err := q.rdb.LRange(ctx, q.key("dlq"), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = q.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, q.msgPrefix()+id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]ports.QueueMessage, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		msg := ports.QueueMessage{ID: id}
		msg.ReceiveCount, _ = strconv.ParseInt(fields["receives"], 10, 64)
		if sentAt, convErr := strconv.ParseInt(fields["sent_at"], 10, 64); convErr == nil {
			msg.SentAt = time.UnixMilli(sentAt).UTC()
		}
		_ = json.Unmarshal([]byte(fields["body"]), &msg.Job)
		messages = append(messages, msg)
	}

	return messages, nil
}

// ReplayDeadLetters moves the oldest count dead letters back to the ready list.
func (q *TaskQueue) ReplayDeadLetters(ctx context.Context, count int64) (int64, error) {
	if count <= 0 {
		return 0, nil
	}

	return replayScript.Run(ctx, q.rdb,
		[]string{q.key("dlq"), q.key("ready")}, q.msgPrefix(), count).Int64()
}

func receiptID(receipt string) (string, error) {
	id, _, ok := strings.Cut(receipt, "/")
	if !ok || id == "" {
		return "", errs.NewValueIsInvalidError("receipt")
	}
	return id, nil
}
