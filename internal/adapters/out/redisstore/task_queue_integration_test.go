package redisstore_test

import (
	"context"
	"testing"
	"time"

	"routeopt/internal/adapters/out/redisstore"
	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisStoreIntegrationTestSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	rdb       *redis.Client
}

func (suite *RedisStoreIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	suite.Require().NoError(err)
	suite.container = container

	uri, err := container.ConnectionString(ctx)
	suite.Require().NoError(err)

	opts, err := redis.ParseURL(uri)
	suite.Require().NoError(err)
	suite.rdb = redis.NewClient(opts)
}

func (suite *RedisStoreIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.rdb.FlushAll(suite.T().Context()).Err())
}

func (suite *RedisStoreIntegrationTestSuite) TearDownSuite() {
	if suite.rdb != nil {
		_ = suite.rdb.Close()
	}
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *RedisStoreIntegrationTestSuite) queue(visibility time.Duration) *redisstore.TaskQueue {
	return redisstore.NewTaskQueue(suite.rdb, redisstore.QueueOptions{
		Name:              "test",
		VisibilityTimeout: visibility,
		MaxReceiveCount:   3,
	})
}

func (suite *RedisStoreIntegrationTestSuite) TestSendReceiveDelete() {
	ctx := suite.T().Context()
	q := suite.queue(time.Minute)
	problemID := kernel.NewUUID()

	id, err := q.Send(ctx, problemID)
	suite.Require().NoError(err)
	suite.NotEmpty(id)
	suite.assertStats(q, ports.QueueStats{Visible: 1})

	msg, err := q.Receive(ctx)
	suite.Require().NoError(err)
	suite.Require().NotNil(msg)
	suite.Equal(id, msg.ID)
	suite.Equal(problemID.String(), msg.Job.ProblemID)
	suite.Equal(int64(1), msg.ReceiveCount)
	suite.False(msg.SentAt.IsZero())
	suite.assertStats(q, ports.QueueStats{NotVisible: 1})

	suite.Require().NoError(q.Delete(ctx, msg.Receipt))
	suite.assertStats(q, ports.QueueStats{})

	empty, err := q.Receive(ctx)
	suite.Require().NoError(err)
	suite.Nil(empty)
}

func (suite *RedisStoreIntegrationTestSuite) TestRedeliveryAfterVisibilityTimeout_DeadLettersPastLimit() {
	ctx := suite.T().Context()
	q := suite.queue(100 * time.Millisecond)
	problemID := kernel.NewUUID()

	_, err := q.Send(ctx, problemID)
	suite.Require().NoError(err)

	for attempt := int64(1); attempt <= 3; attempt++ {
		msg, receiveErr := q.Receive(ctx)
		suite.Require().NoError(receiveErr)
		suite.Require().NotNil(msg, "attempt %d", attempt)
		suite.Equal(attempt, msg.ReceiveCount)
		time.Sleep(150 * time.Millisecond)
	}

	msg, err := q.Receive(ctx)
	suite.Require().NoError(err)
	suite.Nil(msg, "a message past the receive limit is never delivered again")
	suite.assertStats(q, ports.QueueStats{DeadLettered: 1})

	dead, err := q.ListDeadLetters(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(dead, 1)
	suite.Equal(problemID.String(), dead[0].Job.ProblemID)
	suite.Equal(int64(3), dead[0].ReceiveCount)

	replayed, err := q.ReplayDeadLetters(ctx, 5)
	suite.Require().NoError(err)
	suite.Equal(int64(1), replayed)

	msg, err = q.Receive(ctx)
	suite.Require().NoError(err)
	suite.Require().NotNil(msg)
	suite.Equal(int64(1), msg.ReceiveCount)
}

func (suite *RedisStoreIntegrationTestSuite) TestDelete_StaleReceiptIsIgnored() {
	ctx := suite.T().Context()
	q := suite.queue(100 * time.Millisecond)

	_, err := q.Send(ctx, kernel.NewUUID())
	suite.Require().NoError(err)

	first, err := q.Receive(ctx)
	suite.Require().NoError(err)
	time.Sleep(150 * time.Millisecond)
	second, err := q.Receive(ctx)
	suite.Require().NoError(err)
	suite.Require().NotNil(second)

	suite.Require().NoError(q.Delete(ctx, first.Receipt))
	suite.assertStats(q, ports.QueueStats{NotVisible: 1})

	suite.Require().NoError(q.Delete(ctx, second.Receipt))
	suite.assertStats(q, ports.QueueStats{})
}

func (suite *RedisStoreIntegrationTestSuite) TestDelete_LateAckKeepsDeadLetter() {
	ctx := suite.T().Context()
	q := suite.queue(100 * time.Millisecond)
	problemID := kernel.NewUUID()

	_, err := q.Send(ctx, problemID)
	suite.Require().NoError(err)

	var last *ports.QueueMessage
	for attempt := 1; attempt <= 3; attempt++ {
		last, err = q.Receive(ctx)
		suite.Require().NoError(err)
		suite.Require().NotNil(last)
		time.Sleep(150 * time.Millisecond)
	}

	msg, err := q.Receive(ctx)
	suite.Require().NoError(err)
	suite.Require().Nil(msg)
	suite.assertStats(q, ports.QueueStats{DeadLettered: 1})

	suite.Require().NoError(q.Delete(ctx, last.Receipt))

	dead, err := q.ListDeadLetters(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(dead, 1)
	suite.Equal(problemID.String(), dead[0].Job.ProblemID)

	replayed, err := q.ReplayDeadLetters(ctx, 1)
	suite.Require().NoError(err)
	suite.Equal(int64(1), replayed)

	msg, err = q.Receive(ctx)
	suite.Require().NoError(err)
	suite.Require().NotNil(msg)
	suite.Equal(problemID.String(), msg.Job.ProblemID)
}

func (suite *RedisStoreIntegrationTestSuite) TestChangeVisibility_ExtendsLease() {
	ctx := suite.T().Context()
	q := suite.queue(100 * time.Millisecond)

	_, err := q.Send(ctx, kernel.NewUUID())
	suite.Require().NoError(err)
	msg, err := q.Receive(ctx)
	suite.Require().NoError(err)

	suite.Require().NoError(q.ChangeVisibility(ctx, msg.Receipt, time.Hour))
	time.Sleep(150 * time.Millisecond)

	again, err := q.Receive(ctx)
	suite.Require().NoError(err)
	suite.Nil(again)

	err = q.ChangeVisibility(ctx, "unknown/receipt", time.Hour)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	err = q.ChangeVisibility(ctx, "garbage", time.Hour)
	suite.Require().ErrorIs(err, errs.ErrValueIsInvalid)
}

func (suite *RedisStoreIntegrationTestSuite) TestEventDeadLetters_NewestFirst() {
	ctx := suite.T().Context()
	store := redisstore.NewEventDeadLetters(suite.rdb)

	for _, eventType := range []optimization.EventType{optimization.EventInProgress, optimization.EventCompleted} {
		event := optimization.NewLifecycleEvent(eventType,
			optimization.EventDetail{ProblemID: kernel.NewUUID().String()}, time.Now().UTC())
		suite.Require().NoError(store.Add(ctx, ports.DeadLetterEvent{
			Event:    event,
			Reason:   "store unavailable",
			Attempts: 5,
			FailedAt: time.Now().UTC(),
		}))
	}

	entries, err := store.List(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)
	suite.Equal(optimization.EventCompleted, entries[0].Event.Type)
	suite.Equal(5, entries[0].Attempts)
	suite.Equal("store unavailable", entries[1].Reason)
}

func (suite *RedisStoreIntegrationTestSuite) assertStats(q *redisstore.TaskQueue, expected ports.QueueStats) {
	stats, err := q.Stats(suite.T().Context())
	suite.Require().NoError(err)
	suite.Equal(expected, stats)
}

func TestRedisStoreIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreIntegrationTestSuite))
}
