package cmd

import (
	"log/slog"
	"os"
	"sync"

	apihttp "routeopt/internal/adapters/in/http"
	"routeopt/internal/adapters/in/events"
	"routeopt/internal/adapters/in/queue"
	"routeopt/internal/adapters/out/natsbus"
	"routeopt/internal/adapters/out/postgres"
	"routeopt/internal/adapters/out/redisstore"
	"routeopt/internal/adapters/out/routing/osrm"
	"routeopt/internal/adapters/out/routing/straightline"
	"routeopt/internal/core/application/autoscaling"
	"routeopt/internal/core/application/usecases/commands"
	"routeopt/internal/core/application/usecases/queries"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/domain/services"
	"routeopt/internal/core/ports"
	"routeopt/internal/jobs"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	rdb        redis.UniversalClient
	js         jetstream.JetStream
	logger     *slog.Logger
	uowFactory postgres.GormUnitOfWorkFactory

	queueOnce sync.Once
	queue     *redisstore.TaskQueue
	poolOnce  sync.Once
	pool      *queue.Pool
}

func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	rdb redis.UniversalClient,
	js jetstream.JetStream,
	logger *slog.Logger,
) *CompositionRoot {
	return &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		rdb:        rdb,
		js:         js,
		logger:     logger,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
	}
}

// Outbound adapters

func (c *CompositionRoot) TaskQueue() *redisstore.TaskQueue {
	c.queueOnce.Do(func() {
		c.queue = redisstore.NewTaskQueue(c.rdb, redisstore.QueueOptions{
			Name:              c.config.Queue.Name,
			VisibilityTimeout: c.config.Queue.VisibilityTimeout,
			MaxReceiveCount:   c.config.Queue.MaxReceiveCount,
		})
	})
	return c.queue
}

func (c *CompositionRoot) EventDeadLetters() *redisstore.EventDeadLetters {
	return redisstore.NewEventDeadLetters(c.rdb)
}

func (c *CompositionRoot) EventPublisher() *natsbus.Publisher {
	return natsbus.NewPublisher(c.js)
}

func (c *CompositionRoot) RouteCalculator() ports.RouteCalculator {
	if c.config.Routing.Provider == RoutingOSRM {
		return osrm.NewClient(osrm.Options{
			BaseURL: c.config.Routing.OSRMURL,
			Profile: c.config.Routing.Profile,
			Timeout: c.config.Routing.Timeout,
		})
	}
	return straightline.NewCalculator(c.config.Routing.SpeedKmh)
}

func (c *CompositionRoot) Solver() ports.Solver {
	return services.NewGreedySolver(c.config.Worker.SpeedKmh)
}

// Command handlers

func (c *CompositionRoot) CreateSubmitOptimizationCommandHandler() commands.SubmitOptimizationCommandHandler {
	return commands.NewSubmitOptimizationCommandHandler(
		c.taskUoWFactory(), c.TaskQueue(), commands.DefaultSubmitRetry, c.logger)
}

func (c *CompositionRoot) CreateDeactivateOptimizationCommandHandler() commands.DeactivateOptimizationCommandHandler {
	return commands.NewDeactivateOptimizationCommandHandler(c.taskUoWFactory())
}

func (c *CompositionRoot) CreateReplayDeadLettersCommandHandler() commands.ReplayDeadLettersCommandHandler {
	return commands.NewReplayDeadLettersCommandHandler(c.TaskQueue(), c.logger)
}

func (c *CompositionRoot) CreateApplyLifecycleEventCommandHandler() commands.ApplyLifecycleEventCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewApplyLifecycleEventCommandHandler(f, c.logger)
}

func (c *CompositionRoot) CreateProcessOptimizationCommandHandler() commands.ProcessOptimizationCommandHandler {
	host, _ := os.Hostname()

	metadata := optimization.ExecutionDetails{Worker: "worker-pool", Host: host}
	if c.config.Worker.LogGroup != "" {
		metadata.Log = &optimization.LogLocation{
			Region: c.config.Worker.LogRegion,
			Group:  c.config.Worker.LogGroup,
			Stream: host,
		}
	}

	return commands.NewProcessOptimizationCommandHandler(
		c.taskUoWFactory(),
		c.TaskQueue(),
		c.EventPublisher(),
		c.Solver(),
		commands.ProcessOptimizationOptions{
			Metadata:          metadata,
			LeaseExtension:    c.config.Worker.LeaseExtension,
			VisibilityTimeout: c.config.Queue.VisibilityTimeout,
		},
		c.logger,
	)
}

// Query handlers

func (c *CompositionRoot) CreateGetOptimizationQueryHandler() queries.GetOptimizationQueryHandler {
	return queries.NewGetOptimizationQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOptimizationsQueryHandler() queries.ListOptimizationsQueryHandler {
	return queries.NewListOptimizationsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetOptimizationResultQueryHandler() queries.GetOptimizationResultQueryHandler {
	return queries.NewGetOptimizationResultQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetAssignmentResultQueryHandler() queries.GetAssignmentResultQueryHandler {
	return queries.NewGetAssignmentResultQueryHandler(c.gormDB, c.RouteCalculator())
}

func (c *CompositionRoot) CreateFindStaleSubmissionsQueryHandler() queries.FindStaleSubmissionsQueryHandler {
	return queries.NewFindStaleSubmissionsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListDeadLettersQueryHandler() queries.ListDeadLettersQueryHandler {
	return queries.NewListDeadLettersQueryHandler(c.TaskQueue(), c.EventDeadLetters())
}

// Inbound adapters

func (c *CompositionRoot) NewHTTPServer() (*echo.Echo, error) {
	server := apihttp.NewServer(apihttp.Handlers{
		Submit:      c.CreateSubmitOptimizationCommandHandler(),
		Deactivate:  c.CreateDeactivateOptimizationCommandHandler(),
		Replay:      c.CreateReplayDeadLettersCommandHandler(),
		Get:         c.CreateGetOptimizationQueryHandler(),
		List:        c.CreateListOptimizationsQueryHandler(),
		Result:      c.CreateGetOptimizationResultQueryHandler(),
		Assignments: c.CreateGetAssignmentResultQueryHandler(),
		DeadLetters: c.CreateListDeadLettersQueryHandler(),
	}, c.logger)
	return apihttp.NewEcho(server, c.logger)
}

// WorkerPool is shared by the worker role and the autoscaler that resizes it.
func (c *CompositionRoot) WorkerPool() *queue.Pool {
	c.poolOnce.Do(func() {
		c.pool = queue.NewPool(
			c.TaskQueue(),
			c.CreateProcessOptimizationCommandHandler(),
			queue.PoolOptions{IdleWait: c.config.Worker.IdleWait},
			c.logger,
		)
		c.pool.SetCapacity(c.config.Worker.Capacity)
	})
	return c.pool
}

// StreamOptions describes the lifecycle event stream shared by publishers
// and the router.
func (c *CompositionRoot) StreamOptions() natsbus.StreamOptions {
	return natsbus.StreamOptions{
		Name:       c.config.NATS.Stream,
		MaxAge:     c.config.NATS.StreamMaxAge,
		Duplicates: c.config.NATS.DuplicateWindow,
		Replicas:   c.config.NATS.Replicas,
	}
}

func (c *CompositionRoot) NewEventRouter() *events.Router {
	r := c.config.Router

	opts := events.DefaultRouterOptions()
	opts.Stream = c.config.NATS.Stream
	opts.Durable = r.Durable
	opts.BatchSize = r.BatchSize
	opts.Concurrency = r.Concurrency
	opts.AckWait = r.AckWait
	opts.MaxAge = r.MaxAge
	opts.Attempts = r.Attempts
	opts.InitialInterval = r.InitialInterval
	opts.MaxInterval = r.MaxInterval

	return events.NewRouter(c.js, c.CreateApplyLifecycleEventCommandHandler(), c.EventDeadLetters(), opts, c.logger)
}

// Jobs

func (c *CompositionRoot) NewAutoscalerJob() *jobs.AutoscalerJob {
	a := c.config.Autoscaler

	opts := autoscaling.DefaultOptions()
	opts.Bounds = services.CapacityBounds{Min: a.MinCapacity, Max: a.MaxCapacity}
	opts.ScaleOutCooldown = a.ScaleOutCooldown
	opts.ScaleInCooldown = a.ScaleInCooldown

	controller := autoscaling.NewController(c.TaskQueue(), c.WorkerPool(), opts, c.logger)
	return jobs.NewAutoscalerJob(controller, jobs.AutoscalerSchedule{
		SampleInterval:   a.SampleInterval,
		ScaleOutInterval: a.ScaleOutInterval,
		ScaleInInterval:  a.ScaleInInterval,
	}, c.logger)
}

func (c *CompositionRoot) NewStaleSubmissionJob() *jobs.StaleSubmissionJob {
	return jobs.NewStaleSubmissionJob(
		c.CreateFindStaleSubmissionsQueryHandler(),
		c.config.Reaper.Threshold,
		c.config.Reaper.Interval,
		c.logger,
	)
}

func (c *CompositionRoot) taskUoWFactory() commands.TaskUoWFactory {
	return FuncTaskUoWFactory(func() commands.TaskUoW {
		return c.uowFactory.Create()
	})
}

type FuncTaskUoWFactory func() commands.TaskUoW

func (f FuncTaskUoWFactory) Create() commands.TaskUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
