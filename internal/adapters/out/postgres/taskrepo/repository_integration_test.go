package taskrepo_test

import (
	"context"
	"testing"
	"time"

	"routeopt/internal/adapters/out/postgres/taskrepo"
	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TaskRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *taskrepo.GormTaskRepository
}

func (suite *TaskRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&taskrepo.TaskDTO{}))
}

func (suite *TaskRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE optimization_tasks").Error)
	suite.repository = taskrepo.NewGormTaskRepository(suite.db)
}

func (suite *TaskRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *TaskRepositoryIntegrationTestSuite) TestAdd_ThenGet_RoundTrips() {
	ctx := suite.T().Context()
	task := suite.createTestTask()

	suite.Require().NoError(suite.repository.Add(ctx, task))

	stored, err := suite.repository.Get(ctx, task.ProblemID())
	suite.Require().NoError(err)
	suite.True(stored.ProblemID().IsEqual(task.ProblemID()))
	suite.Equal(optimization.Submitted, stored.Status())
	suite.True(stored.IsActive())
	suite.True(stored.CreatedAt().Equal(task.CreatedAt()))
	suite.Equal(task.Problem(), stored.Problem())
	suite.Nil(stored.ExecutionDetails())
	suite.Nil(stored.Failure())
}

func (suite *TaskRepositoryIntegrationTestSuite) TestAdd_DuplicateProblemID_ReturnsAlreadyExists() {
	ctx := suite.T().Context()
	task := suite.createTestTask()

	suite.Require().NoError(suite.repository.Add(ctx, task))
	err := suite.repository.Add(ctx, task)

	suite.Require().ErrorIs(err, errs.ErrObjectAlreadyExists)
}

func (suite *TaskRepositoryIntegrationTestSuite) TestGet_Missing_ReturnsNotFound() {
	_, err := suite.repository.Get(suite.T().Context(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *TaskRepositoryIntegrationTestSuite) TestUpdateStatus_StoresMetadataAndFailure() {
	ctx := suite.T().Context()
	task := suite.createTestTask()
	suite.Require().NoError(suite.repository.Add(ctx, task))

	suite.apply(task, optimization.EventMetadataUpdate, optimization.EventDetail{
		Metadata: &optimization.ExecutionDetails{Worker: "worker-1", Host: "node-a"},
	})
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, task))

	suite.apply(task, optimization.EventError, optimization.EventDetail{
		Error: &optimization.ErrorDetail{ErrorMessage: "solver crashed", ErrorDetails: "exit 137"},
	})
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, task))

	stored, err := suite.repository.Get(ctx, task.ProblemID())
	suite.Require().NoError(err)
	suite.Equal(optimization.Error, stored.Status())
	suite.Require().NotNil(stored.ExecutionDetails())
	suite.Equal("worker-1", stored.ExecutionDetails().Worker)
	suite.Require().NotNil(stored.Failure())
	suite.Equal("solver crashed", stored.Failure().ErrorMessage)
	suite.Equal("exit 137", stored.Failure().ErrorDetails)
}

func (suite *TaskRepositoryIntegrationTestSuite) TestUpdateStatus_StaleCopy_ReturnsConflict() {
	ctx := suite.T().Context()
	task := suite.createTestTask()
	suite.Require().NoError(suite.repository.Add(ctx, task))

	first, err := suite.repository.Get(ctx, task.ProblemID())
	suite.Require().NoError(err)
	second, err := suite.repository.Get(ctx, task.ProblemID())
	suite.Require().NoError(err)

	suite.apply(first, optimization.EventError, optimization.EventDetail{})
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, first))

	suite.apply(second, optimization.EventMetadataUpdate, optimization.EventDetail{})
	err = suite.repository.UpdateStatus(ctx, second)

	suite.Require().ErrorIs(err, ports.ErrStatusConflict)
	stored, err := suite.repository.Get(ctx, task.ProblemID())
	suite.Require().NoError(err)
	suite.Equal(optimization.Error, stored.Status())
}

func (suite *TaskRepositoryIntegrationTestSuite) TestUpdateStatus_CompletedSkipsIntermediateStates() {
	ctx := suite.T().Context()
	task := suite.createTestTask()
	suite.Require().NoError(suite.repository.Add(ctx, task))

	suite.apply(task, optimization.EventCompleted, optimization.EventDetail{})
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, task))

	stored, err := suite.repository.Get(ctx, task.ProblemID())
	suite.Require().NoError(err)
	suite.Equal(optimization.Completed, stored.Status())
}

func (suite *TaskRepositoryIntegrationTestSuite) TestUpdateActivity() {
	ctx := suite.T().Context()
	task := suite.createTestTask()
	suite.Require().NoError(suite.repository.Add(ctx, task))

	suite.True(task.Deactivate(time.Now().UTC()))
	suite.Require().NoError(suite.repository.UpdateActivity(ctx, task))

	stored, err := suite.repository.Get(ctx, task.ProblemID())
	suite.Require().NoError(err)
	suite.False(stored.IsActive())

	missing := suite.createTestTask()
	suite.Require().ErrorIs(suite.repository.UpdateActivity(ctx, missing), errs.ErrObjectNotFound)
}

func (suite *TaskRepositoryIntegrationTestSuite) apply(
	task *optimization.Task,
	eventType optimization.EventType,
	detail optimization.EventDetail,
) {
	detail.ProblemID = task.ProblemID().String()
	changed, err := task.Apply(optimization.NewLifecycleEvent(eventType, detail, time.Now()), time.Now().UTC())
	suite.Require().NoError(err)
	suite.Require().True(changed)
}

func (suite *TaskRepositoryIntegrationTestSuite) createTestTask() *optimization.Task {
	weight := 4.0
	capacity := 10.0
	depot := &optimization.Position{ID: "depot", Lat: 52.52, Lon: 13.405}
	problem := optimization.Problem{
		Orders: []optimization.Order{{
			ID:          "s1",
			Origin:      depot,
			Destination: &optimization.Position{ID: "d1", Lat: 52.51, Lon: 13.39},
			Attributes:  &optimization.OrderAttributes{Weight: &weight},
		}},
		Fleet: []optimization.Vehicle{{
			ID:               "v1",
			StartingLocation: depot,
			Limits:           &optimization.VehicleLimits{MaxCapacity: &capacity},
		}},
	}

	task, err := optimization.NewTask(kernel.NewUUID(), problem, time.Now().UTC().Truncate(time.Microsecond))
	suite.Require().NoError(err)
	return task
}

func TestTaskRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(TaskRepositoryIntegrationTestSuite))
}
