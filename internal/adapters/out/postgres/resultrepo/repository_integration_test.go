package resultrepo_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "routeopt/internal/adapters/out/postgres"
	"routeopt/internal/adapters/out/postgres/resultrepo"
	"routeopt/internal/adapters/out/postgres/taskrepo"
	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ResultRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	tasks      *taskrepo.GormTaskRepository
	repository *resultrepo.GormResultRepository
}

func (suite *ResultRepositoryIntegrationTestSuite) SetupSuite() {
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

	suite.Require().NoError(postgres_adapter.Migrate(db))
}

func (suite *ResultRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE optimization_tasks CASCADE").Error)
	suite.tasks = taskrepo.NewGormTaskRepository(suite.db)
	suite.repository = resultrepo.NewGormResultRepository(suite.db)
}

func (suite *ResultRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *ResultRepositoryIntegrationTestSuite) TestAdd_IsIdempotent() {
	ctx := suite.T().Context()
	id := suite.addTask()
	departure := time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC)

	first, err := optimization.NewResult(id, optimization.EventDetail{
		SolverDuration: 4,
		Score:          &optimization.Score{Hard: -1, Soft: -30},
		Assignments: []optimization.Assignment{{
			VehicleID:           "v1",
			Orders:              []optimization.AssignedOrder{{ID: "s1"}, {ID: "s2"}},
			DepartureTime:       &departure,
			TotalTravelDistance: 29.5,
		}},
	}, time.Now().UTC())
	suite.Require().NoError(err)

	inserted, err := suite.repository.Add(ctx, first)
	suite.Require().NoError(err)
	suite.True(inserted)

	second, err := optimization.NewResult(id, optimization.EventDetail{Score: &optimization.Score{}}, time.Now().UTC())
	suite.Require().NoError(err)
	inserted, err = suite.repository.Add(ctx, second)
	suite.Require().NoError(err)
	suite.False(inserted, "a stored result is never replaced")

	stored, err := suite.repository.Get(ctx, id)
	suite.Require().NoError(err)
	suite.Equal(optimization.Score{Hard: -1, Soft: -30}, stored.Score())
	suite.Equal(int64(4), stored.SolverDuration())
	suite.Equal(optimization.OutcomeWarning, stored.Outcome())
	suite.Require().Len(stored.Assignments(), 1)
	suite.Equal([]optimization.AssignedOrder{{ID: "s1"}, {ID: "s2"}}, stored.Assignments()[0].Orders)
	suite.True(departure.Equal(*stored.Assignments()[0].DepartureTime))
}

func (suite *ResultRepositoryIntegrationTestSuite) TestAdd_UnknownTask_Fails() {
	result, err := optimization.NewResult(kernel.NewUUID(), optimization.EventDetail{}, time.Now().UTC())
	suite.Require().NoError(err)

	_, err = suite.repository.Add(suite.T().Context(), result)

	suite.Require().Error(err, "foreign key must reject results without a task")
}

func (suite *ResultRepositoryIntegrationTestSuite) TestGet_Missing_ReturnsNotFound() {
	_, err := suite.repository.Get(suite.T().Context(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ResultRepositoryIntegrationTestSuite) addTask() kernel.UUID {
	capacity := 10.0
	depot := &optimization.Position{ID: "depot", Lat: 52.52, Lon: 13.405}
	task, err := optimization.NewTask(kernel.NewUUID(), optimization.Problem{
		Orders: []optimization.Order{{
			ID:          "s1",
			Origin:      depot,
			Destination: &optimization.Position{ID: "d1", Lat: 52.51, Lon: 13.39},
		}},
		Fleet: []optimization.Vehicle{{
			ID:               "v1",
			StartingLocation: depot,
			Limits:           &optimization.VehicleLimits{MaxCapacity: &capacity},
		}},
	}, time.Now().UTC())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.tasks.Add(suite.T().Context(), task))
	return task.ProblemID()
}

func TestResultRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ResultRepositoryIntegrationTestSuite))
}
