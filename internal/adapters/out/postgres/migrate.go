package postgres

import (
	"routeopt/internal/adapters/out/postgres/resultrepo"
	"routeopt/internal/adapters/out/postgres/taskrepo"

	"gorm.io/gorm"
)

const resultForeignKey = `
DO $$
BEGIN
	ALTER TABLE optimization_results
		ADD CONSTRAINT fk_optimization_results_task
		FOREIGN KEY (problem_id) REFERENCES optimization_tasks (problem_id) ON DELETE CASCADE;
EXCEPTION
	WHEN duplicate_object THEN NULL;
END
$$;`

// Migrate creates or updates the task and result tables, their indexes and
// the result-to-task foreign key.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&taskrepo.TaskDTO{}, &resultrepo.ResultDTO{}); err != nil {
		return err
	}
	return db.Exec(resultForeignKey).Error
}
