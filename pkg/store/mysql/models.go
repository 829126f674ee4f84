package mysql

import "tripops/pkg/store/mysql/model"

// Type aliases so callers can reference storage models through the
// repository package.
type (
	Job     = model.Job
	Site    = model.Site
	JSONMap = model.JSONMap
)
