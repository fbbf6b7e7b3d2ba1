package commands

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/internal/config"
	"github.com/sentinel-ops/sentinel/pkg/core/services"
	"github.com/sentinel-ops/sentinel/pkg/db"
	"github.com/sentinel-ops/sentinel/pkg/utils/opdate"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Sink     services.AlertSink
	Clock    *opdate.Clock
	Location *time.Location
	Logger   *zap.Logger
	Ctx      context.Context
}
