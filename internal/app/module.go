package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/repricer/internal/app/api/server"
	"github.com/fatflowers/repricer/internal/app/repository"
	"github.com/fatflowers/repricer/internal/app/service/consent"
	notificationlog "github.com/fatflowers/repricer/internal/app/service/notification_log"
	"github.com/fatflowers/repricer/internal/app/service/pricechange"
	"github.com/fatflowers/repricer/internal/app/service/reconciler"
	"github.com/fatflowers/repricer/internal/app/service/statistics"
	"github.com/fatflowers/repricer/internal/platform/db"
	"github.com/fatflowers/repricer/pkg/config"
	"github.com/fatflowers/repricer/pkg/logger"
	"github.com/fatflowers/repricer/pkg/tool"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Minute
)

var Module = fx.Options(
	config.Module,
	logger.Module,
	db.Module,
	repository.Module,
	fx.Provide(tool.NewTokenIssuer),
	notificationlog.Module,
	pricechange.Module,
	consent.Module,
	reconciler.Module,
	statistics.Module,
	server.Module,
)
