// Package storage picks the attendance stores the configuration asks for.
package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	redisstore "github.com/trezcool/mahudhurio/storage/cache/redis"
	dynamorepos "github.com/trezcool/mahudhurio/storage/database/dynamo"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
)

// AttendanceStores returns postgres-backed settings and attempt stores, replaced by
// redis (settings) and dynamodb (attempts) when those are enabled.
func AttendanceStores(
	ctx context.Context,
	conf *core.Config,
	db *sqlx.DB,
	logger core.Logger,
) (attendance.SettingsRepository, attendance.RecordStore, error) {
	settingsRepo := sqlxrepos.NewSettingsRepository(db)
	if conf.Redis.Enabled {
		client, err := redisstore.NewClient(ctx, conf.Redis)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connecting to redis")
		}
		settingsRepo = redisstore.NewSettingsRepository(client, conf.AppName)
		logger.Info(fmt.Sprintf("settings stored in redis at %s", conf.Redis.Address))
	}

	recordStore := sqlxrepos.NewAttemptRepository(db)
	if conf.DynamoDB.Enabled {
		client, err := dynamorepos.NewClient(ctx, conf.DynamoDB)
		if err != nil {
			return nil, nil, errors.Wrap(err, "configuring dynamodb")
		}
		recordStore = dynamorepos.NewAttemptRepository(client, conf.DynamoDB.Table, logger)
		logger.Info(fmt.Sprintf("attempts stored in dynamodb table %q", conf.DynamoDB.Table))
	}
	return settingsRepo, recordStore, nil
}
