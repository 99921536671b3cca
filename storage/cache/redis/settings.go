// Package redisstore keeps gate settings in Redis so every API instance sees the same zone and window.
package redisstore

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const (
	keyZone   = "allowed_location"
	keyWindow = "attendance_window"
)

// NewClient connects to the configured Redis server.
func NewClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

type settingsRepository struct {
	client *redis.Client
	prefix string
}

var _ attendance.SettingsRepository = (*settingsRepository)(nil) // interface compliance check

// NewSettingsRepository stores settings under "<prefix>:settings:<name>".
func NewSettingsRepository(client *redis.Client, prefix string) attendance.SettingsRepository {
	return &settingsRepository{client: client, prefix: prefix}
}

func (repo *settingsRepository) key(name string) string {
	return repo.prefix + ":settings:" + name
}

func (repo *settingsRepository) LoadZone(ctx context.Context) (attendance.Zone, error) {
	raw, err := repo.client.Get(ctx, repo.key(keyZone)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return attendance.Zone{}, attendance.ErrSettingNotFound
		}
		return attendance.Zone{}, errors.Wrap(err, "getting allowed zone")
	}
	var zone attendance.Zone
	if err = json.Unmarshal(raw, &zone); err != nil {
		return attendance.Zone{}, errors.Wrap(err, "decoding allowed zone")
	}
	return zone, nil
}

func (repo *settingsRepository) LoadWindow(ctx context.Context) (bool, error) {
	raw, err := repo.client.Get(ctx, repo.key(keyWindow)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, attendance.ErrSettingNotFound
		}
		return false, errors.Wrap(err, "getting attendance window")
	}
	open, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrapf(err, "decoding attendance window %q", raw)
	}
	return open, nil
}

func (repo *settingsRepository) SaveZone(ctx context.Context, zone attendance.Zone) error {
	raw, err := json.Marshal(zone)
	if err != nil {
		return errors.Wrap(err, "encoding allowed zone")
	}
	if err = repo.client.Set(ctx, repo.key(keyZone), raw, 0).Err(); err != nil {
		return errors.Wrap(err, "setting allowed zone")
	}
	return nil
}

func (repo *settingsRepository) SaveWindow(ctx context.Context, open bool) error {
	if err := repo.client.Set(ctx, repo.key(keyWindow), strconv.FormatBool(open), 0).Err(); err != nil {
		return errors.Wrap(err, "setting attendance window")
	}
	return nil
}
