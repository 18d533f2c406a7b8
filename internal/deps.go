package internal

import (
	"errors"
	"hungrypanda/hub-api/config"
	"hungrypanda/hub-api/internal/service"
	"hungrypanda/hub-api/internal/store"
	"hungrypanda/hub-api/pkg/security"
	"io"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB      // nil with the memory driver
	Redis  *redis.Client // nil unless redis.addr is set

	Users     store.Users
	Links     store.MagicLinks
	Startups  store.Startups
	Resources store.Resources

	MagicLinks *service.MagicLinks
	Accounts   *service.Accounts
	Logos      *service.Logos
	Tokens     *security.TokenCodec
	Argon      *security.ArgonHash
}

// Close releases the database and Redis connections and stops the
// background work of the in-memory stores
func (d *Deps) Close() error {
	var errs []error

	if c, ok := d.Links.(io.Closer); ok {
		errs = append(errs, c.Close())
	}

	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}

	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}

	return errors.Join(errs...)
}
