package app

import (
	"context"
	"fmt"
	"hungrypanda/hub-api/aws"
	"hungrypanda/hub-api/config"
	"hungrypanda/hub-api/db"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/service"
	"hungrypanda/hub-api/internal/store"
	"hungrypanda/hub-api/pkg/security"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewDeps builds every dependency the handlers need from c. Storage is
// picked by database.driver, magic links move to Redis when redis.addr is
// set.
func NewDeps(ctx context.Context, c *config.Config) (*internal.Deps, error) {
	d := &internal.Deps{
		Config: c,
		Argon:  security.NewArgon(),
	}

	gdb, err := db.New(c.Database)
	if err != nil {
		return nil, err
	}
	d.DB = gdb

	if gdb != nil {
		d.Users = store.NewGormUsers(gdb)
		d.Links = store.NewGormLinks(gdb)
		d.Startups = store.NewGormStartups(gdb)
		d.Resources = store.NewGormResources(gdb)
	} else {
		d.Users = store.NewMemoryUsers()
		if c.Redis.Addr == "" {
			d.Links = store.NewMemoryLinks()
		}
		d.Startups = store.NewMemoryStartups()
		d.Resources = store.NewMemoryResources()
	}

	zap.L().Info("Storage initialized", zap.String("driver", c.Database.Driver))

	if c.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})

		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			d.Close()
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		d.Redis = rdb
		d.Links = store.NewRedisLinks(rdb)

		zap.L().Info("Magic links stored in redis", zap.String("addr", c.Redis.Addr))
	}

	d.Tokens, err = security.NewTokenCodec(&security.TokenCodecOpts{
		Secret:    c.JWT.Secret,
		Algorithm: c.JWT.Algorithm,
		Lifetime:  c.JWT.Expiry,
	})
	if err != nil {
		d.Close()
		return nil, err
	}

	var mailer service.Mailer
	if c.Mail.Enabled {
		mailer = service.NewSMTPMailer(c.Mail, c.App.Name)
	}

	d.MagicLinks, err = service.NewMagicLinks(&service.MagicLinkOpts{
		Users:    d.Users,
		Links:    d.Links,
		BaseURL:  c.MagicLink.BaseURL,
		Lifetime: c.MagicLink.Expiry,
		Mailer:   mailer,
	})
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Accounts = service.NewAccounts(d.Users, d.Argon)

	var objects service.ObjectStorage
	if c.Storage.Enabled {
		s3, err := aws.NewS3(ctx, c.Storage)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}
		objects = s3
	}
	d.Logos = service.NewLogos(objects)

	return d, nil
}
