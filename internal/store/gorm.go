package store

import (
	"context"
	"errors"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/pkg/util"
	"time"

	"gorm.io/gorm"
)

// gormErr maps gorm errors onto the store sentinels. The connection has to be
// opened with TranslateError for duplicate keys to be recognized.
func gormErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

//
// Users
//

type gormUsers struct {
	db *gorm.DB
}

func NewGormUsers(db *gorm.DB) Users {
	return &gormUsers{db: db}
}

func (g *gormUsers) GetOrCreate(ctx context.Context, email, username string) (*model.User, error) {
	email = NormalizeEmail(email)

	u, err := g.getOrCreate(ctx, email, username)
	if errors.Is(err, ErrConflict) {
		// Lost a race against another insert for the same email
		u, err = g.getOrCreate(ctx, email, username)
	}

	return u, err
}

func (g *gormUsers) getOrCreate(ctx context.Context, email, username string) (*model.User, error) {
	var u model.User

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("email = ?", email).
			First(&u).
			Error
		if err == nil {
			u.Username = username
			return tx.
				Model(&u).
				Update("username", username).
				Error
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		id, err := util.NewID()
		if err != nil {
			return err
		}

		u = model.User{
			ID:       id,
			Email:    email,
			Username: username,
			IsActive: true,
		}

		return tx.Create(&u).Error
	})
	if err != nil {
		return nil, gormErr(err)
	}

	return &u, nil
}

func (g *gormUsers) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)

	if u.ID == "" {
		id, err := util.NewID()
		if err != nil {
			return err
		}
		u.ID = id
	}

	return gormErr(g.db.WithContext(ctx).Create(u).Error)
}

func (g *gormUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := g.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&u).
		Error
	if err != nil {
		return nil, gormErr(err)
	}

	return &u, nil
}

func (g *gormUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := g.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).
		Error
	if err != nil {
		return nil, gormErr(err)
	}

	return &u, nil
}

func (g *gormUsers) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}

	err := g.db.WithContext(ctx).
		Order("created_at, id").
		Find(&users).
		Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (g *gormUsers) UpdateProfile(ctx context.Context, id string, p *model.UserProfile) (*model.User, error) {
	cols := map[string]any{}
	if p.Username != nil {
		cols["username"] = *p.Username
	}
	if p.FullName != nil {
		cols["full_name"] = *p.FullName
	}

	var u model.User
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(cols) > 0 {
			err := tx.
				Model(&model.User{}).
				Where("id = ?", id).
				Updates(cols).
				Error
			if err != nil {
				return err
			}
		}

		return tx.Where("id = ?", id).First(&u).Error
	})
	if err != nil {
		return nil, gormErr(err)
	}

	return &u, nil
}

func (g *gormUsers) Delete(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

//
// Magic links
//

type gormLinks struct {
	db *gorm.DB
}

func NewGormLinks(db *gorm.DB) MagicLinks {
	return &gormLinks{db: db}
}

func (g *gormLinks) Put(ctx context.Context, l *model.MagicLink) error {
	return gormErr(g.db.WithContext(ctx).Create(l).Error)
}

func (g *gormLinks) Get(ctx context.Context, token string) (*model.MagicLink, error) {
	var l model.MagicLink

	err := g.db.WithContext(ctx).
		Where("token = ?", token).
		First(&l).
		Error
	if err != nil {
		return nil, gormErr(err)
	}

	return &l, nil
}

func (g *gormLinks) Consume(ctx context.Context, token string) (*model.MagicLink, error) {
	var l model.MagicLink

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("token = ?", token).
			First(&l).
			Error
		if err != nil {
			return err
		}

		// Whoever deletes the row owns the redemption
		res := tx.
			Where("token = ?", token).
			Delete(&model.MagicLink{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
	if err != nil {
		return nil, gormErr(err)
	}

	return &l, nil
}

func (g *gormLinks) DeleteExpired(ctx context.Context, t time.Time) (int64, error) {
	res := g.db.WithContext(ctx).
		Where("expires_at < ?", t).
		Delete(&model.MagicLink{})

	return res.RowsAffected, res.Error
}

//
// Startups
//

type gormStartups struct {
	db *gorm.DB
}

func NewGormStartups(db *gorm.DB) Startups {
	return &gormStartups{db: db}
}

func (g *gormStartups) Create(ctx context.Context, s *model.Startup) error {
	s.ID = 0
	return g.db.WithContext(ctx).Create(s).Error
}

func (g *gormStartups) Get(ctx context.Context, id uint) (*model.Startup, error) {
	var s model.Startup

	err := g.db.WithContext(ctx).
		Where("id = ?", id).
		First(&s).
		Error
	if err != nil {
		return nil, gormErr(err)
	}

	return &s, nil
}

func (g *gormStartups) List(ctx context.Context, f model.StartupFilter) ([]model.Startup, error) {
	startups := []model.Startup{}

	q := g.db.WithContext(ctx).Model(&model.Startup{})
	if f.Industry != "" {
		q = q.Where("industry = ?", f.Industry)
	}
	if f.Stage != "" {
		q = q.Where("stage = ?", f.Stage)
	}

	if err := q.Order("id").Find(&startups).Error; err != nil {
		return nil, err
	}

	return startups, nil
}

func (g *gormStartups) Update(ctx context.Context, id uint, u *model.StartupUpdate, at time.Time) (*model.Startup, error) {
	var s model.Startup

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("id = ?", id).
			First(&s).
			Error
		if err != nil {
			return err
		}

		u.Apply(&s)
		s.UpdatedAt = &at

		return tx.Save(&s).Error
	})
	if err != nil {
		return nil, gormErr(err)
	}

	return &s, nil
}

func (g *gormStartups) Delete(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Startup{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

//
// Resources
//

type gormResources struct {
	db *gorm.DB
}

func NewGormResources(db *gorm.DB) Resources {
	return &gormResources{db: db}
}

func (g *gormResources) Create(ctx context.Context, r *model.Resource) error {
	r.ID = 0
	r.Views = 0
	return g.db.WithContext(ctx).Create(r).Error
}

func (g *gormResources) Get(ctx context.Context, id uint) (*model.Resource, error) {
	var r model.Resource

	err := g.db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).
		Error
	if err != nil {
		return nil, gormErr(err)
	}

	return &r, nil
}

func (g *gormResources) List(ctx context.Context, category string) ([]model.Resource, error) {
	resources := []model.Resource{}

	q := g.db.WithContext(ctx).Model(&model.Resource{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	if err := q.Order("id").Find(&resources).Error; err != nil {
		return nil, err
	}

	return resources, nil
}

func (g *gormResources) Categories(ctx context.Context) ([]string, error) {
	cats := []string{}

	err := g.db.WithContext(ctx).
		Model(&model.Resource{}).
		Distinct().
		Order("category").
		Pluck("category", &cats).
		Error
	if err != nil {
		return nil, err
	}

	return cats, nil
}

func (g *gormResources) View(ctx context.Context, id uint) (*model.Resource, error) {
	var r model.Resource

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&model.Resource{}).
			Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.
			Where("id = ?", id).
			First(&r).
			Error
	})
	if err != nil {
		return nil, gormErr(err)
	}

	return &r, nil
}

func (g *gormResources) Delete(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Resource{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
