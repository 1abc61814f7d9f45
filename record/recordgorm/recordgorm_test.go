package recordgorm_test

import (
	"context"
	"fmt"
	"testing"

	conductor "github.com/ayanko/active-conductor"
	"github.com/ayanko/active-conductor/record"
	"github.com/ayanko/active-conductor/record/recordgorm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type User struct {
	recordgorm.Record `gorm:"-" json:"-"`
	recordgorm.PK

	Name  string
	Email string
}

func NewUser(db *gorm.DB) *User {
	u := &User{}
	u.Attach(db, u)
	return u
}

func (u *User) Validate(errs conductor.Errors) {
	if u.Name == "" {
		errs.Add("name", "can't be blank")
	}
	if u.Email == "" {
		errs.Add("email", "can't be blank")
	}
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))
	return db
}

func count(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&User{}).Count(&n).Error)
	return n
}

func TestSaveInvalid(t *testing.T) {
	t.Parallel()
	db := newDB(t)
	u := NewUser(db)

	require.False(t, u.Save(context.Background()))
	require.True(t, u.IsNew())
	require.Equal(t, []string{"can't be blank"}, u.Errors().On("name"))
	require.Zero(t, count(t, db))
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	t.Parallel()
	db := newDB(t)

	u := NewUser(db)
	u.Name, u.Email = "Scott", "scott@example.com"
	require.True(t, u.Save(context.Background()))
	require.False(t, u.IsNew())
	require.NotEqual(t, uuid.Nil, u.ID)
	require.Equal(t, int64(1), count(t, db))

	// A second save updates the existing row.
	u.Name = "Scott Taylor"
	require.True(t, u.Save(context.Background()))
	require.Equal(t, int64(1), count(t, db))

	var reloaded User
	require.NoError(t, db.First(&reloaded, "id = ?", u.ID).Error)
	require.Equal(t, "Scott Taylor", reloaded.Name)
}

func TestUnattachedPanics(t *testing.T) {
	t.Parallel()
	u := &User{}
	require.Panics(t, func() { u.Save(context.Background()) })
}

// Conductor composition over a database-backed sub-model and an in-memory
// one.

type Settings struct {
	record.Memory

	Newsletter bool
}

var schemaSignup = conductor.NewSchema().
	Conduct("user", "name", "email").
	Conduct("settings", "newsletter")

type SignupConductor struct {
	conductor.Conductor
	db       *gorm.DB
	user     *User
	settings *Settings
}

func NewSignup(db *gorm.DB) func(conductor.Attributes) *SignupConductor {
	return func(attrs conductor.Attributes) *SignupConductor {
		c := &SignupConductor{db: db}
		c.Bind(c, schemaSignup)
		c.SetAttributes(attrs)
		return c
	}
}

func (c *SignupConductor) User() *User {
	if c.user == nil {
		c.user = NewUser(c.db)
	}
	return c.user
}

func (c *SignupConductor) Settings() *Settings {
	if c.settings == nil {
		c.settings = &Settings{}
		c.settings.Bind(c.settings)
	}
	return c.settings
}

func (c *SignupConductor) Models() []conductor.Model {
	return []conductor.Model{c.User(), c.Settings()}
}

func TestConductorPersistsUser(t *testing.T) {
	t.Parallel()
	db := newDB(t)

	c := conductor.Create(context.Background(), NewSignup(db), conductor.Attributes{
		"name":       "Scott",
		"email":      "scott@example.com",
		"newsletter": true,
	}, nil)

	require.False(t, c.IsNew())
	require.Equal(t, int64(1), count(t, db))
	require.True(t, c.Settings().Newsletter)

	var row User
	require.NoError(t, db.First(&row, "id = ?", c.User().ID).Error)
	require.Equal(t, "Scott", row.Name)
}

func TestConductorInvalidSavesNothing(t *testing.T) {
	t.Parallel()
	db := newDB(t)

	c := NewSignup(db)(conductor.Attributes{"name": "Scott"})
	require.False(t, c.Save(context.Background()))
	require.Zero(t, count(t, db))
	require.Equal(t, []string{"can't be blank"}, c.Errors().On("email"))
}
