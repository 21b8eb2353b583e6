package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/permission"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store persists accounts in the "users" table.
type Store struct {
	db *gorm.DB
}

var _ authcore.UserProvider = (*Store)(nil)

// Option adjusts the gorm configuration used by Open.
type Option func(*gorm.Config)

// WithGormLogger replaces gorm's default logger.
func WithGormLogger(l logger.Interface) Option {
	return func(c *gorm.Config) { c.Logger = l }
}

// Open connects with the named driver and migrates the schema.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	opener, err := lookupDialector(driver)
	if err != nil {
		return nil, err
	}

	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := gorm.Open(opener(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("userstore: open %s: %w", driver, err)
	}
	s := New(db)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. The schema is not migrated.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// AutoMigrate creates or updates the users table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&userRecord{}); err != nil {
		return fmt.Errorf("userstore: migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (authcore.Identity, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return authcore.Identity{}, TranslateError(err)
	}
	return rec.identity(), nil
}

func (s *Store) CreateUser(ctx context.Context, in authcore.CreateIdentityInput) (authcore.Identity, error) {
	role := in.Role
	if role == "" {
		role = permission.RoleUser
	}
	rec := userRecord{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         string(role),
		PasswordHash: in.PasswordHash,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return authcore.Identity{}, TranslateError(err)
	}
	return rec.identity(), nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, update authcore.IdentityUpdate) error {
	fields := map[string]any{}
	if update.Verified != nil {
		fields["is_verified"] = *update.Verified
	}
	if update.PasswordHash != nil {
		fields["password_hash"] = *update.PasswordHash
	}
	if len(fields) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

// SetRole changes an account's role. Roles are assigned out of band; the
// engine never writes them.
func (s *Store) SetRole(ctx context.Context, email string, role permission.Role) error {
	if !role.Valid() {
		return fmt.Errorf("userstore: invalid role %q", role)
	}
	res := s.db.WithContext(ctx).Model(&userRecord{}).Where("email = ?", email).Update("role", string(role))
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

// TranslateError maps gorm errors onto the authcore taxonomy. Other errors
// pass through and are treated by the engine as infrastructure failures.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return authcore.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return authcore.ErrUserAlreadyExists
	default:
		return err
	}
}

// ZapLogger adapts zap to gorm's logger at warn level.
func ZapLogger(l *zap.Logger) logger.Interface {
	return logger.New(zapWriter{l.Named("gorm").Sugar()}, logger.Config{
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

type zapWriter struct {
	s *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...any) {
	w.s.Warnf(format, args...)
}
