package inventory

import (
	"context"
	"time"

	"gorm.io/gorm"

	"mise/models"
)

const defaultLockTimeout = 5 * time.Second

// guard bounds lock acquisition by the configured timeout.
type guard struct {
	locker  Locker
	timeout time.Duration
}

func (g *guard) hold(ctx context.Context, keys ...string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	release, err := g.locker.Lock(lockCtx, keys...)
	if err != nil {
		return nil, storageError("acquire lock", err)
	}
	return release, nil
}

// Option customises a Service.
type Option func(*Service)

// WithLocker replaces the in-process locker, e.g. with a RedisLocker.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.guard.locker = l
		}
	}
}

// WithLockTimeout bounds how long an operation waits for its locks.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.guard.timeout = d
		}
	}
}

// WithClock overrides the time source used to stamp sales.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.engine.now = now
		}
	}
}

// Service is the entry point used by the transport layer.
type Service struct {
	Ledger       *Ledger
	Compositions *CompositionStore
	Directory    *Directory

	db     *gorm.DB
	engine *Engine
	guard  *guard
}

// New wires the ledger, composition store, directory and sale engine over db.
func New(db *gorm.DB, opts ...Option) *Service {
	g := &guard{locker: NewLocalLocker(), timeout: defaultLockTimeout}
	compositions := &CompositionStore{db: db}
	ledger := &Ledger{db: db, guard: g}

	s := &Service{
		Ledger:       ledger,
		Compositions: compositions,
		Directory:    &Directory{db: db, guard: g, compositions: compositions},
		engine: &Engine{
			db:           db,
			guard:        g,
			compositions: compositions,
			now:          time.Now,
		},
		db:    db,
		guard: g,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SellRecipe fulfils one sale of the recipe or changes nothing.
func (s *Service) SellRecipe(ctx context.Context, recipeID uint) (SaleResult, error) {
	return s.engine.Sell(ctx, recipeID)
}

// GetComposition returns the recipe's ingredient lines for display.
func (s *Service) GetComposition(ctx context.Context, recipeID uint) ([]CompositionLine, error) {
	if _, err := s.Directory.recipe(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.Compositions.View(ctx, recipeID)
}

// CreateRecipeWithComposition stores a recipe and its full composition atomically.
func (s *Service) CreateRecipeWithComposition(ctx context.Context, in RecipeInput) (RecipeDetail, error) {
	return s.Directory.CreateRecipe(ctx, in)
}

func (s *Service) GetRecipe(ctx context.Context, id uint) (RecipeDetail, error) {
	return s.Directory.GetRecipe(ctx, id)
}

func (s *Service) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	return s.Directory.ListRecipes(ctx)
}

func (s *Service) UpdateRecipe(ctx context.Context, id uint, in RecipeInput) (RecipeDetail, error) {
	return s.Directory.UpdateRecipe(ctx, id, in)
}

func (s *Service) DeleteRecipe(ctx context.Context, id uint) error {
	return s.Directory.DeleteRecipe(ctx, id)
}

// Ping checks that the database answers.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageError("database handle", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageError("ping database", err)
	}
	return nil
}
