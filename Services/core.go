package Services

import (
	"context"
	"time"

	"Taskflow/Dispatch"
	"Taskflow/Identifiers"
	"Taskflow/Leaves"
	"Taskflow/Lifecycle"
	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Progress"
	"Taskflow/Store"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Deps is what every service is built from.
type Deps struct {
	Store      *Store.Store
	Clock      Models.Clock
	Location   *time.Location
	Dispatcher *Dispatch.Dispatcher
	Logger     logrus.FieldLogger
}

// Core bundles the engine pieces shared by the services.
type Core struct {
	store      *Store.Store
	clock      Models.Clock
	location   *time.Location
	dispatcher *Dispatch.Dispatcher
	log        logrus.FieldLogger

	resolver   *Permissions.Resolver
	guard      *Lifecycle.Guard
	aggregator *Progress.Aggregator
	ids        *Identifiers.Generator
	quota      *Leaves.QuotaChecker
	validate   *validator.Validate
}

func NewCore(d Deps) *Core {
	if d.Clock == nil {
		d.Clock = Models.SystemClock{Location: d.Location}
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Dispatcher == nil {
		d.Dispatcher = Dispatch.New(Dispatch.Options{Logger: d.Logger})
	}
	if d.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		d.Logger = l
	}
	guard := Lifecycle.New(d.Clock, d.Location)
	return &Core{
		store:      d.Store,
		clock:      d.Clock,
		location:   d.Location,
		dispatcher: d.Dispatcher,
		log:        d.Logger,
		resolver:   Permissions.NewResolver(d.Store),
		guard:      guard,
		aggregator: Progress.NewAggregator(guard),
		ids:        Identifiers.NewGenerator(d.Clock, d.Location),
		quota:      Leaves.NewQuotaChecker(d.Location),
		validate:   validator.New(),
	}
}

func (c *Core) Resolver() *Permissions.Resolver { return c.resolver }

// mutate runs fn in a retried transaction and hands the collected effects
// to the dispatcher once it commits. Effects from a failed attempt are
// dropped.
func (c *Core) mutate(ctx context.Context, fn func(tx *Store.Store, fx *Dispatch.Effects) error) error {
	fx := &Dispatch.Effects{}
	err := c.store.Atomic(ctx, func(tx *Store.Store) error {
		fx.Reset()
		return fn(tx, fx)
	})
	if err != nil {
		return err
	}
	c.dispatcher.Dispatch(ctx, fx)
	return nil
}

// read gives fn a context-bound store outside any transaction.
func (c *Core) read(ctx context.Context) *Store.Store {
	return c.store.WithContext(ctx)
}

// require checks perm through the transaction's store.
func (c *Core) require(ctx context.Context, tx *Store.Store, actor *Models.User, perm Models.Permission) error {
	return c.resolver.With(tx).Require(ctx, actor, perm)
}

func (c *Core) check(input any) error {
	if err := c.validate.Struct(input); err != nil {
		return Models.NewInvalidInput(err.Error())
	}
	return nil
}

func (c *Core) now() time.Time { return c.clock.Now() }
