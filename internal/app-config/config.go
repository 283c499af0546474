package appconfig

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tombolabs/tombola/internal/core/application"
	"github.com/tombolabs/tombola/internal/core/domain"
	"github.com/tombolabs/tombola/internal/core/ports"
	inmemorycustody "github.com/tombolabs/tombola/internal/infrastructure/custody/inmemory"
	"github.com/tombolabs/tombola/internal/infrastructure/db"
	localentropy "github.com/tombolabs/tombola/internal/infrastructure/entropy/local"
	timescheduler "github.com/tombolabs/tombola/internal/infrastructure/scheduler/gocron"
)

var (
	supportedEventDbs = supportedType{
		"badger": {},
	}
	supportedDbs = supportedType{
		"badger": {},
		"sqlite": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
	supportedCustodies = supportedType{
		"inmemory": {},
	}
)

// Config assembles the infrastructure behind the application services.
type Config struct {
	DbType      string
	EventDbType string
	DbDir       string
	EventDbDir  string

	SchedulerType string
	CustodyType   string

	Owner    string
	AutoDraw bool

	PoolParams domain.PoolParams

	repo      ports.RepoManager
	svc       application.Service
	adminSvc  application.AdminService
	custody   ports.AssetTransferor
	entropy   ports.EntropySource
	scheduler ports.SchedulerService
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf("event db type not supported, please select one of: %s", supportedEventDbs)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf("scheduler type not supported, please select one of: %s", supportedSchedulers)
	}
	if !supportedCustodies.supports(c.CustodyType) {
		return fmt.Errorf("custody type not supported, please select one of: %s", supportedCustodies)
	}
	if len(c.Owner) <= 0 {
		return fmt.Errorf("missing owner")
	}
	if err := c.PoolParams.Validate(); err != nil {
		return fmt.Errorf("invalid pool params: %w", err)
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.custodyService(); err != nil {
		return err
	}
	c.entropy = localentropy.NewEntropySource()
	c.scheduler = timescheduler.NewScheduler()
	c.adminSvc = application.NewAdminService(c.Owner, c.repo, c.custody)
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) AdminService() application.AdminService {
	return c.adminSvc
}

func (c *Config) RepoManager() ports.RepoManager {
	return c.repo
}

func (c *Config) Custody() ports.AssetTransferor {
	return c.custody
}

func (c *Config) repoManager() error {
	logger := log.New()

	var eventStoreConfig []interface{}
	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, logger}
	default:
		return fmt.Errorf("unknown event db type")
	}

	var dataStoreConfig []interface{}
	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	// project every saved round aggregate into the query store
	svc.Events().RegisterEventsHandler(func(round *domain.Round) {
		if err := svc.Rounds().AddOrUpdateRound(context.Background(), *round); err != nil {
			log.WithError(err).Warnf("failed to project round %d", round.Id)
		}
	})

	c.repo = svc
	return nil
}

func (c *Config) custodyService() error {
	switch c.CustodyType {
	case "inmemory":
		c.custody = inmemorycustody.NewAssetTransferor()
	default:
		return fmt.Errorf("unknown custody type")
	}
	return nil
}

func (c *Config) appService() error {
	svc, err := application.NewService(
		c.PoolParams, c.repo, c.custody, c.entropy, c.scheduler, c.AutoDraw,
	)
	if err != nil {
		return err
	}
	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
