package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/tombolabs/tombola/internal/core/domain"
)

type Config struct {
	Datadir  string
	LogLevel int

	DbType        string
	EventDbType   string
	DbDir         string
	EventDbDir    string
	SchedulerType string
	CustodyType   string

	Owner    string
	AutoDraw bool

	ValuePerEntry   uint64
	RoundDuration   int64
	FeeBp           uint64
	FeeRecipient    string
	Capacity        uint64
	MinParticipants uint64
	Keeper          string
}

func (c *Config) String() string {
	buf, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(buf)
}

var (
	Datadir         = "DATADIR"
	LogLevel        = "LOG_LEVEL"
	DbType          = "DB_TYPE"
	EventDbType     = "EVENT_DB_TYPE"
	SchedulerType   = "SCHEDULER_TYPE"
	CustodyType     = "CUSTODY_TYPE"
	Owner           = "OWNER"
	AutoDraw        = "AUTO_DRAW"
	ValuePerEntry   = "VALUE_PER_ENTRY"
	RoundDuration   = "ROUND_DURATION"
	FeeBp           = "FEE_BP"
	FeeRecipient    = "FEE_RECIPIENT"
	Capacity        = "ROUND_CAPACITY"
	MinParticipants = "MIN_PARTICIPANTS"
	Keeper          = "KEEPER"

	defaultDatadir         = dataDir()
	defaultLogLevel        = 4
	defaultDbType          = "badger"
	defaultEventDbType     = "badger"
	defaultSchedulerType   = "gocron"
	defaultCustodyType     = "inmemory"
	defaultAutoDraw        = true
	defaultValuePerEntry   = 100
	defaultRoundDuration   = 3600
	defaultFeeBp           = 300
	defaultCapacity        = 128
	defaultMinParticipants = 2
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("TOMBOLA")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(EventDbType, defaultEventDbType)
	viper.SetDefault(SchedulerType, defaultSchedulerType)
	viper.SetDefault(CustodyType, defaultCustodyType)
	viper.SetDefault(AutoDraw, defaultAutoDraw)
	viper.SetDefault(ValuePerEntry, defaultValuePerEntry)
	viper.SetDefault(RoundDuration, defaultRoundDuration)
	viper.SetDefault(FeeBp, defaultFeeBp)
	viper.SetDefault(Capacity, defaultCapacity)
	viper.SetDefault(MinParticipants, defaultMinParticipants)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	dbPath := filepath.Join(viper.GetString(Datadir), "db")

	return &Config{
		Datadir:         viper.GetString(Datadir),
		LogLevel:        viper.GetInt(LogLevel),
		DbType:          viper.GetString(DbType),
		EventDbType:     viper.GetString(EventDbType),
		DbDir:           dbPath,
		EventDbDir:      dbPath,
		SchedulerType:   viper.GetString(SchedulerType),
		CustodyType:     viper.GetString(CustodyType),
		Owner:           viper.GetString(Owner),
		AutoDraw:        viper.GetBool(AutoDraw),
		ValuePerEntry:   viper.GetUint64(ValuePerEntry),
		RoundDuration:   viper.GetInt64(RoundDuration),
		FeeBp:           viper.GetUint64(FeeBp),
		FeeRecipient:    viper.GetString(FeeRecipient),
		Capacity:        viper.GetUint64(Capacity),
		MinParticipants: viper.GetUint64(MinParticipants),
		Keeper:          viper.GetString(Keeper),
	}, nil
}

// PoolParams builds the initial pool parameters stored on first run.
func (c *Config) PoolParams() domain.PoolParams {
	return domain.PoolParams{
		ValuePerEntry:   c.ValuePerEntry,
		RoundDuration:   c.RoundDuration,
		FeeBp:           c.FeeBp,
		FeeRecipient:    c.FeeRecipient,
		Capacity:        c.Capacity,
		MinParticipants: c.MinParticipants,
		Keeper:          c.Keeper,
		OutflowAllowed:  true,
	}
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tombolad"
	}
	return filepath.Join(home, ".tombolad")
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(filepath.Join(datadir, "db"))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
