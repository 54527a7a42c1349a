package pg

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

const (
	driverName = "nrpgx"

	defaultConnMaxLifetime = time.Hour
)

// Config describes how the ledger connects to its postgres database
type Config struct {
	User     string
	Host     string
	Password string
	Port     int
	DbName   string

	// UseAwsIam authenticates with a short lived RDS token instead of the
	// password. Only provisioned Aurora clusters support it.
	UseAwsIam bool

	MaxOpenConnections int
	MaxIdleConnections int
}

// Open returns a connection pool for the config
func Open(config *Config) (*sql.DB, error) {
	if len(config.Host) == 0 || len(config.User) == 0 || len(config.DbName) == 0 {
		return nil, errors.New("postgres host, user and database name are required")
	}

	port := fmt.Sprint(config.Port)

	var db *sql.DB
	var err error
	if config.UseAwsIam {
		awsConfig, err := external.LoadDefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load aws config")
		}
		db, err = NewWithAwsIam(config.User, config.Host, port, config.DbName, awsConfig)
		if err != nil {
			return nil, err
		}
	} else {
		db, err = NewWithUsernameAndPassword(config.User, config.Password, config.Host, port, config.DbName)
		if err != nil {
			return nil, err
		}
	}

	if config.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(config.MaxOpenConnections)
	}
	if config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(config.MaxIdleConnections)
	}
	db.SetConnMaxIdleTime(defaultConnMaxLifetime)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	return db, nil
}

// NewWithAwsIam gets a DB connection pool using AWS IAM credentials
//
// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func NewWithAwsIam(username, hostname, port, dbname string, config aws.Config) (*sql.DB, error) {
	rdsClient := rds.New(config)

	endpoint := fmt.Sprintf("%s:%s", hostname, port)
	authToken, err := rdsutils.BuildAuthToken(endpoint, rdsClient.Region, username, rdsClient.Credentials)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build rds auth token")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		hostname, port, username, authToken, dbname,
	)
	return connect(dsn)
}

// NewWithUsernameAndPassword gets a DB connection pool using username/password
// credentials
func NewWithUsernameAndPassword(username, password, hostname, port, dbname string) (*sql.DB, error) {
	// todo: enable SSL once the RDS certificate bundle is shipped with the image
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		username, password, hostname, port, dbname,
	)
	return connect(dsn)
}

func connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open connection pool")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return db, nil
}
