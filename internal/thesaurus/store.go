package thesaurus

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
)

// TermsQuery reads the term table of the USGS thesaurus database.
const TermsQuery = "SELECT code, name, parent FROM term"

// PGStore reads terms from a PostgreSQL copy of the thesaurus.
type PGStore struct {
	pool *pgxpool.Pool
}

// IAMAuth replaces the DSN password with an RDS IAM token minted for each
// new connection. Credentials come from the default AWS chain.
type IAMAuth struct {
	Region string
}

func (a *IAMAuth) beforeConnect(ctx context.Context, cc *pgx.ConnConfig) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.Region))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	endpoint := net.JoinHostPort(cc.Host, strconv.Itoa(int(cc.Port)))
	token, err := auth.BuildAuthToken(ctx, endpoint, a.Region, cc.User, awsCfg.Credentials)
	if err != nil {
		return fmt.Errorf("failed to build RDS auth token: %w", err)
	}
	cc.Password = token
	return nil
}

// NewPGStore connects to the database at dsn. A non-nil iam signs every
// connection with an RDS IAM token.
func NewPGStore(ctx context.Context, dsn string, iam *IAMAuth) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("error parsing thesaurus DSN: %w", err)
	}
	if iam != nil {
		if iam.Region == "" {
			return nil, fmt.Errorf("RDS IAM auth requires a region")
		}
		poolCfg.BeforeConnect = iam.beforeConnect
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting to thesaurus database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to thesaurus database: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

// Terms implements Store.
func (s *PGStore) Terms(ctx context.Context) ([]Term, error) {
	rows, err := s.pool.Query(ctx, TermsQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying terms: %w", err)
	}
	terms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Term, error) {
		var t Term
		var name *string
		if err := row.Scan(&t.Code, &name, &t.Parent); err != nil {
			return t, err
		}
		if name != nil {
			t.Name = *name
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading terms: %w", err)
	}
	return terms, nil
}

// FileStore reads terms from a YAML list of {code, name, parent}.
type FileStore struct {
	Path string
}

// Terms implements Store.
func (s FileStore) Terms(_ context.Context) ([]Term, error) {
	data, err := os.ReadFile(filepath.Clean(s.Path))
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", s.Path, err)
	}
	var terms []Term
	if err := yaml.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", s.Path, err)
	}
	return terms, nil
}

// StaticStore serves a fixed list of terms.
type StaticStore []Term

// Terms implements Store.
func (s StaticStore) Terms(_ context.Context) ([]Term, error) {
	return s, nil
}
