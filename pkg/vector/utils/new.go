// Package vectorutils builds a vector.Driver from configuration.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/papercomputeco/aletheia/pkg/vector"
	"github.com/papercomputeco/aletheia/pkg/vector/chroma"
	"github.com/papercomputeco/aletheia/pkg/vector/inmemory"
	"github.com/papercomputeco/aletheia/pkg/vector/qdrant"
	"github.com/papercomputeco/aletheia/pkg/vector/sqlitevec"
)

// SQLiteFile is the vector database file created inside the persist dir.
const SQLiteFile = "vectors.sqlite"

type NewVectorDriverOpts struct {
	ProviderType string

	// TargetURL is the chroma URL or the qdrant host:port.
	TargetURL string

	PersistDir     string
	CollectionName string
	Dimensions     uint
	APIKey         string
	Logger         *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "", "sqlite":
		if err := os.MkdirAll(o.PersistDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating persist dir: %w", err)
		}
		d, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:         filepath.Join(o.PersistDir, SQLiteFile),
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)
		if err != nil {
			return nil, err
		}
		return d, nil

	case "chroma":
		d, err := chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.CollectionName,
		}, o.Logger)
		if err != nil {
			return nil, err
		}
		return d, nil

	case "qdrant":
		host, port, err := splitHostPort(o.TargetURL)
		if err != nil {
			return nil, err
		}
		d, err := qdrant.NewDriver(ctx, qdrant.Config{
			Host:           host,
			Port:           port,
			APIKey:         o.APIKey,
			UseTLS:         o.APIKey != "",
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)
		if err != nil {
			return nil, err
		}
		return d, nil

	case "memory":
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// splitHostPort accepts "host" or "host:port"; a missing port is 0 so the
// driver default applies.
func splitHostPort(target string) (string, int, error) {
	if target == "" {
		return "", 0, fmt.Errorf("qdrant target is required")
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}
