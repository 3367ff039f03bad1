package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"athena/pkg/conn"
)

// SourceKind selects the historical backend.
type SourceKind string

const (
	SourceCSV   SourceKind = "csv"
	SourceStore SourceKind = "store"
)

// startDateLayout is the config-file date format for the replay start filter.
const startDateLayout = "2006-01-02"

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Source           string   `json:"source"`
	DataDirectory    string   `json:"dataDirectory"`
	SymbolList       []string `json:"symbolList"`
	InitialCapital   float64  `json:"initialCapital"`
	StartDate        string   `json:"startDate"`
	HeartbeatSeconds float64  `json:"heartbeatIntervalSeconds"`
	ConnectionTarget string   `json:"connectionTarget"`
	BackendFlavor    string   `json:"backendFlavor"`
	QueueCapacity    int      `json:"queueCapacity"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Source         SourceKind
	DataDirectory  string
	Symbols        []string
	InitialCapital float64
	StartDate      time.Time
	Heartbeat      time.Duration
	Target         string
	Flavor         conn.Flavor
	QueueCapacity  int
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	loaded := Loaded{
		DataDirectory:  cfg.DataDirectory,
		Symbols:        cfg.SymbolList,
		InitialCapital: cfg.InitialCapital,
		Target:         cfg.ConnectionTarget,
		QueueCapacity:  cfg.QueueCapacity,
	}

	switch SourceKind(cfg.Source) {
	case SourceCSV, "":
		loaded.Source = SourceCSV
	case SourceStore:
		loaded.Source = SourceStore
	default:
		return Loaded{}, fmt.Errorf("unknown source %q", cfg.Source)
	}

	if len(cfg.SymbolList) == 0 {
		return Loaded{}, fmt.Errorf("symbolList is empty")
	}
	seen := make(map[string]struct{}, len(cfg.SymbolList))
	for _, s := range cfg.SymbolList {
		if s == "" {
			return Loaded{}, fmt.Errorf("symbolList contains an empty symbol")
		}
		if _, ok := seen[s]; ok {
			return Loaded{}, fmt.Errorf("symbolList contains %s twice", s)
		}
		seen[s] = struct{}{}
	}

	if cfg.HeartbeatSeconds < 0 {
		return Loaded{}, fmt.Errorf("heartbeatIntervalSeconds must be >= 0")
	}
	loaded.Heartbeat = time.Duration(cfg.HeartbeatSeconds * float64(time.Second))

	if cfg.StartDate != "" {
		start, err := time.Parse(startDateLayout, cfg.StartDate)
		if err != nil {
			return Loaded{}, fmt.Errorf("startDate %q: %w", cfg.StartDate, err)
		}
		loaded.StartDate = start
	}

	if cfg.InitialCapital < 0 {
		return Loaded{}, fmt.Errorf("initialCapital must be >= 0")
	}

	if loaded.QueueCapacity <= 0 {
		loaded.QueueCapacity = 1024
	}

	switch loaded.Source {
	case SourceCSV:
		if cfg.DataDirectory == "" {
			return Loaded{}, fmt.Errorf("csv source requires dataDirectory")
		}
	case SourceStore:
		if cfg.ConnectionTarget == "" {
			return Loaded{}, fmt.Errorf("store source requires connectionTarget")
		}
		switch conn.Flavor(cfg.BackendFlavor) {
		case conn.FlavorEmbedded, "":
			loaded.Flavor = conn.FlavorEmbedded
		case conn.FlavorNetworked:
			loaded.Flavor = conn.FlavorNetworked
		default:
			return Loaded{}, fmt.Errorf("unknown backendFlavor %q", cfg.BackendFlavor)
		}
	}

	return loaded, nil
}
