package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/fpang/weekly-asset-pipeline/internal/assetgen"
	"github.com/fpang/weekly-asset-pipeline/internal/cost"
)

// QueueFile is one week's asset queue. JSON files use the same field names.
type QueueFile struct {
	AssetType string             `yaml:"asset_type"`
	Version   int                `yaml:"version"`
	Threshold float64            `yaml:"threshold"`
	Pricing   map[string]float64 `yaml:"pricing"`
	Assets    []assetgen.Request `yaml:"assets"`
}

// LoadQueue reads a queue file. YAML is a superset of JSON, so both parse
// with the same decoder. Items without an asset_type inherit the file's.
func LoadQueue(path string) (*QueueFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue file: %w", err)
	}
	q, err := ParseQueue(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse queue file %s: %w", path, err)
	}
	log.Debug().
		Str("path", path).
		Int("assets", len(q.Assets)).
		Str("asset_type", q.AssetType).
		Msg("Queue loaded")
	return q, nil
}

// ParseQueue decodes and validates queue bytes.
func ParseQueue(data []byte) (*QueueFile, error) {
	var q QueueFile
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, err
	}

	if q.Version == 0 {
		q.Version = 1
	}
	if q.Version < 0 {
		return nil, fmt.Errorf("version must be at least 1, got %d", q.Version)
	}

	seen := make(map[string]bool, len(q.Assets))
	for i := range q.Assets {
		a := &q.Assets[i]
		if a.AssetType == "" {
			a.AssetType = q.AssetType
		}
		if a.AssetType == "" {
			return nil, fmt.Errorf("asset %d (%s) has no asset_type and the queue has no default", i+1, a.ID)
		}
		if strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("asset %d has no id", i+1)
		}
		if seen[a.ID] {
			log.Warn().Str("asset_id", a.ID).Msg("Duplicate asset id in queue")
		}
		seen[a.ID] = true
		if a.Priority == "" {
			a.Priority = assetgen.PriorityMedium
		}
	}
	return &q, nil
}

// Policy builds the cost policy. A positive override replaces the file's
// threshold, which in turn replaces the default.
func (q *QueueFile) Policy(thresholdOverride float64) cost.Policy {
	threshold := q.Threshold
	if thresholdOverride > 0 {
		threshold = thresholdOverride
	}
	return cost.NewPolicy(cost.PricingTable(q.Pricing), threshold)
}
