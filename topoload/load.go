package topoload

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/cgrafab/ctxlog"
	"github.com/sarchlab/cgrafab/fabric"
	"gopkg.in/yaml.v3"
)

// Load reads a topology file, choosing the format by extension: .yaml and
// .yml are YAML, .hcl is HCL. A topology without a name is named after the
// file.
func Load(ctx context.Context, path string) (fabric.Topology, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading topology", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fabric.Topology{}, errors.Wrapf(err, "read topology %s", path)
	}

	var topo fabric.Topology
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		topo, err = ParseYAML(data)
	case ".hcl":
		topo, err = ParseHCL(data, path)
	default:
		return fabric.Topology{}, errors.Errorf("topology %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return fabric.Topology{}, errors.Wrapf(err, "load topology %s", path)
	}

	if topo.Name == "" {
		topo.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	w, h := topo.Size()
	logger.Debug("Loaded topology",
		"name", topo.Name,
		"width", w,
		"height", h,
		"tile_types", len(topo.TileTypes),
		"links", len(topo.Links),
	)

	return topo, nil
}

// ParseYAML decodes a YAML topology.
func ParseYAML(data []byte) (fabric.Topology, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fabric.Topology{}, errors.Wrap(err, "decode yaml")
	}
	return doc.topology()
}
