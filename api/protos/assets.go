// Package protos ships the four gRPC contracts of the gateway as embedded
// assets so clients in any language can extract and compile them.
package protos

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

//go:embed routing/v1/routing.proto communication/v1/communication.proto lifecycle/v1/lifecycle.proto consensus/v1/consensus.proto
var assets embed.FS

var assetPaths = []string{
	"routing/v1/routing.proto",
	"communication/v1/communication.proto",
	"lifecycle/v1/lifecycle.proto",
	"consensus/v1/consensus.proto",
}

// Asset returns the embedded contract at the given path, e.g.
// "routing/v1/routing.proto".
func Asset(path string) ([]byte, error) {
	b, err := assets.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read proto asset %s: %w", path, err)
	}
	return b, nil
}

// AssetPaths lists the embedded contract paths.
func AssetPaths() []string {
	out := make([]string, len(assetPaths))
	copy(out, assetPaths)
	return out
}

// WriteAssets writes the four .proto files into dir under their base names
// and reports each written file on stdout.
func WriteAssets(dir string) error {
	for _, path := range assetPaths {
		b, err := Asset(path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.Base(path))
		if err := os.WriteFile(target, b, 0o644); err != nil {
			return fmt.Errorf("write proto asset %s: %w", target, err)
		}
		color.New(color.FgGreen).Printf("wrote %s\n", target)
	}
	return nil
}
