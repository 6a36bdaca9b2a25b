package contextstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/contextchat/domain"
	"github.com/satriahrh/contextchat/utils/log"
)

// Load reads every regular file directly under dir into a ContextStore keyed
// by base name without extension. Any failure is logged and produces an empty
// store so the server can still run without context.
func Load(ctx context.Context, dir string) *domain.ContextStore {
	blocks, err := readDir(dir)
	if err != nil {
		log.WithCtx(ctx).Warn("Loading context files failed, continuing without context",
			zap.String("dir", dir), zap.Error(err))
		return domain.NewContextStore()
	}

	store := domain.NewContextStore(blocks...)
	log.WithCtx(ctx).Info("Loaded context files",
		zap.String("dir", dir),
		zap.Int("count", store.Len()),
		zap.Strings("contexts", store.Names()))
	return store
}

func readDir(dir string) ([]domain.ContextBlock, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading context dir: %w", err)
	}

	blocks := make([]domain.ContextBlock, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading context file %s: %w", entry.Name(), err)
		}
		blocks = append(blocks, domain.ContextBlock{
			Name: contextName(entry.Name()),
			Text: string(content),
		})
	}
	return blocks, nil
}

// contextName strips the last extension. Dotfiles such as ".notes" keep
// their full name.
func contextName(file string) string {
	name := strings.TrimSuffix(file, filepath.Ext(file))
	if name == "" {
		return file
	}
	return name
}
