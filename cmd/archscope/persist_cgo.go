//go:build cgo

package main

import (
	"context"

	"github.com/archscope/archscope/internal/model"
	"github.com/archscope/archscope/internal/store"
)

// persist writes the result to a file-backed graph database under dir.
func persist(ctx context.Context, dir string, result *model.AnalysisResult) error {
	s, err := store.NewKuzuFileStore(dir)
	if err != nil {
		return err
	}
	defer s.Close()
	return store.SaveResult(ctx, s, result)
}
