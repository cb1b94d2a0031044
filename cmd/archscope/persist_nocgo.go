//go:build !cgo

package main

import (
	"context"
	"errors"

	"github.com/archscope/archscope/internal/model"
)

func persist(ctx context.Context, dir string, result *model.AnalysisResult) error {
	return errors.New("--store requires a CGO-enabled build")
}
