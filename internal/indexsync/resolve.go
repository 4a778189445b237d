package indexsync

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/pkg/model"
)

// DocumentReader reads single documents by path.
type DocumentReader interface {
	Get(ctx context.Context, path string) (*storage.StoredDoc, error)
}

// Resolver replaces a reference field with the label of the referenced
// document. It reads the referenced document once per call and keeps no
// cache.
type Resolver struct {
	reader DocumentReader
	logger *slog.Logger
}

func NewResolver(reader DocumentReader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{reader: reader, logger: logger}
}

// Resolve rewrites doc[ref.Field] in place when the referenced document
// exists and carries a string label. Any other case leaves the field as it
// was. It reports whether the field was rewritten.
func (r *Resolver) Resolve(ctx context.Context, doc model.Document, ref *Reference) bool {
	if ref == nil {
		return false
	}
	id, ok := doc.String(ref.Field)
	if !ok {
		return false
	}

	label, err := r.lookup(ctx, ref, id)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, model.ErrNotFound) {
			level = slog.LevelInfo
		}
		r.logger.Log(ctx, level, "Reference not resolved, keeping id",
			"field", ref.Field,
			"collection", ref.Collection,
			"id", id,
			"error", err,
		)
		return false
	}

	doc[ref.Field] = label
	return true
}

var errNoLabel = errors.New("referenced document has no string label")

func (r *Resolver) lookup(ctx context.Context, ref *Reference, id string) (string, error) {
	if id == "" || strings.Contains(id, "/") {
		return "", errors.New("invalid reference id")
	}

	target, err := r.reader.Get(ctx, storage.JoinPath(ref.Collection, id))
	if err != nil {
		return "", err
	}
	if target == nil {
		return "", model.ErrNotFound
	}
	label, ok := model.Document(target.Data).String(ref.LabelField)
	if !ok {
		return "", errNoLabel
	}
	return label, nil
}
