package docfill

import (
	"context"
	"strings"
)

// Service wires the template store and the fill engine together. It is the
// layer both the HTTP server and the CLI drive.
type Service struct {
	cfg    *Config
	store  BlobStore
	filler *Filler
}

// NewService creates a Service over the given store. A nil cfg falls back to
// the global configuration.
func NewService(cfg *Config, store BlobStore) *Service {
	if cfg == nil {
		cfg = GetGlobalConfig()
	}
	return &Service{
		cfg:    cfg,
		store:  store,
		filler: NewFiller(cfg),
	}
}

// FillFromStore fetches a template from the store and fills it. An empty
// templateKey selects the configured default template. The returned bytes
// are a valid document even when err is non-nil; callers distinguish fatal
// failures by a nil byte slice.
func (s *Service) FillFromStore(ctx context.Context, templateKey string, values, images map[string]string) ([]byte, error) {
	if templateKey == "" {
		templateKey = s.cfg.DefaultTemplateKey
	}

	template, err := s.store.Fetch(ctx, templateKey)
	if err != nil {
		return nil, NewTemplateNotFoundError(templateKey, err)
	}

	GetLogger().WithFields(Fields{
		"template": templateKey,
		"values":   len(values),
		"images":   len(images),
	}).Info("filling template")

	return s.filler.Fill(template, values, images)
}

// FillAndUpload fills a template and writes the result back to the store
// under a non-colliding key derived from outputKey. It returns the key
// actually used and, when a base URL is configured, the object's public URL.
func (s *Service) FillAndUpload(ctx context.Context, templateKey, outputKey string, values, images map[string]string) (string, string, error) {
	if outputKey == "" {
		outputKey = s.cfg.DefaultOutputName
	}

	doc, err := s.FillFromStore(ctx, templateKey, values, images)
	if doc == nil {
		return "", "", err
	}
	fillErr := err

	key, err := uniqueOutputKey(ctx, s.store, outputKey, s.cfg.KeyProbeWindow)
	if err != nil {
		return "", "", NewStoreError(outputKey, err)
	}

	if err := s.store.Store(ctx, key, doc); err != nil {
		return "", "", NewStoreError(key, err)
	}

	GetLogger().WithField("key", key).Info("stored filled document")

	return key, s.objectURL(key), fillErr
}

// objectURL returns the public URL for a stored object, or empty when no
// base URL is configured.
func (s *Service) objectURL(key string) string {
	if s.cfg.StoreBaseURL == "" {
		return ""
	}
	return strings.TrimSuffix(s.cfg.StoreBaseURL, "/") + "/" + key
}
