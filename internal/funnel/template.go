package funnel

import "context"

// TemplateRepository stores template metadata. Graph payloads live in the
// Store; keeping the two apart lets campaign clones share the same code
// path as template edits.
type TemplateRepository interface {
	Create(ctx context.Context, t Template) error
	Get(ctx context.Context, id string) (Template, error)
	List(ctx context.Context) ([]Template, error)
	Update(ctx context.Context, t Template) error
	Delete(ctx context.Context, id string) error
}

// VersionRepository stores immutable graph snapshots. There is no update:
// snapshots are created, listed, fetched and deleted, never mutated.
type VersionRepository interface {
	Create(ctx context.Context, v Version) error
	Get(ctx context.Context, id string) (Version, error)
	ListByTemplate(ctx context.Context, baseTemplateID string) ([]Version, error)
	Delete(ctx context.Context, id string) error
}
