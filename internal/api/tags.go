package api

import (
	"context"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
	"github.com/kutbudev/ofocus-cli/internal/normalize"
)

// ListTags returns tags matching f.
func (c *Client) ListTags(ctx context.Context, f models.TagFilter) (*List[models.Tag], error) {
	var all []models.Tag
	meta := Meta{}
	if c.cacheGet(keyTags, &all) {
		meta.FromCache = true
	} else {
		// with the cache on, fetch everything and filter here
		hostFilter := f
		if c.cache != nil {
			hostFilter = models.TagFilter{}
		}
		s, err := build(c.scripts.ListTags(hostFilter))
		if err != nil {
			return nil, err
		}
		v, err := c.run(ctx, s)
		if err != nil {
			return nil, err
		}
		dec, err := normalize.DecodeTags(v)
		if err != nil {
			return nil, err
		}
		all, meta.Scanned, meta.Dropped = dec.Records, dec.Scanned, dec.Dropped
		if c.cache != nil {
			c.cachePut(keyTags, all, c.ttl.Tags)
		}
	}

	items := make([]models.Tag, 0, len(all))
	for _, t := range all {
		if f.Matches(t) {
			items = append(items, t)
		}
	}
	meta.Filtered = len(all) - len(items)
	return &List[models.Tag]{Items: items, Meta: meta}, nil
}

// TagResult is the outcome of a tag mutation. Tag is nil after a delete.
type TagResult struct {
	Action  string      `json:"action"`
	Tag     *models.Tag `json:"tag,omitempty"`
	Created bool        `json:"created,omitempty"`
	Deleted string      `json:"deleted,omitempty"`
}

// ManageTag creates, renames, deletes or re-parents a tag.
func (c *Client) ManageTag(ctx context.Context, op models.TagOperation) (*TagResult, error) {
	if err := c.check(op); err != nil {
		return nil, err
	}
	s, err := build(c.scripts.ManageTag(op))
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := normalize.CheckReported(v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, bridgeerr.Newf(bridgeerr.UnexpectedShape, "unexpected tag reply %T", v)
	}
	res := &TagResult{Action: op.Action, Deleted: normalize.String(m, "deleted")}
	if op.Action != models.TagActionDelete {
		t, err := normalize.DecodeTag(v)
		if err != nil {
			return nil, err
		}
		res.Tag = &t
		res.Created = normalize.Bool(m, "created")
	}
	c.invalidate(keyTags)
	return res, nil
}

// ListFolders returns every folder.
func (c *Client) ListFolders(ctx context.Context) (*List[models.Folder], error) {
	var all []models.Folder
	if c.cacheGet(keyFolders, &all) {
		return &List[models.Folder]{Items: all, Meta: Meta{FromCache: true}}, nil
	}
	s, err := build(c.scripts.ListFolders())
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	dec, err := normalize.DecodeFolders(v)
	if err != nil {
		return nil, err
	}
	c.cachePut(keyFolders, dec.Records, c.ttl.Folders)
	return &List[models.Folder]{Items: dec.Records, Meta: Meta{Scanned: dec.Scanned, Dropped: dec.Dropped}}, nil
}

// CreateFolder adds a folder, nested under parent when given.
func (c *Client) CreateFolder(ctx context.Context, name, parent string) (*models.Folder, error) {
	s, err := build(c.scripts.CreateFolder(name, parent))
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	f, err := normalize.DecodeFolder(v)
	if err != nil {
		return nil, err
	}
	c.invalidate(keyFolders)
	return &f, nil
}
