package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/acme-blogs/internal/gateway"
	"github.com/kingrea/acme-blogs/internal/model"
	"github.com/kingrea/acme-blogs/internal/uitree"
)

// Enrichment selects how per-post author and comment fetches are scheduled.
type Enrichment string

const (
	// EnrichSequential fetches one post's data at a time, in input order.
	EnrichSequential Enrichment = "sequential"
	// EnrichParallel fetches up to MaxParallel posts at once and reassembles
	// the results in input order.
	EnrichParallel Enrichment = "parallel"

	defaultMaxParallel = 4
)

// ParseEnrichment maps a config value onto an Enrichment, defaulting to
// sequential.
func ParseEnrichment(value string) Enrichment {
	if Enrichment(strings.ToLower(strings.TrimSpace(value))) == EnrichParallel {
		return EnrichParallel
	}
	return EnrichSequential
}

// Entry indexes one rendered post.
type Entry struct {
	PostID  int
	Article *uitree.Node
	Button  *uitree.Node
	Section *uitree.Node
}

// Fragment is a detached subtree ready to mount, plus the index of the
// posts it contains.
type Fragment struct {
	Root    *uitree.Node
	Entries []Entry
}

// Builder turns gateway records into display fragments.
type Builder struct {
	gw          gateway.Gateway
	enrichment  Enrichment
	maxParallel int
	log         logrus.FieldLogger
}

// BuilderOption customizes Builder construction.
type BuilderOption func(*Builder)

// WithEnrichment selects the enrichment mode and, for parallel mode, the
// fan-out limit.
func WithEnrichment(mode Enrichment, maxParallel int) BuilderOption {
	return func(b *Builder) {
		b.enrichment = mode
		if maxParallel > 0 {
			b.maxParallel = maxParallel
		}
	}
}

// WithBuilderLogger records per-post build failures.
func WithBuilderLogger(l logrus.FieldLogger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// NewBuilder returns a sequential builder reading from gw.
func NewBuilder(gw gateway.Gateway, opts ...BuilderOption) *Builder {
	b := &Builder{
		gw:          gw,
		enrichment:  EnrichSequential,
		maxParallel: defaultMaxParallel,
		log:         discardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// BuildCommentSection fetches postID's comments and returns a hidden
// section holding one article per comment, in gateway order. A zero postID
// yields nil, nil.
func (b *Builder) BuildCommentSection(ctx context.Context, postID int) (*uitree.Node, error) {
	if postID <= 0 {
		return nil, nil
	}
	comments, err := b.gw.FetchCommentsForPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	section := uitree.MakeNode("section", "", ClassComments)
	section.AddClass(uitree.HiddenClass)
	section.SetData(DataPostID, postIDString(postID))
	for _, comment := range comments {
		section.AppendChild(commentBlock(comment))
	}
	return section, nil
}

func commentBlock(c model.Comment) *uitree.Node {
	article := uitree.MakeNode("article", "", "")
	article.AppendChild(uitree.MakeNode("h3", c.Name, ""))
	article.AppendChild(uitree.MakeNode("p", c.Body, ""))
	article.AppendChild(uitree.MakeNode("p", c.FromLine(), ""))
	return article
}

// BuildPosts renders every post with its author line, toggle button and
// comment section. Output order always matches input order, and a repeated
// post id is rendered once. Any failed fetch fails the whole build. A nil
// slice yields nil, nil.
func (b *Builder) BuildPosts(ctx context.Context, posts []model.Post) (*Fragment, error) {
	if posts == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	posts = b.uniquePosts(posts)
	entries := make([]Entry, len(posts))
	if b.enrichment == EnrichParallel && len(posts) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.maxParallel)
		for i := range posts {
			i := i
			g.Go(func() error {
				e, err := b.buildPost(gctx, posts[i])
				if err != nil {
					return err
				}
				entries[i] = e
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range posts {
			e, err := b.buildPost(ctx, posts[i])
			if err != nil {
				return nil, err
			}
			entries[i] = e
		}
	}

	root := uitree.NewFragment()
	for _, e := range entries {
		root.AppendChild(e.Article)
	}
	return &Fragment{Root: root, Entries: entries}, nil
}

// uniquePosts drops repeated post ids, keeping the first occurrence. The
// session indexes buttons and sections by post id.
func (b *Builder) uniquePosts(posts []model.Post) []model.Post {
	seen := make(map[int]struct{}, len(posts))
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if _, dup := seen[p.ID]; dup {
			b.log.WithField("post", p.ID).Warn("duplicate post id skipped")
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (b *Builder) buildPost(ctx context.Context, post model.Post) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	author, err := b.gw.FetchEmployee(ctx, post.UserID)
	if err != nil {
		b.log.WithFields(logrus.Fields{"post": post.ID, "user": post.UserID}).WithError(err).Warn("author fetch failed")
		return Entry{}, err
	}
	if author == nil {
		return Entry{}, fmt.Errorf("render: post %d: no author for user %d", post.ID, post.UserID)
	}
	section, err := b.BuildCommentSection(ctx, post.ID)
	if err != nil {
		b.log.WithField("post", post.ID).WithError(err).Warn("comment fetch failed")
		return Entry{}, err
	}

	article := uitree.MakeNode("article", "", "")
	article.AppendChild(uitree.MakeNode("h2", post.Title, ""))
	article.AppendChild(uitree.MakeNode("p", post.Body, ""))
	article.AppendChild(uitree.MakeNode("p", fmt.Sprintf("Post ID: %d", post.ID), ""))
	article.AppendChild(uitree.MakeNode("p", author.AuthorLine(), ""))
	article.AppendChild(uitree.MakeNode("p", author.Company.CatchPhrase, ""))
	button := uitree.MakeNode("button", string(LabelShowComments), "")
	button.SetData(DataPostID, postIDString(post.ID))
	article.AppendChild(button)
	if section != nil {
		article.AppendChild(section)
	}
	return Entry{PostID: post.ID, Article: article, Button: button, Section: section}, nil
}

// Placeholder returns the fragment shown when there are no posts.
func (b *Builder) Placeholder() *Fragment {
	root := uitree.NewFragment()
	root.AppendChild(uitree.MakeNode("p", PlaceholderText, ClassDefaultText))
	return &Fragment{Root: root}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
