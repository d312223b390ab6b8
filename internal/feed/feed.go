package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmorgan81/text2image/internal/log"
	"github.com/dmorgan81/text2image/internal/store"
	"github.com/gorilla/feeds"
	"github.com/samber/lo"
)

type Generator struct {
	lister  store.Lister
	baseURL string
}

func NewGenerator(lister store.Lister, baseURL string) *Generator {
	return &Generator{lister, strings.TrimRight(baseURL, "/")}
}

// Generate renders an RSS feed of archived images, newest first.
func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("feed")
	log.Info("generating rss feed")

	objs, err := g.lister.List(ctx)
	if err != nil {
		return nil, err
	}

	feed := feeds.Feed{
		Title:       "text2image",
		Description: "Generated images",
		Link:        &feeds.Link{Href: g.baseURL + "/"},
		Updated:     time.Now(),
	}

	pngs := lo.Filter(objs, func(o store.Object, _ int) bool {
		return strings.HasSuffix(o.Name, ".png") && !strings.HasPrefix(o.Name, "latest")
	})
	for _, o := range pngs {
		meta := o.Metadata
		id := strings.TrimSuffix(o.Name, ".png")
		updated := o.Modified
		if created, err := time.Parse(time.RFC3339, meta["created"]); err == nil {
			updated = created
		}
		feed.Add(&feeds.Item{
			Id:          id,
			Title:       fmt.Sprintf("%s:%s", lo.CoalesceOrEmpty(meta["prompt"], id), meta["model"]),
			Description: meta["normalized_prompt"],
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/%s.html", g.baseURL, id)},
			Updated:     updated,
		})
	}

	feed.Sort(func(a, b *feeds.Item) bool {
		return a.Updated.After(b.Updated)
	})
	rss, err := feed.ToRss()
	return []byte(rss), err
}
