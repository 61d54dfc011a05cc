package specindex

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/model"
)

// Build indexes one source's listings. Listings whose key is empty or
// shorter than minKeyLen, or that carry no donor values, are skipped.
// When several listings share a key, the one with the most non-empty
// donor fields wins and earlier listings win ties.
func Build(source string, listings []model.RawListing, ex *canonical.Extractor, minKeyLen int) *Index {
	if minKeyLen <= 0 {
		minKeyLen = DefaultMinKeyLength
	}
	idx := New(source)
	for _, l := range listings {
		idx.stats.Listings++
		r := ex.KeyOf(l.Name, l.Brand)
		if r.Key == "" {
			idx.stats.Unkeyable++
			continue
		}
		if len(r.Key) < minKeyLen {
			idx.stats.ShortKey++
			continue
		}
		if r.Degraded() {
			idx.stats.Degraded++
		}
		rec := model.NewSpecRecord(string(r.Key), source, l.Specs, model.DonorFields)
		if rec.Empty() {
			idx.stats.NoSpecs++
			continue
		}
		idx.Offer(r.Key, rec)
	}
	return idx
}

// Merge combines per-source indices into one. Indices are visited in
// precedence order and the first index holding a key supplies it; later
// sources only add keys not yet present. Sources missing from precedence
// follow in name order.
func Merge(precedence []string, indices []*Index) *Index {
	merged := New("")
	for _, idx := range Ordered(precedence, indices) {
		idx.Each(func(k canonical.Key, rec model.SpecRecord) bool {
			merged.insert(k, rec)
			return true
		})
	}
	return merged
}

// Ordered sorts indices by precedence. Unlisted sources keep their
// relative name order after the listed ones.
func Ordered(precedence []string, indices []*Index) []*Index {
	rank := Rank(precedence)
	out := make([]*Index, len(indices))
	copy(out, indices)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rankOf(rank, out[i].source), rankOf(rank, out[j].source)
		if ri != rj {
			return ri < rj
		}
		return out[i].source < out[j].source
	})
	return out
}

// Rank maps source names to their position in precedence.
func Rank(precedence []string) map[string]int {
	rank := make(map[string]int, len(precedence))
	for i, s := range precedence {
		if _, dup := rank[s]; !dup {
			rank[s] = i
		}
	}
	return rank
}

func rankOf(rank map[string]int, source string) int {
	if r, ok := rank[source]; ok {
		return r
	}
	return len(rank)
}

// Group is the listings of one source.
type Group struct {
	Source   string
	Listings []model.RawListing
}

// BuildOptions controls BuildAll.
type BuildOptions struct {
	Precedence  []string
	MinKeyLen   int
	Concurrency int
}

// BuildAll builds every source index concurrently and merges them. The
// per-source indices are returned in precedence order.
func BuildAll(ctx context.Context, groups []Group, ex *canonical.Extractor, opts BuildOptions) (*Index, []*Index, error) {
	indices := make([]*Index, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, grp := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrapf(err, "specindex: build %s", grp.Source)
			}
			indices[i] = Build(grp.Source, grp.Listings, ex, opts.MinKeyLen)
			zap.L().Debug("source index built",
				zap.String("source", grp.Source),
				zap.Int("listings", len(grp.Listings)),
				zap.Int("keys", indices[i].Len()),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	ordered := Ordered(opts.Precedence, indices)
	merged := Merge(opts.Precedence, ordered)
	zap.L().Info("merged spec index built",
		zap.Int("sources", len(ordered)),
		zap.Int("keys", merged.Len()),
	)
	return merged, ordered, nil
}
