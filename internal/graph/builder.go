package graph

import (
	"math"
	"math/rand"
	"time"
)

const (
	baseRadius   = 20.0
	radiusPerTag = 2.0
	spawnRadius  = 150.0

	defaultWidth  = 800.0
	defaultHeight = 600.0

	aiLinkStrength = 2.0
)

// Build derives the layout model from vault notes and AI link suggestions.
// Each note becomes one node, sized by tag count and spawned at a random
// point within spawnRadius of the container center. Links are the shared-tag
// pairs followed by the resolvable AI suggestions; a pair connected both
// ways keeps both links, so tag and AI edges render side by side.
//
// rng may be nil, in which case a time-seeded source is used. Tests pass a
// seeded one.
func Build(notes []Note, aiLinks []AiLink, bounds Bounds, rng *rand.Rand) ([]Node, []Link) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	bounds = bounds.orDefault()
	cx, cy := bounds.Center()

	nodes := make([]Node, 0, len(notes))
	for _, n := range notes {
		r := spawnRadius * rng.Float64()
		theta := 2 * math.Pi * rng.Float64()
		nodes = append(nodes, Node{
			ID:      n.ID,
			Title:   n.Title,
			Content: n.Content,
			Tags:    n.Tags,
			Type:    n.Type,
			X:       cx + r*math.Cos(theta),
			Y:       cy + r*math.Sin(theta),
			Radius:  baseRadius + radiusPerTag*float64(len(n.Tags)),
		})
	}

	links := tagLinks(notes)
	links = append(links, aiEdges(notes, aiLinks)...)
	return nodes, links
}

// tagLinks connects every unordered pair of notes that shares at least one
// tag, weighted by the number of shared tags. Quadratic over the vault,
// which is fine at the sizes a local vault reaches.
func tagLinks(notes []Note) []Link {
	var links []Link
	for i := 0; i < len(notes); i++ {
		if len(notes[i].Tags) == 0 {
			continue
		}
		tags := make(map[string]struct{}, len(notes[i].Tags))
		for _, t := range notes[i].Tags {
			tags[t] = struct{}{}
		}
		for j := i + 1; j < len(notes); j++ {
			shared := 0
			for _, t := range notes[j].Tags {
				if _, ok := tags[t]; ok {
					shared++
				}
			}
			if shared > 0 {
				links = append(links, Link{
					Source:   notes[i].ID,
					Target:   notes[j].ID,
					Strength: float64(shared),
					Type:     LinkTypeTag,
				})
			}
		}
	}
	return links
}

// aiEdges keeps the suggestions whose source and target both resolve to a
// known note. Dangling suggestions are dropped without comment; the store
// they came from may lag behind the vault.
func aiEdges(notes []Note, suggestions []AiLink) []Link {
	if len(suggestions) == 0 {
		return nil
	}
	ids := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		ids[n.ID] = struct{}{}
	}
	var links []Link
	for _, s := range suggestions {
		if _, ok := ids[s.Source]; !ok {
			continue
		}
		if _, ok := ids[s.Target]; !ok {
			continue
		}
		links = append(links, Link{
			Source:   s.Source,
			Target:   s.Target,
			Strength: aiLinkStrength,
			Type:     LinkTypeAI,
		})
	}
	return links
}
