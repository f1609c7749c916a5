// Package example is the demo schema served by cmd/silkweave: a greeting,
// a union of pets and a books entity.
package example

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hanpama/silkweave/internal/adapter/structsilk"
	"github.com/hanpama/silkweave/internal/entity"
	"github.com/hanpama/silkweave/internal/middleware"
	"github.com/hanpama/silkweave/internal/resolver"
	"github.com/hanpama/silkweave/internal/silk"
)

// HelloInput holds the arguments of hello.
type HelloInput struct {
	Name *string `graphql:"name" validate:"omitempty,min=1,max=64"`
}

type Cat struct {
	Name  string `graphql:"name" validate:"required"`
	Lives int    `graphql:"lives"`
}

func (Cat) Describe() string { return "Cat: A cat with some lives left" }

type Dog struct {
	Name     string `graphql:"name" validate:"required"`
	GoodBoy  bool   `graphql:"goodBoy"`
	Tricks   []string
	LastWalk *time.Time `graphql:"lastWalk"`
}

var (
	catSilk = structsilk.Of[Cat]()
	dogSilk = structsilk.Of[Dog]()
	petSilk = structsilk.Union("Pet", "Anything living on the shelf", catSilk, dogSilk)
)

// Book is the entity schema of the books demo.
var Book = &entity.Schema{
	Name:        "Book",
	Description: "A book on the shelf",
	Properties: []entity.Property{
		{Name: "ISBN", Type: entity.String, Primary: true},
		{Name: "title", Type: entity.String, Validate: "min=1,max=200"},
		{Name: "isPublished", Type: entity.Boolean},
		{Name: "price", Type: entity.Number, Nullable: true, Validate: "gte=0"},
		{Name: "tags", Type: entity.String, Array: true},
		{Name: "sales", Type: entity.Integer, Hidden: true, Nullable: true},
	},
}

// Lister is implemented by stores that can read back committed rows.
type Lister interface {
	All(schema *entity.Schema) []map[string]any
}

// Library wires the demo operations to an entity store.
type Library struct {
	books *entity.Operations
	store entity.Store
	pets  []any
}

// New returns the demo over store. Every request works on its own forked
// session. The books query lists rows only when store implements Lister.
func New(store entity.Store) *Library {
	return &Library{
		store: store,
		books: entity.NewOperations(Book, entity.Forked(store)),
		pets: []any{
			Cat{Name: "Tom", Lives: 9},
			Dog{Name: "Rex", GoodBoy: true, Tricks: []string{"sit"}},
		},
	}
}

// Books returns the operation builder of the Book entity.
func (l *Library) Books() *entity.Operations { return l.books }

// Resolvers returns the root resolver and the Book field resolver.
func (l *Library) Resolvers() []*resolver.Resolver {
	root := resolver.New(resolver.Operations{
		"hello": resolver.Query(silk.String, resolver.Options{
			Input:       structsilk.Of[HelloInput](),
			Description: "Greets name, or the world",
			Resolve: func(_ context.Context, _, in any) (any, error) {
				input := in.(HelloInput)
				name := "World"
				if input.Name != nil {
					name = *input.Name
				}
				return fmt.Sprintf("Hello, %s!", name), nil
			},
		}),
		"pets": resolver.Query(silk.List(petSilk), resolver.Options{
			Middlewares: []*middleware.Middleware{middleware.Cache(middleware.CacheConfig{TTL: 30 * time.Second})},
			Resolve: func(context.Context, any, any) (any, error) {
				return l.pets, nil
			},
		}),
		"books": resolver.Query(silk.List(l.books.Silk()), resolver.ResolveFunc(func(context.Context, any, any) (any, error) {
			lister, ok := l.store.(Lister)
			if !ok {
				return []any{}, nil
			}
			rows := lister.All(Book)
			out := make([]any, len(rows))
			for i, r := range rows {
				out[i] = r
			}
			return out, nil
		})),
		"createBook": l.books.Create(entity.CreateOptions{Description: "Adds a book to the shelf"}),
	})

	fields := resolver.Of(l.books.Silk(), resolver.Operations{
		"summary": resolver.Field(silk.String, resolver.ResolveFunc(func(_ context.Context, parent, _ any) (any, error) {
			g, ok := parent.(entity.Getter)
			if !ok {
				if m, isMap := parent.(map[string]any); isMap {
					g = mapGetter(m)
				} else {
					return nil, fmt.Errorf("summary: unexpected parent %T", parent)
				}
			}
			summary := fmt.Sprint(g.Get("title"))
			if tags, _ := g.Get("tags").([]any); len(tags) > 0 {
				parts := make([]string, len(tags))
				for i, t := range tags {
					parts[i] = fmt.Sprint(t)
				}
				summary += " [" + strings.Join(parts, ", ") + "]"
			}
			return summary, nil
		})),
	})
	return []*resolver.Resolver{root, fields}
}

type mapGetter map[string]any

func (m mapGetter) Get(name string) any { return m[name] }
