package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/graphmod/graphmod/internal/component"
	"github.com/graphmod/graphmod/internal/datasource"
	"github.com/graphmod/graphmod/internal/eventbus"
	"github.com/graphmod/graphmod/internal/logging"
	"github.com/graphmod/graphmod/internal/metrics"
	"github.com/graphmod/graphmod/internal/otel"
	"github.com/graphmod/graphmod/internal/reqctx"
	"github.com/graphmod/graphmod/internal/schema"
	"github.com/graphmod/graphmod/internal/server"
)

// ------------------ Catalog component ------------------

const catalogSDL = `
type Query {
  book(id: ID!): Book
  books: [Book!]!
}
type Mutation {
  addBook(id: ID!, title: String!, author: String!): Book
}
type Book {
  id: ID!
  title: String!
  author: String!
}
`

// bookCatalog is the catalog component's data source. The Redis client is
// shared across requests; Bind hands each request its own facade.
type bookCatalog struct {
	rdb *redis.Client
}

func (c *bookCatalog) Key() string { return "catalog" }

func (c *bookCatalog) Bind(rc *reqctx.Context) any {
	return &catalogClient{rc: rc, rdb: c.rdb}
}

type catalogClient struct {
	rc  *reqctx.Context
	rdb *redis.Client
}

func (c *catalogClient) Book(ctx context.Context, id string) (map[string]any, error) {
	fields, err := c.rdb.HGetAll(ctx, "book:"+id).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return bookValue(fields), nil
}

func (c *catalogClient) Books(ctx context.Context) ([]any, error) {
	ids, err := c.rdb.SMembers(ctx, "books").Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		book, err := c.Book(ctx, id)
		if err != nil {
			return nil, err
		}
		if book != nil {
			out = append(out, book)
		}
	}
	return out, nil
}

func (c *catalogClient) AddBook(ctx context.Context, id, title, author string) (map[string]any, error) {
	if err := c.rdb.HSet(ctx, "book:"+id, "id", id, "title", title, "author", author).Err(); err != nil {
		return nil, err
	}
	if err := c.rdb.SAdd(ctx, "books", id).Err(); err != nil {
		return nil, err
	}
	return c.Book(ctx, id)
}

func bookValue(fields map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func catalogComponent(rdb *redis.Client) (*component.Node, error) {
	return component.New("catalog", component.Options{
		Types: []string{catalogSDL},
		Resolvers: schema.ResolverMap{
			"Query.book": func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
				c, err := datasource.From[*catalogClient](ctx, "catalog")
				if err != nil {
					return nil, err
				}
				return c.Book(ctx, args["id"].(string))
			},
			"Query.books": func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
				c, err := datasource.From[*catalogClient](ctx, "catalog")
				if err != nil {
					return nil, err
				}
				return c.Books(ctx)
			},
			"Mutation.addBook": func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
				c, err := datasource.From[*catalogClient](ctx, "catalog")
				if err != nil {
					return nil, err
				}
				return c.AddBook(ctx, args["id"].(string), args["title"].(string), args["author"].(string))
			},
		},
		Sources: []datasource.Source{&bookCatalog{rdb: rdb}},
	})
}

// ------------------ Reviews component ------------------

const reviewsSDL = `
type Query {
  reviews(bookId: ID!): [Review!]!
}
type Review {
  bookId: ID!
  body: String!
  rating: Int!
}
`

// reviewStore keeps reviews in memory; the instance outlives requests, so
// submissions stay visible to later ones.
type reviewStore struct {
	mu     sync.RWMutex
	byBook map[string][]map[string]any
}

func newReviewStore() *reviewStore {
	return &reviewStore{byBook: map[string][]map[string]any{}}
}

func (s *reviewStore) Key() string { return "reviews" }

func (s *reviewStore) Bind(rc *reqctx.Context) any {
	return &reviewsClient{rc: rc, store: s}
}

func (s *reviewStore) add(bookID, body string, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byBook[bookID] = append(s.byBook[bookID], map[string]any{
		"bookId": bookID,
		"body":   body,
		"rating": rating,
	})
}

type reviewsClient struct {
	rc    *reqctx.Context
	store *reviewStore
}

func (c *reviewsClient) ForBook(bookID string) []any {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	reviews := c.store.byBook[bookID]
	out := make([]any, len(reviews))
	for i, r := range reviews {
		out[i] = r
	}
	return out
}

func reviewsComponent(store *reviewStore) (*component.Node, error) {
	return component.New("reviews", component.Options{
		Types: []string{reviewsSDL},
		Resolvers: schema.ResolverMap{
			"Query.reviews": func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
				c, err := datasource.From[*reviewsClient](ctx, "reviews")
				if err != nil {
					return nil, err
				}
				return c.ForBook(args["bookId"].(string)), nil
			},
		},
		Sources: []datasource.Source{store},
	})
}

// ------------------ Gateway component ------------------

const gatewaySDL = `
type Query {
  health: Boolean!
}
extend type Book {
  reviews: [Review!]!
}
`

// buildRoot composes the public gateway: the catalog without its admin
// mutations, the reviews component, and a local extension stitching reviews
// onto Book.
func buildRoot(rdb *redis.Client, store *reviewStore) (*component.Node, error) {
	catalog, err := catalogComponent(rdb)
	if err != nil {
		return nil, err
	}
	reviews, err := reviewsComponent(store)
	if err != nil {
		return nil, err
	}
	return component.New("gateway", component.Options{
		Types: []string{gatewaySDL},
		Resolvers: schema.ResolverMap{
			"Query.health": func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
				return true, nil
			},
			"Book.reviews": func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
				book, _ := source.(map[string]any)
				id, _ := book["id"].(string)
				c, err := datasource.From[*reviewsClient](ctx, "reviews")
				if err != nil {
					return nil, err
				}
				return c.ForBook(id), nil
			},
		},
		Imports: []any{
			component.Import{Node: catalog, Exclude: []string{"Mutation.*"}},
			reviews,
		},
		Context: &reqctx.Contribution{
			Namespace: "viewer",
			Factory: func(ctx context.Context, input reqctx.Input) (any, error) {
				headers, _ := input["headers"].(http.Header)
				if headers == nil {
					return "", nil
				}
				return headers.Get("Authorization"), nil
			},
		},
	})
}

func seed(ctx context.Context, rdb *redis.Client, store *reviewStore) error {
	books := []struct{ id, title, author string }{
		{"b1", "The Go Programming Language", "Donovan & Kernighan"},
		{"b2", "Designing Data-Intensive Applications", "Martin Kleppmann"},
		{"b3", "Site Reliability Engineering", "Beyer et al."},
	}
	for _, b := range books {
		if err := rdb.HSet(ctx, "book:"+b.id, "id", b.id, "title", b.title, "author", b.author).Err(); err != nil {
			return err
		}
		if err := rdb.SAdd(ctx, "books", b.id).Err(); err != nil {
			return err
		}
	}
	store.add("b1", "A thorough introduction.", 5)
	store.add("b2", "Dense but worth it.", 4)
	return nil
}

func main() {
	addr := flag.String("addr", ":8080", "the address to listen on")
	redisAddr := flag.String("redis", "localhost:6379", "redis address for the catalog")
	logLevel := flag.String("log-level", "info", "log level")
	otelEndpoint := flag.String("otel", "", "OTLP gRPC endpoint; empty disables tracing")
	flag.Parse()

	eventbus.Use(eventbus.New())
	logger := logging.New(os.Stderr, *logLevel)
	defer logging.Subscribe(logger)()
	defer metrics.New().Subscribe()()

	ctx := context.Background()
	if *otelEndpoint != "" {
		shutdown, err := otel.Setup(*otelEndpoint, "bookstore")
		if err != nil {
			log.Fatalf("otel setup: %v", err)
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("otel shutdown: %v", err)
			}
		}()
	}

	rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
	store := newReviewStore()
	if err := seed(ctx, rdb, store); err != nil {
		log.Fatalf("seed catalog: %v", err)
	}

	root, err := buildRoot(rdb, store)
	if err != nil {
		log.Fatalf("compose gateway: %v", err)
	}

	handler, err := server.New(rootEngine{}, root, server.WithPretty(), server.WithCORS("*"))
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	handler.Contexts().Register("require-viewer", func(ctx context.Context, input reqctx.Input) (reqctx.Input, error) {
		// Demo middleware: tag anonymous traffic instead of rejecting it.
		headers, _ := input["headers"].(http.Header)
		if headers != nil && headers.Get("Authorization") == "" {
			input["anonymous"] = true
		}
		return input, nil
	})

	mux := http.NewServeMux()
	mux.Handle("/graphql", handler)
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("bookstore gateway listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
