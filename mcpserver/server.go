// Package mcpserver exposes section search as a Model Context Protocol tool.
package mcpserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/poiesic/nyaya/core"
)

const (
	// ServerName is the implementation name announced to clients.
	ServerName = "nyaya"

	// SearchToolName is the name of the section search tool.
	SearchToolName = "search_sections"
)

var (
	// ErrSearcherRequired is returned when no searcher is supplied.
	ErrSearcherRequired = errors.New("searcher is required")

	// ErrEmptyQuery is reported as a tool error for a blank query.
	ErrEmptyQuery = errors.New("query is required")
)

// Searcher returns scored sections for a query.
type Searcher interface {
	SearchScored(ctx context.Context, query string) ([]*core.SearchResult, error)
}

// SearchInput is the argument object of search_sections.
type SearchInput struct {
	Query string `json:"query" jsonschema:"free-text description of the incident or offence"`
}

// Hit is one ranked section.
type Hit struct {
	Id          core.ID `json:"id"`
	SectionNo   string  `json:"sectionNo"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Punishment  string  `json:"punishment"`
	Score       float64 `json:"score"`
}

// SearchOutput is the structured result of search_sections.
type SearchOutput struct {
	Results []Hit `json:"results"`
}

// Server wraps an MCP server with the search tool registered.
type Server struct {
	server   *mcp.Server
	searcher Searcher
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates the MCP server. version is announced to clients.
func New(searcher Searcher, version string, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	s := &Server{
		searcher: searcher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        SearchToolName,
		Description: "Find the Bharatiya Nyaya Sanhita sections most relevant to a description of an incident. Returns up to four sections.",
	}, s.searchSections)

	return s, nil
}

// MCP returns the underlying server, for custom transports.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "transport", "stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) searchSections(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, SearchOutput{}, ErrEmptyQuery
	}

	results, err := s.searcher.SearchScored(ctx, query)
	if err != nil {
		s.logger.Error("search failed", "err", err)
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Results: make([]Hit, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, Hit{
			Id:          r.Section.Id,
			SectionNo:   r.Section.SectionNo,
			Title:       r.Section.Title,
			Description: r.Section.Description,
			Punishment:  r.Section.Punishment,
			Score:       r.Score,
		})
	}
	return nil, out, nil
}
