package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for sercha-context resources.
	uriScheme = "sercha-context://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Cache, admission gate and context store statistics",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "contexts/{contextId}",
		Name:        "context",
		Description: "A stored context",
		MIMEType:    "application/json",
	}, s.handleContextResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "domains/{domain}",
		Name:        "domain-contexts",
		Description: "Stored contexts of a domain",
		MIMEType:    "application/json",
	}, s.handleDomainResource)
}

// handleStatsResource returns pipeline statistics.
func (s *Server) handleStatsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Query.Stats())
}

// handleContextResource returns one stored context.
func (s *Server) handleContextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Contexts == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract contextId from URI: sercha-context://contexts/{contextId}
	id := extractContextID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	c, err := s.ports.Contexts.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting context: %w", err)
	}
	return jsonResource(req.Params.URI, c)
}

// handleDomainResource returns the stored contexts of a domain.
func (s *Server) handleDomainResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Contexts == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract domain from URI: sercha-context://domains/{domain}
	label := extractDomain(req.Params.URI)
	if label == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	contexts, err := s.ports.Contexts.ListByDomain(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("listing contexts: %w", err)
	}
	if contexts == nil {
		contexts = []domain.Context{}
	}
	return jsonResource(req.Params.URI, contexts)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractContextID extracts the context ID from a URI like sercha-context://contexts/{contextId}.
func extractContextID(uri string) string {
	return extractSegment(uri, uriScheme+"contexts/")
}

// extractDomain extracts the domain label from a URI like sercha-context://domains/{domain}.
func extractDomain(uri string) string {
	return extractSegment(uri, uriScheme+"domains/")
}

func extractSegment(uri, prefix string) string {
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	seg := strings.TrimPrefix(uri, prefix)
	if strings.Contains(seg, "/") {
		return ""
	}
	return seg
}
