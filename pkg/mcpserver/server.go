// Package mcpserver exposes the storefront to MCP-capable agents.
//
// The server offers the catalog, the shop assistant and the contact form
// as MCP tools and is served over the streamable HTTP transport.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/catalog"
	"github.com/printology/storefront/pkg/transport"
)

// Backend is the subset of the storefront the tools call into.
type Backend interface {
	transport.ChatResponder
	transport.ContactReceiver
	transport.CatalogReader
}

// Server wraps an MCP server bound to a storefront backend.
type Server struct {
	backend Backend
	server  *mcp.Server
	logger  *slog.Logger
}

// New creates a server and registers all storefront tools.
func New(backend Backend, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		backend: backend,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "printology-storefront",
			Title:   "Printology",
			Version: version,
		}, &mcp.ServerOptions{
			Instructions: "Tools for the Printology print shop: browse services and prices, ask the shop assistant, and send a message to the team.",
		}),
		logger: logger,
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_services",
		Description: "Lists the print services with their starting prices",
	}, s.listServices)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_service",
		Description: "Returns one service with its full price sheet",
	}, s.getService)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_business_info",
		Description: "Returns address, opening hours, contact channels and current promotions",
	}, s.getBusinessInfo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_assistant",
		Description: "Asks the shop assistant a question in Indonesian or English",
	}, s.askAssistant)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "send_contact_message",
		Description: "Sends a message to the Printology team and a confirmation copy to the sender",
	}, s.sendContactMessage)

	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Handler returns the streamable HTTP handler for mounting on a mux.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// ListServicesInput filters the service list.
type ListServicesInput struct {
	CustomOnly bool `json:"custom_only,omitempty" jsonschema:"only list services that are quoted by hand"`
}

// ServiceSummary is a service without its price sheet.
type ServiceSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Custom      bool   `json:"custom"`
}

// ServiceList is the list_services result.
type ServiceList struct {
	Services []ServiceSummary `json:"services"`
}

func (s *Server) listServices(_ context.Context, _ *mcp.CallToolRequest, in ListServicesInput) (*mcp.CallToolResult, ServiceList, error) {
	out := ServiceList{Services: []ServiceSummary{}}
	for _, svc := range s.backend.Catalog().Services {
		if in.CustomOnly && !svc.Custom {
			continue
		}
		out.Services = append(out.Services, ServiceSummary{
			ID:          svc.ID,
			Name:        svc.Name,
			Description: svc.Description,
			Price:       svc.Price,
			Custom:      svc.Custom,
		})
	}
	return nil, out, nil
}

// GetServiceInput names one service.
type GetServiceInput struct {
	ID string `json:"id" jsonschema:"service id as returned by list_services"`
}

func (s *Server) getService(_ context.Context, _ *mcp.CallToolRequest, in GetServiceInput) (*mcp.CallToolResult, catalog.Service, error) {
	svc, ok := s.backend.Catalog().Service(strings.TrimSpace(in.ID))
	if !ok {
		return nil, catalog.Service{}, fmt.Errorf("unknown service %q", in.ID)
	}
	return nil, svc, nil
}

// BusinessInfo is the get_business_info result.
type BusinessInfo struct {
	Business   catalog.Business    `json:"business"`
	Promotions []catalog.Promotion `json:"promotions"`
}

func (s *Server) getBusinessInfo(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, BusinessInfo, error) {
	cat := s.backend.Catalog()
	return nil, BusinessInfo{Business: cat.Business, Promotions: cat.Promotions}, nil
}

// AskInput is one question for the shop assistant.
type AskInput struct {
	Message   string `json:"message" jsonschema:"the customer's question"`
	SessionID string `json:"session_id,omitempty" jsonschema:"continue an earlier conversation"`
}

func (s *Server) askAssistant(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, api.ChatReply, error) {
	reply, err := s.backend.Chat(ctx, &api.ChatRequest{SessionID: in.SessionID, Message: in.Message})
	if err != nil {
		s.logger.Warn("mcp ask_assistant failed", "error", err)
		return nil, api.ChatReply{}, toolError(err)
	}
	return nil, *reply, nil
}

// ContactInput is a contact form submission.
type ContactInput struct {
	Name    string `json:"name" jsonschema:"sender name"`
	Email   string `json:"email" jsonschema:"sender email address, receives the confirmation copy"`
	Phone   string `json:"phone,omitempty" jsonschema:"sender phone or WhatsApp number"`
	Service string `json:"service,omitempty" jsonschema:"service the message is about"`
	Message string `json:"message" jsonschema:"message body"`
}

func (s *Server) sendContactMessage(ctx context.Context, _ *mcp.CallToolRequest, in ContactInput) (*mcp.CallToolResult, api.ContactReply, error) {
	reply, err := s.backend.Contact(ctx, &api.ContactRequest{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Service: in.Service,
		Message: in.Message,
	})
	if err != nil {
		s.logger.Warn("mcp send_contact_message failed", "error", err)
		return nil, api.ContactReply{}, toolError(err)
	}
	return nil, *reply, nil
}

// toolError keeps the message of API errors and hides everything else.
func toolError(err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Type != api.ErrorTypeServerError {
		return errors.New(apiErr.Message)
	}
	return errors.New("the request could not be completed, please try again later")
}
