package app

import (
	"context"
	"fmt"

	"github.com/toolbridge/toolbridge/internal/bridge"
	"github.com/toolbridge/toolbridge/internal/common"
	"github.com/toolbridge/toolbridge/internal/config"
	"github.com/toolbridge/toolbridge/internal/handlers"
)

// App holds all application components and dependencies.
type App struct {
	Config   *config.Config
	Logger   *common.Logger
	Registry *bridge.Registry

	// HTTP handlers backing the local tools
	MathHandler    *handlers.MathHandler
	ItemsHandler   *handlers.ItemsHandler
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
}

// New initializes the application: handlers, registry, and the full
// registration phase (local tools, configured proxies, OpenAPI imports).
// Any registration failure aborts initialization; the caller must not serve.
func New(ctx context.Context, cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	a.initHandlers()

	a.Registry = bridge.NewRegistry(cfg, logger)
	if err := a.registerLocalTools(); err != nil {
		return nil, fmt.Errorf("failed to register local tools: %w", err)
	}
	if err := a.registerProxies(); err != nil {
		return nil, fmt.Errorf("failed to register proxy tools: %w", err)
	}
	if err := a.importOpenAPI(ctx); err != nil {
		return nil, fmt.Errorf("failed to import openapi tools: %w", err)
	}

	logger.Info().Int("tools", len(a.Registry.Tools())).Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.MathHandler = handlers.NewMathHandler(a.Logger)
	a.ItemsHandler = handlers.NewItemsHandler(a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// registerLocalTools exposes the demo API routes as tools. Each declaration
// mirrors the route's handler signature; the routes themselves stay in the
// server's own routing table and dispatch re-enters it.
func (a *App) registerLocalTools() error {
	reg := a.Registry

	if err := reg.RegisterTool(bridge.RouteSignature{
		Path:   "/api/multiply",
		Method: "GET",
		Params: []bridge.RouteParam{
			{Name: "a", Type: "number", Description: "The first number."},
			{Name: "b", Type: "number", Description: "The second number."},
		},
	}, bridge.WithName("multiply"), bridge.WithDescription("Multiply two numbers.")); err != nil {
		return err
	}

	if err := reg.RegisterTool(bridge.RouteSignature{
		Path:   "/api/add",
		Method: "POST",
		Params: []bridge.RouteParam{
			{Name: "a", Type: "number", Body: true, Description: "The first number."},
			{Name: "b", Type: "number", Body: true, Description: "The second number."},
		},
	}, bridge.WithName("add"), bridge.WithDescription("Add two numbers.")); err != nil {
		return err
	}

	// The auth check runs in the upstream handler via forwarded headers;
	// its parameter is injected, never exposed to the caller.
	if err := reg.RegisterTool(bridge.RouteSignature{
		Path:   "/api/subtract",
		Method: "GET",
		Params: []bridge.RouteParam{
			{Name: "a", Type: "number", Description: "The first number."},
			{Name: "b", Type: "number", Description: "The second number."},
			{Name: "auth", Injected: true},
		},
	}, bridge.WithName("subtract"), bridge.WithDescription("Subtract two numbers with authentication.")); err != nil {
		return err
	}

	if err := reg.RegisterTool(bridge.RouteSignature{
		Path:   "/api/hello",
		Method: "GET",
	}, bridge.WithName("hello"), bridge.WithDescription("Say hello.")); err != nil {
		return err
	}

	if err := reg.RegisterTool(bridge.RouteSignature{
		Path:   "/api/items/{id}",
		Method: "GET",
		Params: []bridge.RouteParam{
			{Name: "id", Type: "string", Description: "The item identifier."},
		},
	}, bridge.WithName("get_item"), bridge.WithDescription("Look up an item by id.")); err != nil {
		return err
	}

	return nil
}

// registerProxies registers the manual proxy tools declared in config.
func (a *App) registerProxies() error {
	for _, p := range a.Config.Proxies {
		declared := make([]bridge.ProxyParam, len(p.Params))
		for i, pp := range p.Params {
			declared[i] = bridge.ProxyParam{
				Name:        pp.Name,
				Type:        pp.Type,
				In:          bridge.Location(pp.In),
				Description: pp.Description,
				Required:    pp.Required,
				Default:     pp.Default,
			}
		}
		err := a.Registry.RegisterProxy(p.URL, p.Method, declared,
			bridge.WithName(p.Name),
			bridge.WithDescription(p.Description),
		)
		if err != nil {
			return fmt.Errorf("proxy %q: %w", p.Name, err)
		}
	}
	return nil
}

// importOpenAPI runs the OpenAPI imports declared in config.
func (a *App) importOpenAPI(ctx context.Context) error {
	for _, o := range a.Config.OpenAPI {
		_, err := a.Registry.ImportOpenAPI(ctx, bridge.ImportOptions{
			DocumentURL:     o.URL,
			BaseURL:         o.BaseURL,
			IncludePaths:    o.IncludePaths,
			ExcludePaths:    o.ExcludePaths,
			NameFromSummary: o.NameFromSummary,
		})
		if err != nil {
			return fmt.Errorf("document %q: %w", o.URL, err)
		}
	}
	return nil
}

// Close closes all application resources.
func (a *App) Close() error {
	return nil
}
