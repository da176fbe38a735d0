package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"techco/internal/domain"
	"techco/internal/engine"
	"techco/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"insufficient_seniority"`
	Message string         `json:"message" example:"developer cannot take this complexity"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Techco API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the required envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Techco API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerGames(group, cfg.Engine)
	registerDevelopers(group, cfg.Engine)
	registerSalesPeople(group, cfg.Engine)
	registerProjects(group, cfg.Engine)
	registerGenerations(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerDevAuth(group, cfg.Auth)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var de engine.DeclineError
	if errors.As(err, &de) {
		return newAPIError(statusForDecline(de.Reason), de.Reason, de.Message, nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") ||
		strings.Contains(lowered, "required") || strings.Contains(lowered, "must be") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

// statusForDecline maps a business rejection to a status: missing or foreign
// entities read as 404, a rule the request itself violates as 422, and
// everything stateful as 409.
func statusForDecline(reason string) int {
	switch reason {
	case engine.ReasonWrongGame:
		return http.StatusNotFound
	case engine.ReasonInsufficientSeniority:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	open := map[string]bool{
		path.Join("/", basePath, "health"):         true,
		path.Join("/", basePath, "auth/dev/login"): true,
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if open[route] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Techco API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerGames(api huma.API, e engine.Engine) {
	type gamePath struct {
		GameID string `path:"game_id"`
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-game",
		Method:        http.MethodPost,
		Path:          "/games",
		Summary:       "Create game",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateGameRequest `json:"body"`
	}) (*struct {
		Body GameResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		g, err := e.CreateGame(ctx, engine.CreateGameOptions{
			OwnerID: actorID,
			Name:    input.Body.Name,
			Notes:   input.Body.Notes,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameResponse `json:"body"`
		}{Body: gameResponse(g)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-games",
		Method:      http.MethodGet,
		Path:        "/games",
		Summary:     "List games",
	}, func(ctx context.Context, input *struct {
		OwnerID string `query:"owner_id"`
	}) (*struct {
		Body []GameResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListGames(ctx, input.OwnerID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []GameResponse `json:"body"`
		}{Body: mapGames(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-game",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}",
		Summary:     "Get game",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *gamePath) (*struct {
		Body GameResponse `json:"body"`
	}, error) {
		g, err := e.Repo.GetGame(ctx, input.GameID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameResponse `json:"body"`
		}{Body: gameResponse(g)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-game",
		Method:      http.MethodDelete,
		Path:        "/games/{game_id}",
		Summary:     "Delete game",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *gamePath) (*struct{}, error) {
		if err := e.DeleteGame(ctx, input.GameID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "game-status",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/status",
		Summary:     "Game dashboard summary",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *gamePath) (*struct {
		Body GameStatusResponse `json:"body"`
	}, error) {
		st, err := e.Status(ctx, input.GameID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameStatusResponse `json:"body"`
		}{Body: GameStatusResponse{
			Game:            gameResponse(st.Game),
			Developers:      st.Developers,
			SalesPeople:     st.SalesPeople,
			Projects:        st.Projects,
			MonthlyCosts:    st.MonthlyCosts,
			OpenGenerations: st.OpenGeneration,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pause-game",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/pause",
		Summary:     "Pause game",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *gamePath) (*struct {
		Body GameResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		g, err := e.Pause(ctx, input.GameID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameResponse `json:"body"`
		}{Body: gameResponse(g)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resume-game",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/resume",
		Summary:     "Resume game and shift in-flight deadlines",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *gamePath) (*struct {
		Body GameResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		g, err := e.Resume(ctx, input.GameID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameResponse `json:"body"`
		}{Body: gameResponse(g)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "offline-catchup",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/offline-catchup",
		Summary:     "Shift deadlines for a client-reported offline window",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		GameID string                `path:"game_id"`
		Body   OfflineCatchUpRequest `json:"body"`
	}) (*struct {
		Body OfflineCatchUpResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		shifted, err := e.ApplyOfflineCatchUp(ctx, input.GameID, input.Body.OfflineSeconds, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body OfflineCatchUpResponse `json:"body"`
		}{Body: OfflineCatchUpResponse{DeadlinesShifted: shifted}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-game-over",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/check-game-over",
		Summary:     "Evaluate the bankruptcy condition",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *gamePath) (*struct {
		Body CheckGameOverResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		g, changed, err := e.CheckGameOver(ctx, input.GameID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CheckGameOverResponse `json:"body"`
		}{Body: CheckGameOverResponse{Game: gameResponse(g), Changed: changed}}, nil
	})
}

func registerDevelopers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "hire-developer",
		Method:        http.MethodPost,
		Path:          "/games/{game_id}/developers",
		Summary:       "Hire developer",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		GameID string               `path:"game_id"`
		Body   HireDeveloperRequest `json:"body"`
	}) (*struct {
		Body DeveloperResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Name) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		d, err := e.HireDeveloper(ctx, input.GameID, engine.HireOptions{
			Name:          input.Body.Name,
			Level:         input.Body.Seniority,
			MonthlySalary: input.Body.MonthlySalary,
			ActorID:       actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeveloperResponse `json:"body"`
		}{Body: developerResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-developers",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/developers",
		Summary:     "List developers",
	}, func(ctx context.Context, input *struct {
		GameID string `path:"game_id"`
	}) (*struct {
		Body []DeveloperResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListDevelopers(ctx, input.GameID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []DeveloperResponse `json:"body"`
		}{Body: mapDevelopers(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-developer",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/developers/{developer_id}",
		Summary:     "Get developer",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		GameID      string `path:"game_id"`
		DeveloperID string `path:"developer_id"`
	}) (*struct {
		Body DeveloperResponse `json:"body"`
	}, error) {
		d, err := e.Repo.GetDeveloper(ctx, input.DeveloperID)
		if err != nil {
			return nil, handleError(err)
		}
		if d.GameID != input.GameID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "developer not in game", nil)
		}
		return &struct {
			Body DeveloperResponse `json:"body"`
		}{Body: developerResponse(d)}, nil
	})
}

func registerSalesPeople(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "hire-sales-person",
		Method:        http.MethodPost,
		Path:          "/games/{game_id}/sales-people",
		Summary:       "Hire salesperson",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		GameID string                 `path:"game_id"`
		Body   HireSalesPersonRequest `json:"body"`
	}) (*struct {
		Body SalesPersonResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Name) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.HireSalesPerson(ctx, input.GameID, engine.HireOptions{
			Name:          input.Body.Name,
			Level:         input.Body.Experience,
			MonthlySalary: input.Body.MonthlySalary,
			ActorID:       actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SalesPersonResponse `json:"body"`
		}{Body: salesPersonResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sales-people",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/sales-people",
		Summary:     "List salespeople",
	}, func(ctx context.Context, input *struct {
		GameID string `path:"game_id"`
	}) (*struct {
		Body []SalesPersonResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListSalesPeople(ctx, input.GameID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []SalesPersonResponse `json:"body"`
		}{Body: mapSalesPeople(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-sales-person",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/sales-people/{sales_person_id}",
		Summary:     "Get salesperson",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		GameID        string `path:"game_id"`
		SalesPersonID string `path:"sales_person_id"`
	}) (*struct {
		Body SalesPersonResponse `json:"body"`
	}, error) {
		s, err := e.Repo.GetSalesPerson(ctx, input.SalesPersonID)
		if err != nil {
			return nil, handleError(err)
		}
		if s.GameID != input.GameID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "salesperson not in game", nil)
		}
		return &struct {
			Body SalesPersonResponse `json:"body"`
		}{Body: salesPersonResponse(s)}, nil
	})
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/games/{game_id}/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		GameID string               `path:"game_id"`
		Body   CreateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Name) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreateProject(ctx, input.GameID, engine.CreateProjectOptions{
			Name:       input.Body.Name,
			Complexity: input.Body.Complexity,
			Value:      input.Body.Value,
			ActorID:    actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p, engine.CompletionEvaluation{})}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/projects",
		Summary:     "List projects",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		GameID      string `path:"game_id"`
		Status      string `query:"status" enum:",pending,in_progress,completed,cancelled"`
		DeveloperID string `query:"developer_id"`
		Limit       int    `query:"limit" default:"50"`
		Cursor      string `query:"cursor"`
	}) (*struct {
		Body paginatedProjects `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit)
		cursorTS, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
		}
		items, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{
			GameID:          input.GameID,
			Status:          input.Status,
			DeveloperID:     input.DeveloperID,
			Limit:           limit + 1,
			CursorCreatedAt: cursorTS,
			CursorID:        cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedProjects{Items: []ProjectResponse{}}
		if len(items) > limit {
			last := items[limit]
			resp.NextCursor = composeCursor(last.CreatedAt, last.ID)
			items = items[:limit]
		}
		now := evalNow(e)
		for _, p := range items {
			resp.Items = append(resp.Items, projectResponse(p, engine.Evaluate(p, now, e.Rules.Projects.CompletionToleranceSeconds)))
		}
		return &struct {
			Body paginatedProjects `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/projects/{project_id}",
		Summary:     "Get project with live completion state",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		GameID    string `path:"game_id"`
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, ev, err := e.EvaluateProject(ctx, input.GameID, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p, ev)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-project",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/projects/{project_id}/assign",
		Summary:     "Assign project to a developer",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		GameID    string               `path:"game_id"`
		ProjectID string               `path:"project_id"`
		Body      AssignProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.DeveloperID) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "developer_id is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.AssignProject(ctx, input.GameID, input.ProjectID, input.Body.DeveloperID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		ev := engine.Evaluate(p, evalNow(e), e.Rules.Projects.CompletionToleranceSeconds)
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p, ev)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-project",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/projects/{project_id}/complete",
		Summary:     "Complete project and collect its value",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		GameID    string `path:"game_id"`
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CompleteProject(ctx, input.GameID, input.ProjectID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p, engine.CompletionEvaluation{Progress: 100})}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-project",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/projects/{project_id}/cancel",
		Summary:     "Cancel project",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		GameID    string        `path:"game_id"`
		ProjectID string        `path:"project_id"`
		Body      CancelRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CancelProject(ctx, input.GameID, input.ProjectID, input.Body.Reason, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p, engine.CompletionEvaluation{})}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unassign-project",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/projects/{project_id}/unassign",
		Summary:     "Return project to the pending pool",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		GameID    string `path:"game_id"`
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.UnassignProject(ctx, input.GameID, input.ProjectID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p, engine.CompletionEvaluation{})}, nil
	})
}

func registerGenerations(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "start-generation",
		Method:        http.MethodPost,
		Path:          "/games/{game_id}/generations",
		Summary:       "Send a salesperson prospecting",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		GameID string                 `path:"game_id"`
		Body   StartGenerationRequest `json:"body"`
	}) (*struct {
		Body GenerationResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.SalesPersonID) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "sales_person_id is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		gen, err := e.StartGeneration(ctx, input.GameID, input.Body.SalesPersonID, engine.StartGenerationOptions{
			TargetName:       input.Body.TargetName,
			TargetComplexity: input.Body.TargetComplexity,
			ActorID:          actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GenerationResponse `json:"body"`
		}{Body: generationResponse(gen, engine.CompletionEvaluation{})}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-generations",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/generations",
		Summary:     "List project generations",
	}, func(ctx context.Context, input *struct {
		GameID        string `path:"game_id"`
		SalesPersonID string `query:"sales_person_id"`
		Status        string `query:"status" enum:",in_progress,completed,cancelled"`
		Limit         int    `query:"limit" default:"50"`
	}) (*struct {
		Body []GenerationResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListGenerations(ctx, repo.GenerationFilters{
			GameID:        input.GameID,
			SalesPersonID: input.SalesPersonID,
			Status:        input.Status,
			Limit:         normalizeLimit(input.Limit),
		})
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]GenerationResponse, 0, len(items))
		now := evalNow(e)
		for _, gen := range items {
			res = append(res, generationResponse(gen, evaluateGeneration(gen, now, e.Rules.Projects.CompletionToleranceSeconds)))
		}
		return &struct {
			Body []GenerationResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-generation",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/generations/{generation_id}",
		Summary:     "Get generation with live progress",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		GameID       string `path:"game_id"`
		GenerationID string `path:"generation_id"`
	}) (*struct {
		Body GenerationResponse `json:"body"`
	}, error) {
		gen, ev, err := e.EvaluateGeneration(ctx, input.GameID, input.GenerationID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GenerationResponse `json:"body"`
		}{Body: generationResponse(gen, ev)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-generation",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/generations/{generation_id}/complete",
		Summary:     "Materialize the prospect into a pending project",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		GameID       string `path:"game_id"`
		GenerationID string `path:"generation_id"`
	}) (*struct {
		Body struct {
			Generation GenerationResponse `json:"generation"`
			Project    ProjectResponse    `json:"project"`
		} `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		gen, p, err := e.CompleteGeneration(ctx, input.GameID, input.GenerationID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Generation GenerationResponse `json:"generation"`
				Project    ProjectResponse    `json:"project"`
			} `json:"body"`
		}{}
		out.Body.Generation = generationResponse(gen, engine.CompletionEvaluation{Progress: 100})
		out.Body.Project = projectResponse(p, engine.CompletionEvaluation{})
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-generation",
		Method:      http.MethodPost,
		Path:        "/games/{game_id}/generations/{generation_id}/cancel",
		Summary:     "Cancel generation",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		GameID       string        `path:"game_id"`
		GenerationID string        `path:"generation_id"`
		Body         CancelRequest `json:"body"`
	}) (*struct {
		Body GenerationResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		gen, err := e.CancelGeneration(ctx, input.GameID, input.GenerationID, input.Body.Reason, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GenerationResponse `json:"body"`
		}{Body: generationResponse(gen, engine.CompletionEvaluation{})}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/games/{game_id}/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		GameID     string `path:"game_id"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind" enum:",game,developer,sales_person,project,generation"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit)
		var cursorID int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			cursorID = parsed
		}
		items, err := e.Repo.LatestEventsFrom(ctx, limit+1, cursorID, input.GameID, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			resp.NextCursor = fmt.Sprintf("%d", items[limit].ID)
			items = items[:limit]
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}

func registerDevAuth(api huma.API, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		actor := strings.TrimSpace(input.Body.ActorID)
		if actor == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		token, err := signDevToken(authCfg.JWTSecret, actor)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token}}, nil
	})
}

func evalNow(e engine.Engine) time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// evaluateGeneration mirrors engine.Evaluate for generations, whose window
// fields are non-nullable.
func evaluateGeneration(g domain.ProjectGeneration, now time.Time, toleranceSeconds int) engine.CompletionEvaluation {
	p := domain.Project{Status: g.Status}
	if g.Status == domain.GenerationInProgress {
		p.Status = domain.ProjectInProgress
		started := g.StartedAt
		estimated := g.EstimatedCompletionAt
		p.StartedAt = &started
		p.EstimatedCompletionAt = &estimated
	} else if g.Status == domain.GenerationCompleted {
		p.Status = domain.ProjectCompleted
	}
	return engine.Evaluate(p, now, toleranceSeconds)
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}

func parseCompositeCursor(cursor string) (string, string, error) {
	if cursor == "" {
		return "", "", nil
	}
	parts := strings.SplitN(cursor, "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid cursor")
	}
	return parts[0], parts[1], nil
}

func composeCursor(ts, id string) string {
	if ts == "" || id == "" {
		return ""
	}
	return ts + "|" + id
}
