package graphql

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/gin-gonic/gin"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

//go:embed schema.graphqls
var schemaSource string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSource})

// Handler defines the interface for GraphQL API handlers
type Handler interface {
	// HandleGraphQL serves queries sent as a JSON body or as GET parameters
	HandleGraphQL(c *gin.Context)
}

type gqlHandler struct {
	executor *executor
	resolver *Resolver
}

// NewHandler creates a new GraphQL handler over the service
func NewHandler(svc Service) Handler {
	return &gqlHandler{
		executor: newExecutor(parsedSchema),
		resolver: NewResolver(svc),
	}
}

// SetupRoutes configures the GraphQL endpoint. Queries are public like the REST query endpoints.
func SetupRoutes(router *gin.Engine, handler Handler) {
	router.POST("/graphql", handler.HandleGraphQL)
	router.GET("/graphql", handler.HandleGraphQL)
}

func (h *gqlHandler) HandleGraphQL(c *gin.Context) {
	params, err := readParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, &graphql.Response{Errors: gqlerror.List{err}})
		return
	}

	resp := h.executor.execute(c.Request.Context(), params, h.resolver)
	status := http.StatusOK
	if resp.Data == nil {
		// the document never ran
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

func readParams(c *gin.Context) (*graphql.RawParams, *gqlerror.Error) {
	var params graphql.RawParams

	if c.Request.Method == http.MethodGet {
		params.Query = c.Query("query")
		params.OperationName = c.Query("operationName")
		if raw := c.Query("variables"); raw != "" {
			if err := decodeJSON(raw, &params.Variables); err != nil {
				return nil, requestError("variables could not be decoded: %s", err)
			}
		}
	} else {
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		if err := dec.Decode(&params); err != nil {
			return nil, requestError("json request body could not be decoded: %s", err)
		}
	}

	if strings.TrimSpace(params.Query) == "" {
		return nil, requestError("no query document supplied")
	}
	return &params, nil
}

func decodeJSON(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
