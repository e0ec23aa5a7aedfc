package ginserver

import (
	"bytes"
	_ "embed"
	"net/http"

	gin "github.com/gin-gonic/gin"
)

const apiDocPath = "/swagger/doc.json"

//go:embed swagger/openapi.json
var openAPIDocument []byte

//go:embed swagger/index.html
var swaggerPage []byte

// apiDocs serves the OpenAPI document and a Swagger UI page pointing at it. The page is
// rendered once at registration.
type apiDocs struct {
	page []byte
}

func newAPIDocs() apiDocs {
	return apiDocs{page: bytes.ReplaceAll(swaggerPage, []byte("{{SPEC_URL}}"), []byte(apiDocPath))}
}

func (d apiDocs) document(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/json", openAPIDocument)
}

func (d apiDocs) ui(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", d.page)
}

func registerSwaggerRoutes(router gin.IRoutes) {
	docs := newAPIDocs()
	router.GET(apiDocPath, docs.document)
	router.GET("/swagger", docs.ui)
	router.GET("/swagger/index.html", docs.ui)
}
