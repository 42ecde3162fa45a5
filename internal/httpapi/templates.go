package httpapi

import (
	"net/http"

	"outreach-platform/internal/auth"
	"outreach-platform/internal/funnel"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListTemplates(c *gin.Context) {
	ts, err := h.Funnels.ListTemplates(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (h Handlers) CreateTemplate(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	t, err := h.Funnels.CreateTemplate(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h Handlers) GetTemplate(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.Funnels.GetTemplate(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	g, err := h.Funnels.GetGraph(ctx, funnel.TemplateScope(t.ID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": t, "graph": g})
}

func (h Handlers) UpdateTemplate(c *gin.Context) {
	var patch funnel.TemplatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badJSON(c)
		return
	}
	t, err := h.Funnels.UpdateTemplate(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h Handlers) DeleteTemplate(c *gin.Context) {
	if err := h.Funnels.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Handlers) GetTemplateGraph(c *gin.Context) {
	g, err := h.Funnels.GetGraph(c.Request.Context(), funnel.TemplateScope(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h Handlers) PutTemplateGraph(c *gin.Context) {
	var g funnel.Graph
	if err := c.ShouldBindJSON(&g); err != nil {
		badJSON(c)
		return
	}
	if err := h.Funnels.SaveGraph(c.Request.Context(), funnel.TemplateScope(c.Param("id")), g); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Handlers) ListTemplateVersions(c *gin.Context) {
	vs, err := h.Funnels.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

func (h Handlers) CreateTemplateVersion(c *gin.Context) {
	var req funnel.CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	req.BaseTemplateID = c.Param("id")
	if req.CreatedBy == "" {
		req.CreatedBy, _ = auth.UserID(c.Request.Context())
	}
	v, err := h.Funnels.CreateVersion(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h Handlers) GetTemplateVersion(c *gin.Context) {
	v, err := h.Funnels.GetVersion(c.Request.Context(), c.Param("versionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h Handlers) DeleteTemplateVersion(c *gin.Context) {
	if err := h.Funnels.DeleteVersion(c.Request.Context(), c.Param("versionId")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Handlers) ExportTemplateCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="funnel.csv"`)
	if err := h.Funnels.ExportCSV(c.Request.Context(), funnel.TemplateScope(c.Param("id")), c.Writer); err != nil {
		h.fail(c, err)
	}
}

// ImportTemplateCSV replaces the template graph with the posted CSV body.
func (h Handlers) ImportTemplateCSV(c *gin.Context) {
	g, err := h.Funnels.ImportCSV(c.Request.Context(), funnel.TemplateScope(c.Param("id")), c.Request.Body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "nodes": len(g.Nodes), "edges": len(g.Edges)})
}
