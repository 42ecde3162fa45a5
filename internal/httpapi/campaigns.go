package httpapi

import (
	"net/http"

	"outreach-platform/internal/campaign"
	"outreach-platform/internal/funnel"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListCampaigns(c *gin.Context) {
	cs, err := h.Campaigns.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	var req campaign.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	created, err := h.Campaigns.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h Handlers) GetCampaign(c *gin.Context) {
	camp, err := h.Campaigns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, camp)
}

func (h Handlers) PatchCampaign(c *gin.Context) {
	var p campaign.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		badJSON(c)
		return
	}
	camp, err := h.Campaigns.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, camp)
}

func (h Handlers) DeleteCampaign(c *gin.Context) {
	if err := h.Campaigns.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Handlers) GetCampaignGraph(c *gin.Context) {
	g, err := h.Funnels.GetGraph(c.Request.Context(), funnel.CampaignScope(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h Handlers) PutCampaignGraph(c *gin.Context) {
	var g funnel.Graph
	if err := c.ShouldBindJSON(&g); err != nil {
		badJSON(c)
		return
	}
	if err := h.Funnels.SaveGraph(c.Request.Context(), funnel.CampaignScope(c.Param("id")), g); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ExecuteCampaign runs one node, or the first node per message channel
// when no nodeKey is given. The response carries aggregate counts only;
// per-contact details stay in the logs.
func (h Handlers) ExecuteCampaign(c *gin.Context) {
	var req struct {
		NodeKey string `json:"nodeKey,omitempty"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}
	}
	report, err := h.Exec.Execute(c.Request.Context(), c.Param("id"), req.NodeKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"smsSent":   report.SMSSent,
		"emailSent": report.EmailSent,
		"vmQueued":  report.VMQueued,
	})
}

func (h Handlers) CampaignStats(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.Campaigns.Get(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	s, err := h.Stats.Campaign(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h Handlers) DashboardStats(c *gin.Context) {
	d, err := h.Stats.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
