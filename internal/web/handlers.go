package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/studiowebux/proxyview/internal/pipeline"
	"github.com/studiowebux/proxyview/internal/render"
	"github.com/studiowebux/proxyview/internal/viewer"
	"go.uber.org/zap"
)

// formRequest is both the page form and the JSON body of /api/submit
type formRequest struct {
	URL        string `form:"url" json:"url"`
	Method     string `form:"method" json:"method"`
	Headers    string `form:"headers" json:"headers"`
	Body       string `form:"body" json:"body"`
	ForceFrame bool   `form:"force_frame" json:"force_frame"`
	ForceRaw   bool   `form:"force_raw" json:"force_raw"`
}

func (r formRequest) toForm() viewer.Form {
	return viewer.Form{
		URL:     r.URL,
		Method:  r.Method,
		Headers: r.Headers,
		Body:    r.Body,
		Toggles: render.Toggles{ForceFrame: r.ForceFrame, ForceRaw: r.ForceRaw},
	}
}

func knownMethod(method string) bool {
	if method == "" {
		return true
	}
	for _, m := range pipeline.Methods {
		if m == method {
			return true
		}
	}
	return false
}

type pageData struct {
	Snapshot      viewer.Snapshot
	Methods       []string
	ProxyTemplate string
	// Failed styles the display as an error
	Failed bool
}

type submitResponse struct {
	ID         string         `json:"id"`
	State      viewer.State   `json:"state"`
	Display    viewer.Display `json:"display"`
	Meta       *pipeline.Meta `json:"meta,omitempty"`
	Error      string         `json:"error,omitempty"`
	Superseded bool           `json:"superseded,omitempty"`
}

type bookmarkRequest struct {
	URL string `json:"url" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(c *gin.Context) {
	snap := s.ctrl.Snapshot()
	c.HTML(http.StatusOK, "index.html", pageData{
		Snapshot:      snap,
		Methods:       pipeline.Methods,
		ProxyTemplate: s.ctrl.ProxyTemplate(),
		Failed:        snap.State == viewer.StateFailed,
	})
}

func (s *Server) redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid form: %v", err)
		return
	}
	if !knownMethod(req.Method) {
		req.Method = "GET"
	}

	s.submit(c, req.toForm())
	s.redirectHome(c)
}

func (s *Server) handleBookmark(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid form: %v", err)
		return
	}

	// Keep what was typed so the page shows it after the redirect
	s.ctrl.SetForm(req.toForm())
	if _, err := s.ctrl.Bookmark(req.URL); err != nil {
		c.String(http.StatusInternalServerError, "failed to save bookmark: %v", err)
		return
	}
	s.redirectHome(c)
}

func (s *Server) handleReset(c *gin.Context) {
	s.ctrl.Reset()
	s.redirectHome(c)
}

// handleSelect copies a history or bookmark entry into the URL field
func (s *Server) handleSelect(c *gin.Context) {
	index, err := strconv.Atoi(c.PostForm("index"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid index")
		return
	}

	switch c.PostForm("list") {
	case "history":
		s.ctrl.SelectHistory(index)
	case "bookmarks":
		s.ctrl.SelectBookmark(index)
	default:
		c.String(http.StatusBadRequest, "unknown list")
		return
	}
	s.redirectHome(c)
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Snapshot())
}

// handleAPISubmit runs one submission. Transport failures are reported in
// the body with state "failed"; only malformed requests get a 4xx.
func (s *Server) handleAPISubmit(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}
	if !knownMethod(req.Method) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unsupported method: " + req.Method})
		return
	}

	result, applied := s.submit(c, req.toForm())

	resp := submitResponse{
		ID:         result.Submission.ID,
		Superseded: !applied,
	}
	if applied {
		snap := s.ctrl.Snapshot()
		resp.State = snap.State
		resp.Display = snap.Display
		resp.Meta = snap.LastMeta
		resp.Error = snap.LastError
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAPIBookmark(c *gin.Context) {
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	added, err := s.ctrl.Bookmark(req.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to save bookmark: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "bookmarks": s.ctrl.Bookmarks().Items()})
}

func (s *Server) handleAPIReset(c *gin.Context) {
	s.ctrl.Reset()
	c.JSON(http.StatusOK, s.ctrl.Snapshot())
}

// submit drives the controller with the request's context, so a client that
// goes away cancels its submission
func (s *Server) submit(c *gin.Context, form viewer.Form) (viewer.Result, bool) {
	sub := s.ctrl.Begin(form)
	result := s.ctrl.Await(c.Request.Context(), sub)
	applied := s.ctrl.Complete(result)

	if !applied {
		s.logger.Debug("submission superseded", zap.String("id", sub.ID))
	}
	return result, applied
}
