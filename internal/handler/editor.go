package handler

import (
	"net/http"

	"devdecks-backend/internal/editor"
	"devdecks-backend/internal/model"
	"devdecks-backend/internal/provider"
	"devdecks-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// EditorResponse is the canvas after an edit. Applied is false when the edit
// targeted a slide or element that does not exist and nothing changed.
type EditorResponse struct {
	service.EditorView
	Applied   bool   `json:"applied"`
	ElementID string `json:"elementId,omitempty"`
}

type EditorHandler struct {
	workspace *service.WorkspaceService
}

func NewEditorHandler(workspace *service.WorkspaceService) *EditorHandler {
	return &EditorHandler{workspace: workspace}
}

func (h *EditorHandler) Register(projects *gin.RouterGroup) {
	ed := projects.Group("/:id/editor")
	{
		ed.GET("", h.GetEditor)
		ed.POST("/slides", h.AddSlide)
		ed.DELETE("/slides/:slideId", h.DeleteSlide)
		ed.POST("/select", h.SelectSlide)
		ed.POST("/elements", h.AddElement)
		ed.DELETE("/elements/selected", h.DeleteSelectedElement)
		ed.POST("/style", h.UpdateStyle)
		ed.POST("/animation", h.UpdateAnimation)
		ed.POST("/content", h.UpdateContent)
		ed.POST("/geometry", h.UpdateGeometry)
		ed.POST("/slide-property", h.UpdateSlideProperty)
		ed.POST("/transition", h.UpdateTransition)
		ed.POST("/click", h.Click)
		ed.POST("/drag/begin", h.BeginDrag)
		ed.POST("/drag/move", h.DragMove)
		ed.POST("/drag/end", h.EndDrag)
		ed.POST("/improve", h.Improve)
		ed.POST("/placeholders", h.FillPlaceholders)
	}
}

// edit runs fn against the project's editor and writes the resulting view.
func (h *EditorHandler) edit(c *gin.Context, persist bool, fn func(e *editor.Editor) (bool, error)) {
	var applied bool
	view, err := h.workspace.Edit(c.Request.Context(), c.Param("id"), persist, func(e *editor.Editor) error {
		var err error
		applied, err = fn(e)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, EditorResponse{EditorView: view, Applied: applied})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *EditorHandler) GetEditor(c *gin.Context) {
	view, err := h.workspace.EditorView(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EditorHandler) AddSlide(c *gin.Context) {
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		e.AddSlide()
		return true, nil
	})
}

func (h *EditorHandler) DeleteSlide(c *gin.Context) {
	slideID := c.Param("slideId")
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		return e.DeleteSlide(slideID), nil
	})
}

func (h *EditorHandler) SelectSlide(c *gin.Context) {
	var req SelectSlideRequest
	if !bind(c, &req) {
		return
	}
	h.edit(c, false, func(e *editor.Editor) (bool, error) {
		return e.SelectSlide(req.SlideID), nil
	})
}

func (h *EditorHandler) AddElement(c *gin.Context) {
	var req AddElementRequest
	if !bind(c, &req) {
		return
	}
	t, err := model.ParseElementType(req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	var elementID string
	view, err := h.workspace.Edit(c.Request.Context(), c.Param("id"), true, func(e *editor.Editor) error {
		var err error
		elementID, err = e.AddElement(t)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, EditorResponse{EditorView: view, Applied: elementID != "", ElementID: elementID})
}

func (h *EditorHandler) DeleteSelectedElement(c *gin.Context) {
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		return e.DeleteSelectedElement(), nil
	})
}

func (h *EditorHandler) UpdateStyle(c *gin.Context) {
	var req PropertyRequest
	if !bind(c, &req) {
		return
	}
	key, err := model.ParseStyleKey(req.Key)
	if err != nil {
		respondError(c, err)
		return
	}
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		return e.Element(req.ElementID) != nil, e.UpdateElementStyle(req.ElementID, key, req.Value)
	})
}

func (h *EditorHandler) UpdateAnimation(c *gin.Context) {
	var req PropertyRequest
	if !bind(c, &req) {
		return
	}
	key, err := model.ParseAnimationKey(req.Key)
	if err != nil {
		respondError(c, err)
		return
	}
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		return e.Element(req.ElementID) != nil, e.UpdateElementAnimation(req.ElementID, key, req.Value)
	})
}

func (h *EditorHandler) UpdateContent(c *gin.Context) {
	var req ContentRequest
	if !bind(c, &req) {
		return
	}
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		return e.UpdateElementContent(req.ElementID, req.Content), nil
	})
}

func (h *EditorHandler) UpdateGeometry(c *gin.Context) {
	var req GeometryRequest
	if !bind(c, &req) {
		return
	}
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		return e.Element(req.ElementID) != nil, e.UpdateElementGeometry(req.ElementID, req.Geometry)
	})
}

func (h *EditorHandler) UpdateSlideProperty(c *gin.Context) {
	var req PropertyRequest
	if !bind(c, &req) {
		return
	}
	key, err := model.ParseSlideKey(req.Key)
	if err != nil {
		respondError(c, err)
		return
	}
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		return e.ActiveSlide() != nil, e.UpdateSlideProperty(key, req.Value)
	})
}

func (h *EditorHandler) UpdateTransition(c *gin.Context) {
	var req PropertyRequest
	if !bind(c, &req) {
		return
	}
	key, err := model.ParseTransitionKey(req.Key)
	if err != nil {
		respondError(c, err)
		return
	}
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		return e.ActiveSlide() != nil, e.UpdateSlideTransition(key, req.Value)
	})
}

// Click selects by element id, resolves a pixel position when the canvas
// size is given, and otherwise clears the selection.
func (h *EditorHandler) Click(c *gin.Context) {
	var req PointerRequest
	if !bind(c, &req) {
		return
	}
	h.edit(c, false, func(e *editor.Editor) (bool, error) {
		switch {
		case req.ElementID != "":
			return e.ClickElement(req.ElementID), nil
		case req.CanvasWidth > 0 && req.CanvasHeight > 0:
			return e.ClickAt(req.point(), req.canvas()) != "", nil
		default:
			e.ClickCanvas()
			return true, nil
		}
	})
}

func (h *EditorHandler) BeginDrag(c *gin.Context) {
	var req PointerRequest
	if !bind(c, &req) {
		return
	}
	h.edit(c, false, func(e *editor.Editor) (bool, error) {
		return e.BeginDrag(req.ElementID, req.point()), nil
	})
}

func (h *EditorHandler) DragMove(c *gin.Context) {
	var req PointerRequest
	if !bind(c, &req) {
		return
	}
	h.edit(c, false, func(e *editor.Editor) (bool, error) {
		return e.DragTo(req.point(), req.canvas()), nil
	})
}

// EndDrag writes the final position to storage.
func (h *EditorHandler) EndDrag(c *gin.Context) {
	h.edit(c, true, func(e *editor.Editor) (bool, error) {
		dragging := e.State().Dragging
		e.EndDrag()
		return dragging, nil
	})
}

func (h *EditorHandler) Improve(c *gin.Context) {
	var req ImproveRequest
	if !bind(c, &req) {
		return
	}
	action, err := provider.ParseImproveAction(req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.workspace.ImproveSelected(c.Request.Context(), c.Param("id"), action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, EditorResponse{EditorView: view, Applied: true, ElementID: view.State.SelectedElementID})
}

func (h *EditorHandler) FillPlaceholders(c *gin.Context) {
	var req PlaceholderRequest
	if !bind(c, &req) {
		return
	}

	view, filled, err := h.workspace.FillPlaceholders(c.Request.Context(), c.Param("id"), req.SlideID, req.ElementID, req.AspectRatio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"editor": view,
		"filled": filled,
	})
}
