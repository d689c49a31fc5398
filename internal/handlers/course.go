package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LOGQS/coursegen-backend/internal/services"
)

type CourseHandler struct {
	store services.FileStore
}

func NewCourseHandler(store services.FileStore) *CourseHandler {
	return &CourseHandler{store: store}
}

// GET /api/courses
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.store.ListCourses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	meta, err := h.store.LoadMetadata(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if meta == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	c.JSON(http.StatusOK, meta)
}

// GET /api/courses/:id/download
func (h *CourseHandler) Download(c *gin.Context) {
	meta, err := h.store.LoadMetadata(c.Param("id"))
	if err != nil || meta == nil || meta.DocumentPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "course document not found"})
		return
	}
	c.FileAttachment(meta.DocumentPath, "presentation.pptx")
}

// DELETE /api/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteCourse(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
