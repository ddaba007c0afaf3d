package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kmatek/photoalbum-api/internal/service"
	"github.com/kmatek/photoalbum-api/pkg/apperror"
	"github.com/kmatek/photoalbum-api/pkg/response"
)

type AlbumHandler struct {
	albums service.AlbumService
}

func NewAlbumHandler(albums service.AlbumService) *AlbumHandler {
	return &AlbumHandler{albums: albums}
}

func (h *AlbumHandler) CreateAlbum(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input service.CreateAlbumInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	album, err := h.albums.CreateAlbum(c.Request.Context(), userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, album)
}

func (h *AlbumHandler) GetAlbum(c *gin.Context) {
	albumID, err := parseAlbumID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	album, err := h.albums.GetAlbum(c.Request.Context(), albumID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, album)
}

func (h *AlbumHandler) ListAlbums(c *gin.Context) {
	var filter service.AlbumFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	albums, err := h.albums.ListAlbums(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, albums)
}

func (h *AlbumHandler) UpdateAlbum(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	albumID, err := parseAlbumID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input service.UpdateAlbumInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	album, err := h.albums.UpdateAlbum(c.Request.Context(), userID, albumID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, album)
}

func (h *AlbumHandler) DeleteAlbum(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	albumID, err := parseAlbumID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.albums.DeleteAlbum(c.Request.Context(), userID, albumID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AlbumHandler) UploadPhoto(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	albumID, err := parseAlbumID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer f.Close()

	photo, err := h.albums.UploadPhoto(c.Request.Context(), userID, albumID, file.Filename, f)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, photo)
}

func (h *AlbumHandler) DeletePhoto(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	albumID, err := parseAlbumID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	photoID, err := uuid.Parse(c.Param("photo_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.albums.DeletePhoto(c.Request.Context(), userID, albumID, photoID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AlbumHandler) LikeAlbum(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	albumID, err := parseAlbumID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.albums.LikeAlbum(c.Request.Context(), userID, albumID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"detail": "album liked"})
}

func (h *AlbumHandler) UnlikeAlbum(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	albumID, err := parseAlbumID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.albums.UnlikeAlbum(c.Request.Context(), userID, albumID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseAlbumID(c *gin.Context) (uuid.UUID, error) {
	albumID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.ErrBadRequest
	}
	return albumID, nil
}
