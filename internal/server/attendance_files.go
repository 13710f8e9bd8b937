package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iosworks/claimdesk/internal/attachment"
)

func (s *Server) ListAttendanceFiles(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tenants := requestTenants(c)

	files, err := s.attachments.List(c.Request.Context(), tenants.Primary, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *Server) DownloadAttendanceFile(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	key := c.Param("key")
	tenants := requestTenants(c)

	blob, err := s.attachments.Open(c.Request.Context(), tenants.Primary, key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	name := key
	if files, err := s.attachments.List(c.Request.Context(), tenants.Primary, id); err == nil {
		for _, f := range files {
			if f.Key == key {
				name = f.OriginalName
				break
			}
		}
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, blob.Data)
}

func (s *Server) UploadAttendanceFile(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	up, err := s.readUpload(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tenants := requestTenants(c)

	att, err := s.attachments.Add(c.Request.Context(), tenants.Primary, id, up)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}

func (s *Server) ReplaceAttendanceFile(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	up, err := s.readUpload(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tenants := requestTenants(c)

	att, err := s.attachments.Replace(c.Request.Context(), tenants.Primary, id, c.Param("key"), up)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, att)
}

func (s *Server) DeleteAttendanceFile(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tenants := requestTenants(c)

	att, err := s.attachments.Remove(c.Request.Context(), tenants.Primary, id, c.Param("key"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, att)
}

// readUpload pulls the "file" part and optional "category" field from a
// multipart form, bounded by the configured upload size.
func (s *Server) readUpload(c *gin.Context) (attachment.Upload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		return attachment.Upload{}, httpError(http.StatusBadRequest, "multipart field %q is required", "file")
	}
	data, err := readAll(header)
	if err != nil {
		return attachment.Upload{}, err
	}

	return attachment.Upload{
		Category:     c.PostForm("category"),
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Data:         data,
	}, nil
}

func readAll(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
